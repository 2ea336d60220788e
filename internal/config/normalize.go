// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package config

import (
	"strings"

	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
)

// Defaults applied by Normalize
const (
	DefaultFirmware    = "3.65"
	DefaultConnectMs   = 15000
	DefaultOperationMs = 10000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Device.Name == "" {
		cfg.Device.Name = transport.DefaultNamePrefix
	}
	if cfg.Device.Firmware == "" {
		cfg.Device.Firmware = DefaultFirmware
	}

	def := transport.DefaultGATT()
	if cfg.GATT.GenericService == "" {
		cfg.GATT.GenericService = def.GenericService
	}
	if cfg.GATT.ChargingService == "" {
		cfg.GATT.ChargingService = def.ChargingService
	}
	cfg.GATT.GenericService = strings.ToLower(cfg.GATT.GenericService)
	cfg.GATT.ChargingService = strings.ToLower(cfg.GATT.ChargingService)

	if cfg.GATT.Characteristics == nil {
		cfg.GATT.Characteristics = make(map[string]string)
	}
	for c, id := range def.Characteristics {
		if cfg.GATT.Characteristics[c.String()] == "" {
			cfg.GATT.Characteristics[c.String()] = id
		}
	}
	for name, id := range cfg.GATT.Characteristics {
		cfg.GATT.Characteristics[name] = strings.ToLower(id)
	}

	if cfg.Timeouts.ConnectMs == 0 {
		cfg.Timeouts.ConnectMs = DefaultConnectMs
	}
	if cfg.Timeouts.OperationMs == 0 {
		cfg.Timeouts.OperationMs = DefaultOperationMs
	}
}
