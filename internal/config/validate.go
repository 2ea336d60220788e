// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package config

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	if cfg.Device.Firmware != "" {
		if _, err := nexxtender.ConfigVariantForFirmware(cfg.Device.Firmware); err != nil {
			return fmt.Errorf("device.firmware: %w", err)
		}
	}

	// ------------------------------------------------------------
	// BRIDGE
	// ------------------------------------------------------------

	if cfg.Bridge.URL != "" {
		u, err := url.Parse(cfg.Bridge.URL)
		if err != nil {
			return fmt.Errorf("bridge.url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("bridge.url: unsupported scheme %q (use ws:// or wss://)", u.Scheme)
		}
	}
	if cfg.Bridge.NoSSLVerify && cfg.Bridge.URL == "" {
		return fmt.Errorf("bridge.no_ssl_verify is set but bridge.url is empty")
	}

	// ------------------------------------------------------------
	// GATT (all UUIDs optional, defaults fill the gaps)
	// ------------------------------------------------------------

	if err := validateUUID("gatt.generic_service", cfg.GATT.GenericService); err != nil {
		return err
	}
	if err := validateUUID("gatt.charging_service", cfg.GATT.ChargingService); err != nil {
		return err
	}

	seen := make(map[string]string)
	for name, id := range cfg.GATT.Characteristics {
		if _, err := transport.ParseCharacteristic(name); err != nil {
			return fmt.Errorf("gatt.characteristics: %w", err)
		}
		if id == "" {
			continue
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("gatt.characteristics.%s: invalid UUID %q: %w", name, id, err)
		}
		key := parsed.String()
		if prev, exists := seen[key]; exists {
			return fmt.Errorf("gatt.characteristics: %s and %s share UUID %s", prev, name, key)
		}
		seen[key] = name
	}

	// ------------------------------------------------------------
	// TIMEOUTS
	// ------------------------------------------------------------

	if cfg.Timeouts.ConnectMs < 0 {
		return fmt.Errorf("timeouts.connect_ms must not be negative")
	}
	if cfg.Timeouts.OperationMs < 0 {
		return fmt.Errorf("timeouts.operation_ms must not be negative")
	}

	return nil
}

func validateUUID(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("%s: invalid UUID %q: %w", field, value, err)
	}
	return nil
}
