// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

// Package config loads the optional YAML configuration file of the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
)

type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	GATT     GATTConfig     `yaml:"gatt"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Address  string `yaml:"address"`  // MAC address, empty = first device matching name
	Name     string `yaml:"name"`     // advertised name prefix
	Firmware string `yaml:"firmware"` // selects the configuration encoding
}

// ---- BRIDGE ----

type BridgeConfig struct {
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`
	Listen      string `yaml:"listen"` // address served by `gaai bridge`
}

// ---- GATT ----

type GATTConfig struct {
	GenericService  string            `yaml:"generic_service"`
	ChargingService string            `yaml:"charging_service"`
	Characteristics map[string]string `yaml:"characteristics"` // name -> UUID
}

// ---- TIMEOUTS ----

type TimeoutsConfig struct {
	ConnectMs   int `yaml:"connect_ms"`
	OperationMs int `yaml:"operation_ms"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Listen string `yaml:"listen"` // e.g. ":9100", empty = disabled
}

// Load reads, validates and normalizes a configuration file.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes, validates and normalizes YAML configuration data
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	Normalize(cfg)
	return cfg, nil
}

// Default returns the normalized empty configuration
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}

// TransportGATT converts the normalized GATT section
func (c *Config) TransportGATT() transport.GATT {
	g := transport.GATT{
		GenericService:  c.GATT.GenericService,
		ChargingService: c.GATT.ChargingService,
		Characteristics: make(map[transport.Characteristic]string),
	}
	for name, uuid := range c.GATT.Characteristics {
		if ch, err := transport.ParseCharacteristic(name); err == nil {
			g.Characteristics[ch] = strings.ToLower(uuid)
		}
	}
	return g
}

// ConnectTimeout returns the connection timeout
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Timeouts.ConnectMs) * time.Millisecond
}

// OperationTimeout returns the timeout of one protocol operation
func (c *Config) OperationTimeout() time.Duration {
	return time.Duration(c.Timeouts.OperationMs) * time.Millisecond
}
