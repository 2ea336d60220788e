// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import "fmt"

// Configuration record lengths
const (
	ConfigLegacySize   = 13
	ConfigExtendedSize = 15
)

// ConfigVariant is the physical encoding of a configuration record
type ConfigVariant int

// Configuration variants
const (
	ConfigLegacy ConfigVariant = iota
	ConfigExtended
	ConfigCbor
)

// String returns the variant name
func (v ConfigVariant) String() string {
	switch v {
	case ConfigLegacy:
		return "legacy"
	case ConfigExtended:
		return "extended"
	case ConfigCbor:
		return "cbor"
	}
	return fmt.Sprintf("variant_%d", int(v))
}

// ChargeMode is the default charge mode of the charger
type ChargeMode int

// Charge modes
const (
	ChargeModeUnknown ChargeMode = iota
	ChargeModeEcoPrivate
	ChargeModeMaxPrivate
	ChargeModeEcoOpen
	ChargeModeMaxOpen
)

var chargeModeCodes = map[uint8]ChargeMode{
	0: ChargeModeEcoPrivate,
	1: ChargeModeMaxPrivate,
	4: ChargeModeEcoOpen,
	5: ChargeModeMaxOpen,
}

var chargeModeNames = map[ChargeMode]string{
	ChargeModeUnknown:    "unknown",
	ChargeModeEcoPrivate: "eco_private",
	ChargeModeMaxPrivate: "max_private",
	ChargeModeEcoOpen:    "eco_open",
	ChargeModeMaxOpen:    "max_open",
}

// String returns the mode name
func (m ChargeMode) String() string {
	if name, ok := chargeModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode_%d", int(m))
}

// ParseChargeMode is the inverse of ChargeMode.String
func ParseChargeMode(s string) (ChargeMode, error) {
	for mode, name := range chargeModeNames {
		if name == s && mode != ChargeModeUnknown {
			return mode, nil
		}
	}
	return ChargeModeUnknown, fmt.Errorf("unknown charge mode %q", s)
}

// NetworkType is the grid topology the charger is wired to
type NetworkType int

// Network types
const (
	NetworkTypeUnknown NetworkType = iota
	NetworkTypeMonoTrin
	NetworkTypeTri
)

var networkTypeCodes = map[uint8]NetworkType{
	0: NetworkTypeMonoTrin,
	2: NetworkTypeTri,
}

var networkTypeNames = map[NetworkType]string{
	NetworkTypeUnknown:  "unknown",
	NetworkTypeMonoTrin: "mono_trin",
	NetworkTypeTri:      "tri",
}

// String returns the network type name
func (n NetworkType) String() string {
	if name, ok := networkTypeNames[n]; ok {
		return name
	}
	return fmt.Sprintf("network_%d", int(n))
}

// ParseNetworkType is the inverse of NetworkType.String
func ParseNetworkType(s string) (NetworkType, error) {
	for nt, name := range networkTypeNames {
		if name == s && nt != NetworkTypeUnknown {
			return nt, nil
		}
	}
	return NetworkTypeUnknown, fmt.Errorf("unknown network type %q", s)
}

// Config is the charger configuration. Currents are in A and the
// time-of-use boundaries in minutes since midnight.
//
// MaxDevice and NetworkType do not exist in the legacy variant; MinDevice
// and ICapacity only exist in the CBOR variant. Valid is false for the zero
// placeholder and true for anything decoded or deliberately built; an
// invalid Config is never written to a charger.
type Config struct {
	Variant         ConfigVariant
	MaxGrid         uint8
	MaxDevice       uint8
	Mode            ChargeMode
	SafeCurrent     uint8
	NetworkType     NetworkType
	TouWeekStart    uint16
	TouWeekEnd      uint16
	TouWeekendStart uint16
	TouWeekendEnd   uint16
	MinDevice       uint8
	ICapacity       uint8
	Valid           bool
}

// ParseConfig decodes a configuration record. The length selects the
// variant: 13 bytes is legacy, 15 extended, anything else CBOR.
func ParseConfig(b []byte) (Config, error) {
	switch len(b) {
	case ConfigLegacySize:
		return parseFixedConfig(b, ConfigLegacy)
	case ConfigExtendedSize:
		return parseFixedConfig(b, ConfigExtended)
	default:
		return parseCborConfig(b)
	}
}

func parseFixedConfig(b []byte, variant ConfigVariant) (Config, error) {
	if err := checkCRC("config", b); err != nil {
		return Config{}, err
	}
	extended := variant == ConfigExtended
	c := &fieldCursor{buf: b}
	cfg := Config{Variant: variant, Valid: true}

	cfg.MaxGrid = c.u8()
	if extended {
		cfg.MaxDevice = c.u8()
	}
	cfg.Mode = chargeModeCodes[c.u8()]
	cfg.SafeCurrent = c.u8()
	if extended {
		cfg.NetworkType = networkTypeCodes[c.u8()]
	}
	cfg.TouWeekStart = c.u16()
	cfg.TouWeekEnd = c.u16()
	cfg.TouWeekendStart = c.u16()
	cfg.TouWeekendEnd = c.u16()
	return cfg, nil
}

// Encode returns the wire form of the configuration in its Variant
func (cfg Config) Encode() ([]byte, error) {
	switch cfg.Variant {
	case ConfigLegacy:
		return cfg.encodeFixed(ConfigLegacySize, false), nil
	case ConfigExtended:
		return cfg.encodeFixed(ConfigExtendedSize, true), nil
	case ConfigCbor:
		return encodeCborConfig(cfg)
	}
	return nil, fmt.Errorf("unsupported config variant %v", cfg.Variant)
}

func (cfg Config) encodeFixed(size int, extended bool) []byte {
	c := &fieldCursor{buf: make([]byte, size)}

	c.putU8(cfg.MaxGrid)
	if extended {
		c.putU8(cfg.MaxDevice)
	}
	c.putU8(reverseCode(chargeModeCodes, cfg.Mode))
	c.putU8(cfg.SafeCurrent)
	if extended {
		c.putU8(reverseCode(networkTypeCodes, cfg.NetworkType))
	}
	c.putU16(cfg.TouWeekStart)
	c.putU16(cfg.TouWeekEnd)
	c.putU16(cfg.TouWeekendStart)
	c.putU16(cfg.TouWeekendEnd)
	return appendCRC(c.buf)
}
