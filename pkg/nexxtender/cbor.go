// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// Top-level keys of a CBOR configuration frame
const (
	cborKeyEnvelope = 0 // required by the charger, carries nothing we use
	cborKeyConfig   = 1
)

// Keys of the nested configuration map
const (
	cborKeyMaxGrid          = 0
	cborKeyMaxDevice        = 1
	cborKeyMode             = 2
	cborKeySafeCurrent      = 3
	cborKeyNetworkType      = 4
	cborKeyTouWeekStart     = 5
	cborKeyTouWeekEnd       = 6
	cborKeyTouWeekendStart  = 7
	cborKeyTouWeekendEnd    = 8
	cborKeyMinDevice        = 9
	cborKeyICapacity        = 10
	cborKeySolarMode        = 11
	cborKeyPhaseRotation    = 12
	cborKeyLoadBalancing    = 13
	cborKeyTimezone         = 14
	cborKeyDaylightSaving   = 15
	cborKeyLedBrightness    = 16
	cborKeyMaxSessionEnergy = 17
	cborKeyAuthTimeout      = 18
)

var cborConsumedKeys = map[int]bool{
	cborKeyMaxGrid:         true,
	cborKeyMaxDevice:       true,
	cborKeyMode:            true,
	cborKeySafeCurrent:     true,
	cborKeyNetworkType:     true,
	cborKeyTouWeekStart:    true,
	cborKeyTouWeekEnd:      true,
	cborKeyTouWeekendStart: true,
	cborKeyTouWeekendEnd:   true,
	cborKeyMinDevice:       true,
	cborKeyICapacity:       true,
}

// Core deterministic encoding keeps our own frames stable. Frames produced
// by a charger may order keys differently, so only decode(encode(x)) == x
// holds, not byte equality with device frames.
var cborEncMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("nexxtender: cbor enc mode: %v", err))
	}
	return em
}()

func parseCborConfig(b []byte) (Config, error) {
	if len(b) < 3 {
		return Config{}, newDecodeError(ErrorLengthMismatch, "config",
			"length %d matches no configuration variant", len(b))
	}
	if err := checkCRC("config", b); err != nil {
		return Config{}, err
	}

	var top interface{}
	if err := cbor.Unmarshal(b[:len(b)-2], &top); err != nil {
		return Config{}, newDecodeError(ErrorMalformedCbor, "config", "failed to decode CBOR: %v", err)
	}
	topMap, err := intKeyedMap(top)
	if err != nil {
		return Config{}, newDecodeError(ErrorUnexpectedStructure, "config", "top level: %v", err)
	}
	nested, ok := topMap[cborKeyConfig]
	if !ok {
		return Config{}, newDecodeError(ErrorUnexpectedStructure, "config", "missing key %d", cborKeyConfig)
	}
	m, err := intKeyedMap(nested)
	if err != nil {
		return Config{}, newDecodeError(ErrorUnexpectedStructure, "config", "key %d: %v", cborKeyConfig, err)
	}

	cfg := Config{Variant: ConfigCbor, Valid: true}
	for key := range m {
		if !cborConsumedKeys[key] {
			// Known but unused keys, and keys newer firmware may add
			continue
		}
		v, ok := GetMapUint(m, key)
		if !ok {
			return Config{}, newDecodeError(ErrorUnexpectedStructure, "config",
				"key %d: expected unsigned integer, got %T", key, m[key])
		}
		if limit := cborKeyLimit(key); v > limit {
			return Config{}, newDecodeError(ErrorUnexpectedStructure, "config",
				"key %d: value %d out of range (max %d)", key, v, limit)
		}
		switch key {
		case cborKeyMaxGrid:
			cfg.MaxGrid = uint8(v)
		case cborKeyMaxDevice:
			cfg.MaxDevice = uint8(v)
		case cborKeyMode:
			cfg.Mode = lookupCode(chargeModeCodes, v)
		case cborKeySafeCurrent:
			cfg.SafeCurrent = uint8(v)
		case cborKeyNetworkType:
			cfg.NetworkType = lookupCode(networkTypeCodes, v)
		case cborKeyTouWeekStart:
			cfg.TouWeekStart = uint16(v)
		case cborKeyTouWeekEnd:
			cfg.TouWeekEnd = uint16(v)
		case cborKeyTouWeekendStart:
			cfg.TouWeekendStart = uint16(v)
		case cborKeyTouWeekendEnd:
			cfg.TouWeekendEnd = uint16(v)
		case cborKeyMinDevice:
			cfg.MinDevice = uint8(v)
		case cborKeyICapacity:
			cfg.ICapacity = uint8(v)
		}
	}
	return cfg, nil
}

func encodeCborConfig(cfg Config) ([]byte, error) {
	nested := map[int]interface{}{
		cborKeyMaxGrid:         uint64(cfg.MaxGrid),
		cborKeyMaxDevice:       uint64(cfg.MaxDevice),
		cborKeyMode:            uint64(reverseCode(chargeModeCodes, cfg.Mode)),
		cborKeySafeCurrent:     uint64(cfg.SafeCurrent),
		cborKeyNetworkType:     uint64(reverseCode(networkTypeCodes, cfg.NetworkType)),
		cborKeyTouWeekStart:    uint64(cfg.TouWeekStart),
		cborKeyTouWeekEnd:      uint64(cfg.TouWeekEnd),
		cborKeyTouWeekendStart: uint64(cfg.TouWeekendStart),
		cborKeyTouWeekendEnd:   uint64(cfg.TouWeekendEnd),
		cborKeyMinDevice:       uint64(cfg.MinDevice),
		cborKeyICapacity:       uint64(cfg.ICapacity),
	}
	top := map[int]interface{}{
		cborKeyEnvelope: map[int]interface{}{},
		cborKeyConfig:   nested,
	}

	data, err := cborEncMode.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR config: %w", err)
	}
	out := make([]byte, len(data)+2)
	copy(out, data)
	return appendCRC(out), nil
}

// cborKeyLimit is the largest value a consumed key fits in. Enumerations
// outside their table decode to Unknown instead.
func cborKeyLimit(key int) uint64 {
	switch key {
	case cborKeyMode, cborKeyNetworkType:
		return math.MaxUint64
	case cborKeyTouWeekStart, cborKeyTouWeekEnd, cborKeyTouWeekendStart, cborKeyTouWeekendEnd:
		return 0xFFFF
	}
	return 0xFF
}

// lookupCode maps a CBOR integer through a one-byte code table
func lookupCode[T any](table map[uint8]T, v uint64) T {
	if v > 0xFF {
		var unknown T
		return unknown
	}
	return table[uint8(v)]
}

// intKeyedMap converts a generic CBOR map to a map keyed by int. Entries
// whose key is not an integer are dropped.
func intKeyedMap(v interface{}) (map[int]interface{}, error) {
	raw, ok := v.(map[interface{}]interface{})
	if !ok {
		return nil, fmt.Errorf("expected map, got %T", v)
	}
	m := make(map[int]interface{}, len(raw))
	for key, val := range raw {
		switch k := key.(type) {
		case uint64:
			if k <= math.MaxInt32 {
				m[int(k)] = val
			}
		case int64:
			if k >= math.MinInt32 && k <= math.MaxInt32 {
				m[int(k)] = val
			}
		}
	}
	return m, nil
}

// GetMapUint extracts a non-negative integer from a CBOR map by key
func GetMapUint(m map[int]interface{}, key int) (uint64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case uint64:
		return val, true
	case int64:
		if val >= 0 {
			return uint64(val), true
		}
	}
	return 0, false
}
