// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

// Package transport provides characteristic-level access to a charger and
// adapts it to the generic.Transport the protocol session drives.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// Characteristic identifies one GATT characteristic of the charger
type Characteristic uint8

// Characteristics used by this tool
const (
	GenericCommand Characteristic = iota
	GenericStatus
	GenericData
	ChargingBasic
	ChargingGrid
	ChargingCar
	ChargingAdvanced
)

// Characteristics lists every characteristic in declaration order
var Characteristics = []Characteristic{
	GenericCommand, GenericStatus, GenericData,
	ChargingBasic, ChargingGrid, ChargingCar, ChargingAdvanced,
}

var characteristicNames = map[Characteristic]string{
	GenericCommand:   "generic_command",
	GenericStatus:    "generic_status",
	GenericData:      "generic_data",
	ChargingBasic:    "charging_basic",
	ChargingGrid:     "charging_grid",
	ChargingCar:      "charging_car",
	ChargingAdvanced: "charging_advanced",
}

// String returns the characteristic name used in configuration files
func (c Characteristic) String() string {
	if name, ok := characteristicNames[c]; ok {
		return name
	}
	return fmt.Sprintf("characteristic_%d", uint8(c))
}

// ParseCharacteristic returns the characteristic with the given name
func ParseCharacteristic(name string) (Characteristic, error) {
	for c, n := range characteristicNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown characteristic %q", name)
}

// Valid reports whether c is a known characteristic
func (c Characteristic) Valid() bool {
	_, ok := characteristicNames[c]
	return ok
}

// ErrClosed is returned by a Link after Close
var ErrClosed = errors.New("link closed")

// Link reads, writes and subscribes to charger characteristics.
//
// Subscribe returns a channel of notification payloads that is closed when
// the link goes away or ctx is done.
type Link interface {
	Read(ctx context.Context, c Characteristic) ([]byte, error)
	Write(ctx context.Context, c Characteristic, data []byte) error
	Subscribe(ctx context.Context, c Characteristic) (<-chan []byte, error)
	Close() error
}

// DefaultNamePrefix is the advertised name prefix of Nexxtender Home chargers
const DefaultNamePrefix = "HOME"

// GATT maps characteristics to their service and characteristic UUIDs
type GATT struct {
	GenericService  string
	ChargingService string
	Characteristics map[Characteristic]string
}

// DefaultGATT returns the UUIDs of a Nexxtender Home charger
func DefaultGATT() GATT {
	return GATT{
		GenericService:  "fd47416a-95fb-4206-88b5-b4a8045f75c1",
		ChargingService: "fd47416a-95fb-4206-88b5-b4a8045f75cf",
		Characteristics: map[Characteristic]string{
			GenericCommand:   "fd47416a-95fb-4206-88b5-b4a8045f75c2",
			GenericStatus:    "fd47416a-95fb-4206-88b5-b4a8045f75c3",
			GenericData:      "fd47416a-95fb-4206-88b5-b4a8045f75c4",
			ChargingBasic:    "fd47416a-95fb-4206-88b5-b4a8045f75d0",
			ChargingGrid:     "fd47416a-95fb-4206-88b5-b4a8045f75d1",
			ChargingCar:      "fd47416a-95fb-4206-88b5-b4a8045f75d2",
			ChargingAdvanced: "fd47416a-95fb-4206-88b5-b4a8045f75d3",
		},
	}
}

// Service returns the service UUID hosting c
func (g GATT) Service(c Characteristic) string {
	switch c {
	case GenericCommand, GenericStatus, GenericData:
		return g.GenericService
	}
	return g.ChargingService
}
