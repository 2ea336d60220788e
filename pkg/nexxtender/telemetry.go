// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import (
	"fmt"
	"strings"
)

// Record lengths
const (
	BasicDataSize    = 14
	GridDataSize     = 16
	CarDataSize      = 18
	AdvancedDataSize = 18
)

// Discriminator tells where in a charge session a basic snapshot was taken
type Discriminator int

// Discriminator values
const (
	DiscriminatorUnknown Discriminator = iota
	DiscriminatorStarted
	DiscriminatorCharging
	DiscriminatorStopped
)

var discriminatorCodes = map[uint8]Discriminator{
	1: DiscriminatorStarted,
	2: DiscriminatorCharging,
	3: DiscriminatorStopped,
}

// ChargingStatus is the ASCII-coded charger state of a basic snapshot
type ChargingStatus int

// Charging status values
const (
	ChargingStatusUnknown ChargingStatus = iota
	ChargingStatusPlugged
	ChargingStatusCharging
	ChargingStatusFault
)

var chargingStatusCodes = map[uint8]ChargingStatus{
	'B': ChargingStatusPlugged,
	'C': ChargingStatusCharging,
	'E': ChargingStatusFault,
}

// BasicData is the 14-byte basic charging snapshot
type BasicData struct {
	Seconds       uint16
	Discriminator Discriminator
	Status        ChargingStatus
	Energy        uint16 // Wh in the current session
}

// ParseBasicData decodes a basic charging snapshot.
// The record has no checksum; instead bytes 4-11 are two reserved words
// that must be zero.
func ParseBasicData(b []byte) (BasicData, error) {
	if err := checkLength("basic data", b, BasicDataSize); err != nil {
		return BasicData{}, err
	}
	if !allZero(b, 4, 4) || !allZero(b, 8, 4) {
		return BasicData{}, newDecodeError(ErrorReservedFieldNonZero, "basic data",
			"reserved bytes 4-11 not zero: % X", b[4:12])
	}
	return BasicData{
		Seconds:       getUint16(b, 0),
		Discriminator: discriminatorCodes[b[2]],
		Status:        chargingStatusCodes[b[3]],
		Energy:        getUint16(b, 12),
	}, nil
}

// Encode returns the wire form of the snapshot
func (d BasicData) Encode() []byte {
	b := make([]byte, BasicDataSize)
	putUint16(b, 0, d.Seconds)
	b[2] = reverseCode(discriminatorCodes, d.Discriminator)
	b[3] = reverseCode(chargingStatusCodes, d.Status)
	putUint16(b, 12, d.Energy)
	return b
}

// GridData is the grid current snapshot. Currents are in deci-amps.
type GridData struct {
	Timestamp uint32
	L1        int16
	L2        int16
	L3        int16
	Consumed  int16  // W
	Interval  uint16 // s
}

// ParseGridData decodes a grid snapshot
func ParseGridData(b []byte) (GridData, error) {
	if err := checkLength("grid data", b, GridDataSize); err != nil {
		return GridData{}, err
	}
	if err := checkCRC("grid data", b); err != nil {
		return GridData{}, err
	}
	return GridData{
		Timestamp: getUint32(b, 0),
		L1:        getInt16(b, 4),
		L2:        getInt16(b, 6),
		L3:        getInt16(b, 8),
		Consumed:  getInt16(b, 10),
		Interval:  getUint16(b, 12),
	}, nil
}

// Encode returns the wire form of the snapshot, checksum included
func (d GridData) Encode() []byte {
	b := make([]byte, GridDataSize)
	putUint32(b, 0, d.Timestamp)
	putUint16(b, 4, uint16(d.L1))
	putUint16(b, 6, uint16(d.L2))
	putUint16(b, 8, uint16(d.L3))
	putUint16(b, 10, uint16(d.Consumed))
	putUint16(b, 12, d.Interval)
	return appendCRC(b)
}

// CarData is the car-side snapshot. Currents are in deci-amps, powers in W.
type CarData struct {
	Timestamp uint32
	L1        int16
	L2        int16
	L3        int16
	P1        int16
	P2        int16
	P3        int16
}

// ParseCarData decodes a car snapshot
func ParseCarData(b []byte) (CarData, error) {
	if err := checkLength("car data", b, CarDataSize); err != nil {
		return CarData{}, err
	}
	if err := checkCRC("car data", b); err != nil {
		return CarData{}, err
	}
	return CarData{
		Timestamp: getUint32(b, 0),
		L1:        getInt16(b, 4),
		L2:        getInt16(b, 6),
		L3:        getInt16(b, 8),
		P1:        getInt16(b, 10),
		P2:        getInt16(b, 12),
		P3:        getInt16(b, 14),
	}, nil
}

// Encode returns the wire form of the snapshot, checksum included
func (d CarData) Encode() []byte {
	b := make([]byte, CarDataSize)
	putUint32(b, 0, d.Timestamp)
	putUint16(b, 4, uint16(d.L1))
	putUint16(b, 6, uint16(d.L2))
	putUint16(b, 8, uint16(d.L3))
	putUint16(b, 10, uint16(d.P1))
	putUint16(b, 12, uint16(d.P2))
	putUint16(b, 14, uint16(d.P3))
	return appendCRC(b)
}

// AuthorizationStatus is a bit set; several flags may be raised at once
type AuthorizationStatus uint8

// Authorization flags
const (
	AuthUnauthorized       AuthorizationStatus = 1 << 0
	AuthAuthorizedDefault  AuthorizationStatus = 1 << 1
	AuthAuthorizedMax      AuthorizationStatus = 1 << 2
	AuthChargeStoppedInApp AuthorizationStatus = 1 << 3
	AuthChargePausedInApp  AuthorizationStatus = 1 << 4
)

var authorizationNames = []struct {
	flag AuthorizationStatus
	name string
}{
	{AuthUnauthorized, "UNAUTHORIZED"},
	{AuthAuthorizedDefault, "AUTHORIZED_DEFAULT"},
	{AuthAuthorizedMax, "AUTHORIZED_MAX"},
	{AuthChargeStoppedInApp, "CHARGE_STOPPED_IN_APP"},
	{AuthChargePausedInApp, "CHARGE_PAUSED_IN_APP"},
}

// Has reports whether every bit of flag is set
func (a AuthorizationStatus) Has(flag AuthorizationStatus) bool {
	return a&flag == flag
}

// String lists the raised flags, e.g. "AUTHORIZED_MAX|CHARGE_PAUSED_IN_APP"
func (a AuthorizationStatus) String() string {
	if a == 0 {
		return "NONE"
	}
	var parts []string
	rest := a
	for _, n := range authorizationNames {
		if a.Has(n.flag) {
			parts = append(parts, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%02X", uint8(rest)))
	}
	return strings.Join(parts, "|")
}

// AdvancedData is the advanced charging snapshot
type AdvancedData struct {
	Timestamp     uint32
	IAvailable    int16 // deci-amps
	GridPower     int32 // W
	CarPower      int32 // W
	Authorization AuthorizationStatus
	ErrorCode     uint8
}

// ParseAdvancedData decodes an advanced snapshot
func ParseAdvancedData(b []byte) (AdvancedData, error) {
	if err := checkLength("advanced data", b, AdvancedDataSize); err != nil {
		return AdvancedData{}, err
	}
	if err := checkCRC("advanced data", b); err != nil {
		return AdvancedData{}, err
	}
	return AdvancedData{
		Timestamp:     getUint32(b, 0),
		IAvailable:    getInt16(b, 4),
		GridPower:     getInt32(b, 6),
		CarPower:      getInt32(b, 10),
		Authorization: AuthorizationStatus(b[14]),
		ErrorCode:     b[15],
	}, nil
}

// Encode returns the wire form of the snapshot, checksum included
func (d AdvancedData) Encode() []byte {
	b := make([]byte, AdvancedDataSize)
	putUint32(b, 0, d.Timestamp)
	putUint16(b, 4, uint16(d.IAvailable))
	putUint32(b, 6, uint32(d.GridPower))
	putUint32(b, 10, uint32(d.CarPower))
	b[14] = uint8(d.Authorization)
	b[15] = d.ErrorCode
	return appendCRC(b)
}

// unknownCode is written for enumerations that decoded to their Unknown value
const unknownCode = 0xFF

// reverseCode finds the wire code of v in table, or unknownCode
func reverseCode[T comparable](table map[uint8]T, v T) uint8 {
	for code, value := range table {
		if value == v {
			return code
		}
	}
	return unknownCode
}
