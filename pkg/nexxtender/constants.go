// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

// Package nexxtender provides a Go implementation of the binary records
// exchanged with a Nexxtender Home charger over BLE.
//
// The package covers the CRC-16/MODBUS checksum, the charging telemetry
// snapshots, the historical records, badge and time records and the three
// configuration encodings (legacy, extended and CBOR). All functions are
// pure and safe for concurrent use.
package nexxtender

import "fmt"

// Category is the high byte of an operation or status code
type Category uint8

// Code categories
const (
	CategoryLoader Category = 0x00
	CategoryEvent  Category = 0x01
	CategoryMetric Category = 0x02
	CategoryBadge  Category = 0x03
	CategoryTime   Category = 0x04
	CategoryConfig Category = 0x05
)

// String returns the category name
func (c Category) String() string {
	switch c {
	case CategoryLoader:
		return "loader"
	case CategoryEvent:
		return "event"
	case CategoryMetric:
		return "metric"
	case CategoryBadge:
		return "badge"
	case CategoryTime:
		return "time"
	case CategoryConfig:
		return "config"
	}
	return fmt.Sprintf("category_0x%02X", uint8(c))
}

// OperationCode is written to the Command characteristic
type OperationCode uint16

// Operation codes
const (
	LoaderStartChargingDefault OperationCode = 0x0001
	LoaderStartChargingMax     OperationCode = 0x0002
	LoaderStartChargingAuto    OperationCode = 0x0003
	LoaderStartChargingEco     OperationCode = 0x0004
	LoaderStopCharging         OperationCode = 0x0006

	EventNext  OperationCode = 0x0101
	MetricNext OperationCode = 0x0201

	BadgeAddDefault OperationCode = 0x0301
	BadgeAddMax     OperationCode = 0x0302
	BadgeDelete     OperationCode = 0x0303
	BadgeListStart  OperationCode = 0x0304
	BadgeListNext   OperationCode = 0x0305

	TimeSet OperationCode = 0x0401
	TimeGet OperationCode = 0x0402

	ConfigSet     OperationCode = 0x0501
	ConfigGet     OperationCode = 0x0502
	ConfigCborSet OperationCode = 0x0503
	ConfigCborGet OperationCode = 0x0504
)

var operationNames = map[OperationCode]string{
	LoaderStartChargingDefault: "LOADER_START_CHARGING_DEFAULT",
	LoaderStartChargingMax:     "LOADER_START_CHARGING_MAX",
	LoaderStartChargingAuto:    "LOADER_START_CHARGING_AUTO",
	LoaderStartChargingEco:     "LOADER_START_CHARGING_ECO",
	LoaderStopCharging:         "LOADER_STOP_CHARGING",
	EventNext:                  "EVENT_NEXT",
	MetricNext:                 "METRIC_NEXT",
	BadgeAddDefault:            "BADGE_ADD_DEFAULT",
	BadgeAddMax:                "BADGE_ADD_MAX",
	BadgeDelete:                "BADGE_DELETE",
	BadgeListStart:             "BADGE_LIST_START",
	BadgeListNext:              "BADGE_LIST_NEXT",
	TimeSet:                    "TIME_SET",
	TimeGet:                    "TIME_GET",
	ConfigSet:                  "CONFIG_SET",
	ConfigGet:                  "CONFIG_GET",
	ConfigCborSet:              "CONFIG_CBOR_SET",
	ConfigCborGet:              "CONFIG_CBOR_GET",
}

// Category returns the high byte of the code
func (o OperationCode) Category() Category {
	return Category(o >> 8)
}

// Bytes returns the little-endian wire form written to the Command characteristic
func (o OperationCode) Bytes() []byte {
	return putUint16(make([]byte, 2), 0, uint16(o))
}

// String returns the protocol name of the operation
func (o OperationCode) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OPERATION_0x%04X", uint16(o))
}

// StatusCode is notified on the Status characteristic
type StatusCode uint16

// Status codes
const (
	LoaderUnlocked      StatusCode = 0x0001
	LoaderUnlockedForce StatusCode = 0x0002

	EventPopped StatusCode = 0x0101
	EventEmpty  StatusCode = 0x0102

	MetricPopped StatusCode = 0x0201
	MetricEmpty  StatusCode = 0x0202

	BadgeWaitAdd1   StatusCode = 0x0301
	BadgeWaitAdd2   StatusCode = 0x0302
	BadgeAdded      StatusCode = 0x0303
	BadgeExists     StatusCode = 0x0304
	BadgeWaitDelete StatusCode = 0x0305
	BadgeWaitNext   StatusCode = 0x0306
	BadgeWaitFinish StatusCode = 0x0307

	TimeReady   StatusCode = 0x0401
	TimeSuccess StatusCode = 0x0402
	TimePopped  StatusCode = 0x0403

	ConfigReady       StatusCode = 0x0501
	ConfigSuccess     StatusCode = 0x0502
	ConfigPopped      StatusCode = 0x0503
	ConfigCborReady   StatusCode = 0x0504
	ConfigCborSuccess StatusCode = 0x0505
	ConfigCborPopped  StatusCode = 0x0506
)

var statusNames = map[StatusCode]string{
	LoaderUnlocked:      "LOADER_UNLOCKED",
	LoaderUnlockedForce: "LOADER_UNLOCKED_FORCE",
	EventPopped:         "EVENT_POPPED",
	EventEmpty:          "EVENT_EMPTY",
	MetricPopped:        "METRIC_POPPED",
	MetricEmpty:         "METRIC_EMPTY",
	BadgeWaitAdd1:       "BADGE_WAIT_ADD_1",
	BadgeWaitAdd2:       "BADGE_WAIT_ADD_2",
	BadgeAdded:          "BADGE_ADDED",
	BadgeExists:         "BADGE_EXISTS",
	BadgeWaitDelete:     "BADGE_WAIT_DELETE",
	BadgeWaitNext:       "BADGE_WAIT_NEXT",
	BadgeWaitFinish:     "BADGE_WAIT_FINISH",
	TimeReady:           "TIME_READY",
	TimeSuccess:         "TIME_SUCCESS",
	TimePopped:          "TIME_POPPED",
	ConfigReady:         "CONFIG_READY",
	ConfigSuccess:       "CONFIG_SUCCESS",
	ConfigPopped:        "CONFIG_POPPED",
	ConfigCborReady:     "CONFIG_CBOR_READY",
	ConfigCborSuccess:   "CONFIG_CBOR_SUCCESS",
	ConfigCborPopped:    "CONFIG_CBOR_POPPED",
}

// ParseStatusCode decodes the little-endian payload of a Status notification
func ParseStatusCode(b []byte) (StatusCode, error) {
	if len(b) != 2 {
		return 0, newDecodeError(ErrorLengthMismatch, "status", "expected 2 bytes, got %d", len(b))
	}
	return StatusCode(getUint16(b, 0)), nil
}

// Category returns the high byte of the code
func (s StatusCode) Category() Category {
	return Category(s >> 8)
}

// Known reports whether the code is one the protocol defines
func (s StatusCode) Known() bool {
	_, ok := statusNames[s]
	return ok
}

// Bytes returns the little-endian wire form notified on the Status characteristic
func (s StatusCode) Bytes() []byte {
	return putUint16(make([]byte, 2), 0, uint16(s))
}

// String returns the protocol name of the status
func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS_0x%04X", uint16(s))
}
