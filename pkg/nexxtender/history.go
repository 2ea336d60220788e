// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

// Record lengths
const (
	MetricRecordSize = 16
	ChargeRecordSize = 32
)

// MetricEventType is the ASCII-coded kind of a periodic energy record
type MetricEventType int

// Metric event types
const (
	MetricEventUnknown MetricEventType = iota
	MetricEventPeriodic
	MetricEventSessionStart
	MetricEventSessionEnd
)

var metricEventCodes = map[uint8]MetricEventType{
	'P': MetricEventPeriodic,
	'S': MetricEventSessionStart,
	'E': MetricEventSessionEnd,
}

// MetricRecord is a periodic energy tick popped from the Metric queue.
// The Unknown fields have no known meaning and are kept as received.
type MetricRecord struct {
	Timestamp uint32
	Energy    uint32 // Wh, cumulative
	EventType MetricEventType
	Unknown1  uint8
	Unknown2  uint8
	Unknown3  uint8
	Unknown4  uint16
}

// ParseMetricRecord decodes a periodic energy record
func ParseMetricRecord(b []byte) (MetricRecord, error) {
	if err := checkLength("metric record", b, MetricRecordSize); err != nil {
		return MetricRecord{}, err
	}
	if err := checkCRC("metric record", b); err != nil {
		return MetricRecord{}, err
	}
	return MetricRecord{
		Timestamp: getUint32(b, 0),
		Energy:    getUint32(b, 4),
		EventType: metricEventCodes[b[8]],
		Unknown1:  b[9],
		Unknown2:  b[10],
		Unknown3:  b[11],
		Unknown4:  getUint16(b, 12),
	}, nil
}

// Encode returns the wire form of the record, checksum included
func (r MetricRecord) Encode() []byte {
	b := make([]byte, MetricRecordSize)
	putUint32(b, 0, r.Timestamp)
	putUint32(b, 4, r.Energy)
	b[8] = reverseCode(metricEventCodes, r.EventType)
	b[9] = r.Unknown1
	b[10] = r.Unknown2
	b[11] = r.Unknown3
	putUint16(b, 12, r.Unknown4)
	return appendCRC(b)
}

// ChargeRecord summarizes one charge session popped from the Event queue.
// The Unknown fields have no known meaning and are kept as received.
type ChargeRecord struct {
	Unknown1    uint32
	StartTime   uint32
	StartEnergy uint32 // Wh
	StopTime    uint32
	StopEnergy  uint32 // Wh
	Unknown2    uint32
	Unknown3    uint32
	Unknown4    uint16
}

// Energy returns the energy delivered during the session in Wh
func (r ChargeRecord) Energy() uint32 {
	return r.StopEnergy - r.StartEnergy
}

// ParseChargeRecord decodes a charge session record
func ParseChargeRecord(b []byte) (ChargeRecord, error) {
	if err := checkLength("charge record", b, ChargeRecordSize); err != nil {
		return ChargeRecord{}, err
	}
	if err := checkCRC("charge record", b); err != nil {
		return ChargeRecord{}, err
	}
	return ChargeRecord{
		Unknown1:    getUint32(b, 0),
		StartTime:   getUint32(b, 4),
		StartEnergy: getUint32(b, 8),
		StopTime:    getUint32(b, 12),
		StopEnergy:  getUint32(b, 16),
		Unknown2:    getUint32(b, 20),
		Unknown3:    getUint32(b, 24),
		Unknown4:    getUint16(b, 28),
	}, nil
}

// Encode returns the wire form of the record, checksum included
func (r ChargeRecord) Encode() []byte {
	b := make([]byte, ChargeRecordSize)
	putUint32(b, 0, r.Unknown1)
	putUint32(b, 4, r.StartTime)
	putUint32(b, 8, r.StartEnergy)
	putUint32(b, 12, r.StopTime)
	putUint32(b, 16, r.StopEnergy)
	putUint32(b, 20, r.Unknown2)
	putUint32(b, 24, r.Unknown3)
	putUint16(b, 28, r.Unknown4)
	return appendCRC(b)
}
