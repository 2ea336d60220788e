// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import "time"

// TimeRecordSize is the length of a time record
const TimeRecordSize = 4

// TimeRecord carries the charger clock as Unix seconds
type TimeRecord struct {
	Timestamp uint32
}

// NewTimeRecord converts t to a time record
func NewTimeRecord(t time.Time) TimeRecord {
	return TimeRecord{Timestamp: uint32(t.Unix())}
}

// ParseTimeRecord decodes a 4-byte little-endian timestamp
func ParseTimeRecord(b []byte) (TimeRecord, error) {
	if err := checkLength("time", b, TimeRecordSize); err != nil {
		return TimeRecord{}, err
	}
	return TimeRecord{Timestamp: getUint32(b, 0)}, nil
}

// Encode returns the wire form of the record
func (r TimeRecord) Encode() []byte {
	return putUint32(make([]byte, TimeRecordSize), 0, r.Timestamp)
}

// Time returns the timestamp as a UTC time
func (r TimeRecord) Time() time.Time {
	return time.Unix(int64(r.Timestamp), 0).UTC()
}
