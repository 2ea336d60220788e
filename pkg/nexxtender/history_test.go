// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import "testing"

func TestParseMetricRecord_Layout(t *testing.T) {
	b := withCRC(
		0x80, 0xF0, 0x53, 0x65, // timestamp
		0x40, 0xE2, 0x01, 0x00, // energy = 123456
		'S',              // session start
		0x11, 0x22, 0x33, // unknown1..3
		0x44, 0x55, // unknown4
	)
	r, err := ParseMetricRecord(b)
	if err != nil {
		t.Fatalf("ParseMetricRecord failed: %v", err)
	}
	want := MetricRecord{
		Timestamp: 0x6553F080,
		Energy:    123456,
		EventType: MetricEventSessionStart,
		Unknown1:  0x11,
		Unknown2:  0x22,
		Unknown3:  0x33,
		Unknown4:  0x5544,
	}
	if r != want {
		t.Errorf("ParseMetricRecord = %+v, want %+v", r, want)
	}
}

func TestMetricRecord_RoundTrip(t *testing.T) {
	tests := []MetricRecord{
		{Timestamp: 1, Energy: 0, EventType: MetricEventPeriodic},
		{Timestamp: 2, Energy: 99, EventType: MetricEventSessionEnd, Unknown1: 0xFF, Unknown4: 0xFFFF},
		{Timestamp: 3, Energy: 4294967295, EventType: MetricEventUnknown, Unknown2: 7, Unknown3: 9},
	}
	for _, want := range tests {
		got, err := ParseMetricRecord(want.Encode())
		if err != nil {
			t.Fatalf("ParseMetricRecord failed: %v", err)
		}
		if got != want {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	}
}

func TestChargeRecord_PreservesUnknownFields(t *testing.T) {
	want := ChargeRecord{
		Unknown1:    0xDEADBEEF,
		StartTime:   1700000000,
		StartEnergy: 250000,
		StopTime:    1700007200,
		StopEnergy:  261500,
		Unknown2:    0x01020304,
		Unknown3:    0xA5A5A5A5,
		Unknown4:    0xBEEF,
	}
	b := want.Encode()
	if len(b) != ChargeRecordSize {
		t.Fatalf("Encode length = %d, want %d", len(b), ChargeRecordSize)
	}
	got, err := ParseChargeRecord(b)
	if err != nil {
		t.Fatalf("ParseChargeRecord failed: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
	if got.Energy() != 11500 {
		t.Errorf("Energy() = %d, want 11500", got.Energy())
	}
}
