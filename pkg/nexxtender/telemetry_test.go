// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import "testing"

// ============================================================
// Basic Data Tests
// ============================================================

func validBasicData() []byte {
	return []byte{
		0x2C, 0x01, // seconds = 300
		0x02,       // CHARGING
		'C',        // charging
		0, 0, 0, 0, // reserved
		0, 0, 0, 0, // reserved
		0xE8, 0x03, // energy = 1000Wh
	}
}

func TestParseBasicData_Valid(t *testing.T) {
	d, err := ParseBasicData(validBasicData())
	if err != nil {
		t.Fatalf("ParseBasicData failed: %v", err)
	}
	want := BasicData{
		Seconds:       300,
		Discriminator: DiscriminatorCharging,
		Status:        ChargingStatusCharging,
		Energy:        1000,
	}
	if d != want {
		t.Errorf("ParseBasicData = %+v, want %+v", d, want)
	}
}

func TestParseBasicData_ReservedNonZero(t *testing.T) {
	for _, i := range []int{4, 7, 8, 11} {
		b := validBasicData()
		b[i] = 0x01
		_, err := ParseBasicData(b)
		expectKind(t, err, ErrorReservedFieldNonZero)
	}
}

func TestParseBasicData_UnknownCodes(t *testing.T) {
	b := validBasicData()
	b[2] = 0x09
	b[3] = 'Z'
	d, err := ParseBasicData(b)
	if err != nil {
		t.Fatalf("unknown codes must not fail the decode: %v", err)
	}
	if d.Discriminator != DiscriminatorUnknown {
		t.Errorf("Discriminator = %v, want UNKNOWN", d.Discriminator)
	}
	if d.Status != ChargingStatusUnknown {
		t.Errorf("Status = %v, want UNKNOWN", d.Status)
	}
}

func TestBasicData_RoundTrip(t *testing.T) {
	tests := []BasicData{
		{Seconds: 1, Discriminator: DiscriminatorStarted, Status: ChargingStatusPlugged, Energy: 0},
		{Seconds: 65535, Discriminator: DiscriminatorStopped, Status: ChargingStatusFault, Energy: 22000},
		{Seconds: 10, Discriminator: DiscriminatorUnknown, Status: ChargingStatusUnknown, Energy: 7},
	}
	for _, want := range tests {
		got, err := ParseBasicData(want.Encode())
		if err != nil {
			t.Fatalf("ParseBasicData(%+v.Encode()) failed: %v", want, err)
		}
		if got != want {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	}
}

// ============================================================
// CRC-protected Snapshot Tests
// ============================================================

func TestParseGridData_Valid(t *testing.T) {
	b := withCRC(
		0x00, 0x5E, 0xD0, 0xB2, // timestamp
		0x64, 0x00, // L1 = 10.0A
		0x9C, 0xFF, // L2 = -10.0A
		0x00, 0x00, // L3
		0xD0, 0x07, // consumed = 2000W
		0x0A, 0x00, // interval = 10s
	)
	d, err := ParseGridData(b)
	if err != nil {
		t.Fatalf("ParseGridData failed: %v", err)
	}
	want := GridData{Timestamp: 0xB2D05E00, L1: 100, L2: -100, L3: 0, Consumed: 2000, Interval: 10}
	if d != want {
		t.Errorf("ParseGridData = %+v, want %+v", d, want)
	}
}

func TestFixedRecords_LengthAndChecksum(t *testing.T) {
	tests := []struct {
		name  string
		valid []byte
		parse func([]byte) error
	}{
		{
			name:  "grid data",
			valid: GridData{Timestamp: 1700000000, L1: 160, L2: 150, L3: 140, Consumed: 9000, Interval: 5}.Encode(),
			parse: func(b []byte) error { _, err := ParseGridData(b); return err },
		},
		{
			name:  "car data",
			valid: CarData{Timestamp: 1700000000, L1: 160, P1: 3680}.Encode(),
			parse: func(b []byte) error { _, err := ParseCarData(b); return err },
		},
		{
			name:  "advanced data",
			valid: AdvancedData{Timestamp: 1700000000, IAvailable: 320, GridPower: -1200, CarPower: 7400}.Encode(),
			parse: func(b []byte) error { _, err := ParseAdvancedData(b); return err },
		},
		{
			name:  "metric record",
			valid: MetricRecord{Timestamp: 1700000000, Energy: 123456, EventType: MetricEventPeriodic}.Encode(),
			parse: func(b []byte) error { _, err := ParseMetricRecord(b); return err },
		},
		{
			name:  "charge record",
			valid: ChargeRecord{StartTime: 1700000000, StopTime: 1700003600, StartEnergy: 1000, StopEnergy: 8000}.Encode(),
			parse: func(b []byte) error { _, err := ParseChargeRecord(b); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.parse(tt.valid); err != nil {
				t.Fatalf("valid frame rejected: %v", err)
			}
			for _, b := range lengthVariants(tt.valid) {
				expectKind(t, tt.parse(b), ErrorLengthMismatch)
			}
			for _, i := range []int{0, len(tt.valid) / 2, len(tt.valid) - 1} {
				expectKind(t, tt.parse(corrupt(tt.valid, i)), ErrorChecksumMismatch)
			}
		})
	}
}

func TestBasicData_WrongLength(t *testing.T) {
	for _, b := range lengthVariants(validBasicData()) {
		_, err := ParseBasicData(b)
		expectKind(t, err, ErrorLengthMismatch)
	}
}

func TestCarData_RoundTrip(t *testing.T) {
	want := CarData{Timestamp: 1700000123, L1: 161, L2: -5, L3: 159, P1: 3700, P2: -12, P3: 3650}
	got, err := ParseCarData(want.Encode())
	if err != nil {
		t.Fatalf("ParseCarData failed: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestAdvancedData_RoundTrip(t *testing.T) {
	tests := []AdvancedData{
		{Timestamp: 1, IAvailable: 320, GridPower: -4000, CarPower: 11000,
			Authorization: AuthAuthorizedDefault, ErrorCode: 0},
		{Timestamp: 2, IAvailable: -1, GridPower: 2147483647, CarPower: -2147483648,
			Authorization: AuthAuthorizedMax | AuthChargePausedInApp | 0x80, ErrorCode: 0x42},
	}
	for _, want := range tests {
		got, err := ParseAdvancedData(want.Encode())
		if err != nil {
			t.Fatalf("ParseAdvancedData failed: %v", err)
		}
		if got != want {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	}
}

// ============================================================
// Authorization Status Tests
// ============================================================

func TestAuthorizationStatus_Has(t *testing.T) {
	a := AuthAuthorizedMax | AuthChargeStoppedInApp
	if !a.Has(AuthAuthorizedMax) || !a.Has(AuthChargeStoppedInApp) {
		t.Error("expected both raised flags to be reported")
	}
	if a.Has(AuthUnauthorized) {
		t.Error("UNAUTHORIZED should not be set")
	}
	if a.Has(AuthAuthorizedMax | AuthUnauthorized) {
		t.Error("Has must require every bit of a combined flag")
	}
}

func TestAuthorizationStatus_String(t *testing.T) {
	tests := []struct {
		status AuthorizationStatus
		want   string
	}{
		{0, "NONE"},
		{AuthUnauthorized, "UNAUTHORIZED"},
		{AuthAuthorizedMax | AuthChargePausedInApp, "AUTHORIZED_MAX|CHARGE_PAUSED_IN_APP"},
		{AuthAuthorizedDefault | 0x80, "AUTHORIZED_DEFAULT|0x80"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("AuthorizationStatus(0x%02X).String() = %q, want %q", uint8(tt.status), got, tt.want)
		}
	}
}
