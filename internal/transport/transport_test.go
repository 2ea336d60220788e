// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package transport

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// ============================================================
// Test Doubles
// ============================================================

// memLink stores characteristic values and exposes one notification channel
type memLink struct {
	values map[Characteristic][]byte
	writes map[Characteristic][][]byte
	status chan []byte
	err    error
}

func newMemLink() *memLink {
	return &memLink{
		values: make(map[Characteristic][]byte),
		writes: make(map[Characteristic][][]byte),
		status: make(chan []byte, 8),
	}
}

func (m *memLink) Read(ctx context.Context, c Characteristic) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.values[c], nil
}

func (m *memLink) Write(ctx context.Context, c Characteristic, data []byte) error {
	m.writes[c] = append(m.writes[c], data)
	return nil
}

func (m *memLink) Subscribe(ctx context.Context, c Characteristic) (<-chan []byte, error) {
	if c != GenericStatus {
		return nil, errors.New("not notifiable")
	}
	return m.status, nil
}

func (m *memLink) Close() error { return nil }

// ============================================================
// Characteristic Tests
// ============================================================

func TestCharacteristic_String(t *testing.T) {
	if GenericStatus.String() != "generic_status" {
		t.Errorf("GenericStatus.String() = %q", GenericStatus.String())
	}
	if Characteristic(99).Valid() {
		t.Error("Characteristic(99) should not be valid")
	}
	if len(Characteristics) != len(characteristicNames) {
		t.Errorf("Characteristics lists %d entries, names %d", len(Characteristics), len(characteristicNames))
	}
}

func TestDefaultGATT(t *testing.T) {
	g := DefaultGATT()
	for _, c := range Characteristics {
		if g.Characteristics[c] == "" {
			t.Errorf("no UUID for %s", c)
		}
	}
	if g.Service(GenericData) != g.GenericService {
		t.Error("GenericData should live in the generic service")
	}
	if g.Service(ChargingGrid) != g.ChargingService {
		t.Error("ChargingGrid should live in the charging service")
	}
}

// ============================================================
// Generic Transport Tests
// ============================================================

func TestGenericTransport_Mapping(t *testing.T) {
	link := newMemLink()
	link.values[GenericData] = []byte{0x01, 0x02}
	gt := NewGenericTransport(link, nil)
	ctx := context.Background()

	if err := gt.WriteCommand(ctx, nexxtender.TimeGet.Bytes()); err != nil {
		t.Fatalf("WriteCommand failed: %v", err)
	}
	if err := gt.WriteData(ctx, []byte{0xAA}); err != nil {
		t.Fatalf("WriteData failed: %v", err)
	}
	data, err := gt.ReadData(ctx)
	if err != nil {
		t.Fatalf("ReadData failed: %v", err)
	}

	if !bytes.Equal(link.writes[GenericCommand][0], []byte{0x02, 0x04}) {
		t.Errorf("command write = % X", link.writes[GenericCommand][0])
	}
	if !bytes.Equal(link.writes[GenericData][0], []byte{0xAA}) {
		t.Errorf("data write = % X", link.writes[GenericData][0])
	}
	if !bytes.Equal(data, []byte{0x01, 0x02}) {
		t.Errorf("data read = % X", data)
	}
}

func TestGenericTransport_SubscribeStatus(t *testing.T) {
	link := newMemLink()
	var logs bytes.Buffer
	gt := NewGenericTransport(link, log.New(&logs, "", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	codes, err := gt.SubscribeStatus(ctx)
	if err != nil {
		t.Fatalf("SubscribeStatus failed: %v", err)
	}

	link.status <- nexxtender.BadgeWaitNext.Bytes()
	link.status <- []byte{0x01}
	link.status <- nexxtender.BadgeWaitFinish.Bytes()
	close(link.status)

	var got []nexxtender.StatusCode
	for code := range codes {
		got = append(got, code)
	}
	want := []nexxtender.StatusCode{nexxtender.BadgeWaitNext, nexxtender.BadgeWaitFinish}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("codes = %v, want %v", got, want)
	}
	if logs.Len() == 0 {
		t.Error("malformed notification was not logged")
	}
}

// ============================================================
// Telemetry Tests
// ============================================================

func TestReadTelemetry(t *testing.T) {
	link := newMemLink()
	basic := nexxtender.BasicData{Seconds: 90, Discriminator: nexxtender.DiscriminatorCharging,
		Status: nexxtender.ChargingStatusCharging, Energy: 1500}
	grid := nexxtender.GridData{Timestamp: 1700000000, L1: 100, L2: 90, L3: 80, Consumed: 5000, Interval: 10}
	car := nexxtender.CarData{Timestamp: 1700000000, L1: 60, P1: 1380}
	advanced := nexxtender.AdvancedData{Timestamp: 1700000000, IAvailable: 160, CarPower: 4140,
		Authorization: nexxtender.AuthAuthorizedDefault}

	link.values[ChargingBasic] = basic.Encode()
	link.values[ChargingGrid] = grid.Encode()
	link.values[ChargingCar] = car.Encode()
	link.values[ChargingAdvanced] = advanced.Encode()

	tel, err := ReadTelemetry(context.Background(), link)
	if err != nil {
		t.Fatalf("ReadTelemetry failed: %v", err)
	}
	if tel.Basic != basic || tel.Grid != grid || tel.Car != car || tel.Advanced != advanced {
		t.Errorf("ReadTelemetry = %+v", tel)
	}

	link.values[ChargingGrid] = link.values[ChargingGrid][:10]
	_, err = ReadTelemetry(context.Background(), link)
	if !nexxtender.IsKind(err, nexxtender.ErrorLengthMismatch) {
		t.Errorf("ReadTelemetry error = %v, want length mismatch", err)
	}
}

func TestParseCharacteristic(t *testing.T) {
	for _, c := range Characteristics {
		got, err := ParseCharacteristic(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCharacteristic(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCharacteristic("generic_foo"); err == nil {
		t.Error("ParseCharacteristic should reject unknown names")
	}
}
