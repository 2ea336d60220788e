// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package generic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// ============================================================
// Test Doubles
// ============================================================

// fakeTransport records writes and serves queued Data payloads
type fakeTransport struct {
	mu       sync.Mutex
	commands []nexxtender.OperationCode
	writes   [][]byte
	reads    [][]byte
	readErr  error
	writeErr error
	status   chan nexxtender.StatusCode
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{status: make(chan nexxtender.StatusCode, 16)}
}

func (f *fakeTransport) WriteCommand(ctx context.Context, op []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.commands = append(f.commands, nexxtender.OperationCode(uint16(op[0])|uint16(op[1])<<8))
	return nil
}

func (f *fakeTransport) ReadData(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	if len(f.reads) == 0 {
		return nil, errors.New("no data queued")
	}
	data := f.reads[0]
	f.reads = f.reads[1:]
	return data, nil
}

func (f *fakeTransport) WriteData(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) SubscribeStatus(ctx context.Context) (<-chan nexxtender.StatusCode, error) {
	return f.status, nil
}

func (f *fakeTransport) queue(data ...[]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, data...)
}

func (f *fakeTransport) lastCommand() nexxtender.OperationCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.commands) == 0 {
		return 0
	}
	return f.commands[len(f.commands)-1]
}

// recordingLogger keeps every message logged
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Debug(msg string, kv ...interface{}) { l.record(msg) }
func (l *recordingLogger) Info(msg string, kv ...interface{})  { l.record(msg) }
func (l *recordingLogger) Error(msg string, kv ...interface{}) { l.record(msg) }

func (l *recordingLogger) contains(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m == msg {
			return true
		}
	}
	return false
}

// recordingObserver counts anomalies and decodes
type recordingObserver struct {
	anomalies  map[Anomaly]int
	decodes    map[string]int
	operations map[Family]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		anomalies:  make(map[Anomaly]int),
		decodes:    make(map[string]int),
		operations: make(map[Family]int),
	}
}

func (o *recordingObserver) StatusObserved(code nexxtender.StatusCode, anomaly Anomaly) {
	o.anomalies[anomaly]++
}

func (o *recordingObserver) FrameDecoded(record string, err error) {
	if err == nil {
		o.decodes[record]++
	}
}

func (o *recordingObserver) OperationStarted(family Family) {
	o.operations[family]++
}

// ============================================================
// Test Helpers
// ============================================================

func newTestSession(t *testing.T, opts ...Option) (*Session, *fakeTransport, *recordingLogger) {
	t.Helper()
	tr := newFakeTransport()
	logger := &recordingLogger{}
	opts = append([]Option{WithLogger(logger)}, opts...)
	return New(tr, opts...), tr, logger
}

// feed feeds codes in order and returns every event produced
func feed(t *testing.T, s *Session, codes ...nexxtender.StatusCode) []Event {
	t.Helper()
	var events []Event
	for _, code := range codes {
		ev, err := s.FeedStatus(context.Background(), code)
		if err != nil {
			t.Fatalf("FeedStatus(%s) failed: %v", code, err)
		}
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

func expectState(t *testing.T, s *Session, want State) {
	t.Helper()
	if got := s.State(); got != want {
		t.Fatalf("state = %s, want %s", got, want)
	}
}

func testConfig() nexxtender.Config {
	return nexxtender.Config{
		Variant:       nexxtender.ConfigCbor,
		MaxGrid:       40,
		MaxDevice:     32,
		Mode:          nexxtender.ChargeModeEcoPrivate,
		SafeCurrent:   6,
		NetworkType:   nexxtender.NetworkTypeTri,
		TouWeekStart:  1320,
		TouWeekEnd:    420,
		TouWeekendEnd: 1440,
		MinDevice:     6,
		ICapacity:     25,
		Valid:         true,
	}
}

func mustEncode(t *testing.T, cfg nexxtender.Config) []byte {
	t.Helper()
	b, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return b
}

func badgeFrame(id ...byte) []byte {
	return append([]byte{byte(len(id))}, id...)
}

// ============================================================
// Configuration Tests
// ============================================================

func TestSession_GetConfig(t *testing.T) {
	s, tr, _ := newTestSession(t)
	want := testConfig()
	tr.queue(mustEncode(t, want))

	if err := s.GetConfig(context.Background()); err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if tr.lastCommand() != nexxtender.ConfigCborGet {
		t.Errorf("command = %s, want CONFIG_CBOR_GET", tr.lastCommand())
	}
	expectState(t, s, ConfigAwaitingPop)

	events := feed(t, s, nexxtender.ConfigCborPopped)
	expectState(t, s, Idle)

	if len(events) != 1 {
		t.Fatalf("got %d events, want exactly 1", len(events))
	}
	ev, ok := events[0].(ConfigEvent)
	if !ok {
		t.Fatalf("event = %T, want ConfigEvent", events[0])
	}
	if ev.Config != want {
		t.Errorf("config = %+v, want %+v", ev.Config, want)
	}

	// A duplicate POPPED must not publish the configuration twice
	if events := feed(t, s, nexxtender.ConfigCborPopped); len(events) != 0 {
		t.Errorf("duplicate status produced %d events", len(events))
	}
}

func TestSession_GetConfigLegacyCommand(t *testing.T) {
	s, tr, _ := newTestSession(t, WithConfigVariant(nexxtender.ConfigExtended))
	if err := s.GetConfig(context.Background()); err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if tr.lastCommand() != nexxtender.ConfigGet {
		t.Errorf("command = %s, want CONFIG_GET", tr.lastCommand())
	}
}

func TestSession_UnrelatedStatusIsIgnored(t *testing.T) {
	observer := newRecordingObserver()
	s, tr, logger := newTestSession(t, WithObserver(observer))
	tr.queue(mustEncode(t, testConfig()))

	if err := s.GetConfig(context.Background()); err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}

	if events := feed(t, s, nexxtender.BadgeWaitNext); len(events) != 0 {
		t.Errorf("unrelated status produced %d events", len(events))
	}
	expectState(t, s, ConfigAwaitingPop)
	if !logger.contains("protocol state violation") {
		t.Error("protocol state violation was not logged")
	}

	if events := feed(t, s, nexxtender.StatusCode(0x0999)); len(events) != 0 {
		t.Errorf("unknown status produced %d events", len(events))
	}
	expectState(t, s, ConfigAwaitingPop)
	if !logger.contains("unrecognized status code") {
		t.Error("unrecognized status code was not logged")
	}

	events := feed(t, s, nexxtender.ConfigCborPopped)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	expectState(t, s, Idle)

	if observer.anomalies[ProtocolStateViolation] != 1 {
		t.Errorf("violations = %d, want 1", observer.anomalies[ProtocolStateViolation])
	}
	if observer.anomalies[UnrecognizedStatusCode] != 1 {
		t.Errorf("unrecognized = %d, want 1", observer.anomalies[UnrecognizedStatusCode])
	}
	if observer.decodes["config"] != 1 {
		t.Errorf("config decodes = %d, want 1", observer.decodes["config"])
	}
}

func TestSession_SetConfig(t *testing.T) {
	s, tr, _ := newTestSession(t)
	cfg := testConfig()
	tr.queue(mustEncode(t, cfg))

	if err := s.SetConfig(context.Background(), cfg); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if tr.lastCommand() != nexxtender.ConfigCborSet {
		t.Errorf("command = %s, want CONFIG_CBOR_SET", tr.lastCommand())
	}
	expectState(t, s, ConfigAwaitingReady)

	feed(t, s, nexxtender.ConfigCborReady)
	expectState(t, s, ConfigAwaitingSuccess)
	if len(tr.writes) != 1 {
		t.Fatalf("got %d data writes, want 1", len(tr.writes))
	}
	written, err := nexxtender.ParseConfig(tr.writes[0])
	if err != nil {
		t.Fatalf("written config does not decode: %v", err)
	}
	if written != cfg {
		t.Errorf("written config = %+v, want %+v", written, cfg)
	}

	events := feed(t, s, nexxtender.ConfigCborSuccess)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if _, ok := events[0].(ConfigWrittenEvent); !ok {
		t.Errorf("event = %T, want ConfigWrittenEvent", events[0])
	}
	if tr.lastCommand() != nexxtender.ConfigCborGet {
		t.Errorf("resync command = %s, want CONFIG_CBOR_GET", tr.lastCommand())
	}
	expectState(t, s, ConfigAwaitingPop)

	events = feed(t, s, nexxtender.ConfigCborPopped)
	if _, ok := events[0].(ConfigEvent); !ok {
		t.Errorf("event = %T, want ConfigEvent", events[0])
	}
	expectState(t, s, Idle)
}

func TestSession_SetConfigUsesSessionVariant(t *testing.T) {
	s, tr, _ := newTestSession(t, WithConfigVariant(nexxtender.ConfigExtended))
	if err := s.SetConfig(context.Background(), testConfig()); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if tr.lastCommand() != nexxtender.ConfigSet {
		t.Errorf("command = %s, want CONFIG_SET", tr.lastCommand())
	}
	feed(t, s, nexxtender.ConfigReady)
	if len(tr.writes[0]) != nexxtender.ConfigExtendedSize {
		t.Errorf("written %d bytes, want %d", len(tr.writes[0]), nexxtender.ConfigExtendedSize)
	}
}

func TestSession_SetConfigUnwritten(t *testing.T) {
	s, tr, _ := newTestSession(t)
	err := s.SetConfig(context.Background(), nexxtender.Config{})
	if !errors.Is(err, ErrConfigUnwritten) {
		t.Fatalf("SetConfig error = %v, want ErrConfigUnwritten", err)
	}
	if len(tr.commands) != 0 {
		t.Errorf("sent %d commands for an unwritten config", len(tr.commands))
	}
	expectState(t, s, Idle)
}

func TestSession_DecodeFailureAndRetry(t *testing.T) {
	s, tr, _ := newTestSession(t)
	good := mustEncode(t, testConfig())
	tr.queue(corruptLast(good), good)

	if err := s.GetConfig(context.Background()); err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	_, err := s.FeedStatus(context.Background(), nexxtender.ConfigCborPopped)
	if !nexxtender.IsKind(err, nexxtender.ErrorChecksumMismatch) {
		t.Fatalf("FeedStatus error = %v, want checksum mismatch", err)
	}
	expectState(t, s, ConfigAwaitingPop)

	ev, err := s.RetryRead(context.Background())
	if err != nil {
		t.Fatalf("RetryRead failed: %v", err)
	}
	if _, ok := ev.(ConfigEvent); !ok {
		t.Errorf("event = %T, want ConfigEvent", ev)
	}
	expectState(t, s, Idle)

	if _, err := s.RetryRead(context.Background()); !errors.Is(err, ErrNothingToRetry) {
		t.Errorf("second RetryRead error = %v, want ErrNothingToRetry", err)
	}
}

func corruptLast(b []byte) []byte {
	out := append([]byte(nil), b...)
	out[len(out)-1] ^= 0xFF
	return out
}

// ============================================================
// Time Tests
// ============================================================

func TestSession_GetTime(t *testing.T) {
	s, tr, _ := newTestSession(t)
	tr.queue([]byte{0x00, 0xF1, 0x53, 0x65})

	if err := s.GetTime(context.Background()); err != nil {
		t.Fatalf("GetTime failed: %v", err)
	}
	events := feed(t, s, nexxtender.TimePopped)
	expectState(t, s, Idle)

	ev, ok := events[0].(TimeEvent)
	if !ok {
		t.Fatalf("event = %T, want TimeEvent", events[0])
	}
	if want := time.Unix(0x6553F100, 0).UTC(); !ev.Time.Equal(want) {
		t.Errorf("time = %v, want %v", ev.Time, want)
	}
}

func TestSession_SyncTime(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s, tr, _ := newTestSession(t, WithClock(func() time.Time { return now }))

	if err := s.SyncTime(context.Background()); err != nil {
		t.Fatalf("SyncTime failed: %v", err)
	}
	expectState(t, s, TimeAwaitingReady)

	events := feed(t, s, nexxtender.TimeReady)
	if _, ok := events[0].(TimeSetEvent); !ok {
		t.Fatalf("event = %T, want TimeSetEvent", events[0])
	}
	if !bytes.Equal(tr.writes[0], nexxtender.NewTimeRecord(now).Encode()) {
		t.Errorf("written time = % X", tr.writes[0])
	}
	expectState(t, s, TimeAwaitingSuccess)

	// SUCCESS is rarely notified, a new operation may start anyway
	if err := s.GetTime(context.Background()); err != nil {
		t.Fatalf("GetTime after sync failed: %v", err)
	}
	expectState(t, s, TimeAwaitingPop)
}

func TestSession_SyncTimeSuccess(t *testing.T) {
	s, _, _ := newTestSession(t)
	if err := s.SyncTime(context.Background()); err != nil {
		t.Fatalf("SyncTime failed: %v", err)
	}
	feed(t, s, nexxtender.TimeReady, nexxtender.TimeSuccess)
	expectState(t, s, Idle)
}

// ============================================================
// Badge Tests
// ============================================================

func TestSession_ListBadges(t *testing.T) {
	tests := []struct {
		name   string
		badges [][]byte
	}{
		{"empty", nil},
		{"one", [][]byte{{0x11, 0x22, 0x33, 0x44}}},
		{"three", [][]byte{{0x01}, {0x02, 0x03}, {0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tr, _ := newTestSession(t)
			var codes []nexxtender.StatusCode
			for _, id := range tt.badges {
				tr.queue(badgeFrame(id...))
				codes = append(codes, nexxtender.BadgeWaitNext)
			}
			codes = append(codes, nexxtender.BadgeWaitFinish)

			if err := s.ListBadges(context.Background()); err != nil {
				t.Fatalf("ListBadges failed: %v", err)
			}
			events := feed(t, s, codes...)
			expectState(t, s, Idle)

			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			list := events[0].(BadgeListEvent).Badges
			if len(list) != len(tt.badges) {
				t.Fatalf("got %d badges, want %d", len(list), len(tt.badges))
			}
			for i, id := range tt.badges {
				if !bytes.Equal(list[i].ID, id) {
					t.Errorf("badge %d = %s, want % X", i, list[i], id)
				}
			}

			// LIST_START then one LIST_NEXT per badge
			if len(tr.commands) != 1+len(tt.badges) {
				t.Errorf("sent %d commands, want %d", len(tr.commands), 1+len(tt.badges))
			}
		})
	}
}

func TestSession_AddBadge(t *testing.T) {
	tests := []struct {
		name   string
		mode   BadgeMode
		op     nexxtender.OperationCode
		result nexxtender.StatusCode
		want   Event
	}{
		{"default added", BadgeModeDefault, nexxtender.BadgeAddDefault, nexxtender.BadgeAdded, BadgeAddedEvent{}},
		{"max exists", BadgeModeMax, nexxtender.BadgeAddMax, nexxtender.BadgeExists, BadgeExistsEvent{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tr, _ := newTestSession(t)
			if err := s.AddBadge(context.Background(), tt.mode); err != nil {
				t.Fatalf("AddBadge failed: %v", err)
			}
			if tr.lastCommand() != tt.op {
				t.Errorf("command = %s, want %s", tr.lastCommand(), tt.op)
			}

			events := feed(t, s, nexxtender.BadgeWaitAdd1, nexxtender.BadgeWaitAdd2, tt.result)
			want := []Event{BadgePromptEvent{Step: 1}, BadgePromptEvent{Step: 2}, tt.want}
			if len(events) != len(want) {
				t.Fatalf("got %d events, want %d", len(events), len(want))
			}
			for i := range want {
				if events[i] != want[i] {
					t.Errorf("event %d = %#v, want %#v", i, events[i], want[i])
				}
			}

			// The list is refreshed after the result
			if tr.lastCommand() != nexxtender.BadgeListStart {
				t.Errorf("command = %s, want BADGE_LIST_START", tr.lastCommand())
			}
			expectState(t, s, BadgeAwaitingNext)

			tr.queue(badgeFrame(0xAA, 0xBB))
			events = feed(t, s, nexxtender.BadgeWaitNext, nexxtender.BadgeWaitFinish)
			if got := events[0].(BadgeListEvent).Badges; len(got) != 1 {
				t.Errorf("refreshed list has %d badges, want 1", len(got))
			}
		})
	}
}

func TestSession_DeleteBadge(t *testing.T) {
	s, tr, _ := newTestSession(t)
	badge := nexxtender.Badge{ID: []byte{0x11, 0x22, 0x33, 0x44}}

	if err := s.DeleteBadge(context.Background(), badge); err != nil {
		t.Fatalf("DeleteBadge failed: %v", err)
	}
	expectState(t, s, BadgeAwaitingDelete)

	events := feed(t, s, nexxtender.BadgeWaitDelete)
	ev, ok := events[0].(BadgeDeleteSentEvent)
	if !ok || !ev.Badge.Equal(badge) {
		t.Fatalf("event = %#v, want BadgeDeleteSentEvent", events[0])
	}
	if !bytes.Equal(tr.writes[0], []byte{0x04, 0x11, 0x22, 0x33, 0x44}) {
		t.Errorf("written badge = % X", tr.writes[0])
	}
	expectState(t, s, BadgeAwaitingNext)
}

func TestSession_DeleteBadgeTooLong(t *testing.T) {
	s, tr, _ := newTestSession(t)
	if err := s.DeleteBadge(context.Background(), nexxtender.Badge{ID: make([]byte, 300)}); err == nil {
		t.Fatal("DeleteBadge should reject an oversized id")
	}
	if len(tr.commands) != 0 {
		t.Errorf("sent %d commands", len(tr.commands))
	}
}

// ============================================================
// Loader Tests
// ============================================================

func TestSession_Loader(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *Session) error
		op   nexxtender.OperationCode
	}{
		{"default", func(s *Session) error { return s.StartCharging(context.Background(), StartDefault) }, nexxtender.LoaderStartChargingDefault},
		{"max", func(s *Session) error { return s.StartCharging(context.Background(), StartMax) }, nexxtender.LoaderStartChargingMax},
		{"auto", func(s *Session) error { return s.StartCharging(context.Background(), StartAuto) }, nexxtender.LoaderStartChargingAuto},
		{"eco", func(s *Session) error { return s.StartCharging(context.Background(), StartEco) }, nexxtender.LoaderStartChargingEco},
		{"stop", func(s *Session) error { return s.StopCharging(context.Background()) }, nexxtender.LoaderStopCharging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tr, _ := newTestSession(t)
			if err := tt.run(s); err != nil {
				t.Fatalf("loader command failed: %v", err)
			}
			if tr.lastCommand() != tt.op {
				t.Errorf("command = %s, want %s", tr.lastCommand(), tt.op)
			}
			expectState(t, s, Idle)
		})
	}
}

func TestSession_UnlockAcceptedInAnyState(t *testing.T) {
	s, _, _ := newTestSession(t)
	if err := s.ListBadges(context.Background()); err != nil {
		t.Fatalf("ListBadges failed: %v", err)
	}
	events := feed(t, s, nexxtender.LoaderUnlockedForce)
	if events[0] != (UnlockEvent{Forced: true}) {
		t.Errorf("event = %#v, want forced UnlockEvent", events[0])
	}
	expectState(t, s, BadgeAwaitingNext)
}

// ============================================================
// History Tests
// ============================================================

func TestSession_ReadChargeRecords(t *testing.T) {
	s, tr, _ := newTestSession(t)
	records := []nexxtender.ChargeRecord{
		{StartTime: 1000, StartEnergy: 10, StopTime: 2000, StopEnergy: 510},
		{Unknown1: 7, StartTime: 3000, StartEnergy: 510, StopTime: 4000, StopEnergy: 900, Unknown4: 3},
	}
	for _, r := range records {
		tr.queue(r.Encode())
	}

	if err := s.ReadChargeRecords(context.Background()); err != nil {
		t.Fatalf("ReadChargeRecords failed: %v", err)
	}
	events := feed(t, s, nexxtender.EventPopped, nexxtender.EventPopped, nexxtender.EventEmpty)
	expectState(t, s, Idle)

	got := events[0].(ChargeRecordsEvent).Records
	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i] != records[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], records[i])
		}
	}
}

func TestSession_ReadMetricRecords(t *testing.T) {
	s, tr, _ := newTestSession(t)
	rec := nexxtender.MetricRecord{Timestamp: 1700000000, Energy: 1234, EventType: nexxtender.MetricEventPeriodic}
	tr.queue(rec.Encode())

	if err := s.ReadMetricRecords(context.Background()); err != nil {
		t.Fatalf("ReadMetricRecords failed: %v", err)
	}
	events := feed(t, s, nexxtender.MetricPopped, nexxtender.MetricEmpty)

	got := events[0].(MetricRecordsEvent).Records
	if len(got) != 1 || got[0] != rec {
		t.Errorf("records = %+v, want [%+v]", got, rec)
	}
}

// ============================================================
// Session Lifecycle Tests
// ============================================================

func TestSession_Busy(t *testing.T) {
	s, _, _ := newTestSession(t)
	if err := s.GetConfig(context.Background()); err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if err := s.ListBadges(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("ListBadges error = %v, want ErrBusy", err)
	}

	s.Reset()
	expectState(t, s, Idle)
	if err := s.ListBadges(context.Background()); err != nil {
		t.Errorf("ListBadges after Reset failed: %v", err)
	}
}

func TestSession_TransportFailureResets(t *testing.T) {
	s, tr, _ := newTestSession(t)
	tr.queue(badgeFrame(0x01))
	if err := s.ListBadges(context.Background()); err != nil {
		t.Fatalf("ListBadges failed: %v", err)
	}
	tr.writeErr = errors.New("link lost")

	if _, err := s.FeedStatus(context.Background(), nexxtender.BadgeWaitNext); err == nil {
		t.Fatal("FeedStatus should fail when the command write fails")
	}
	expectState(t, s, Idle)
}

func TestSession_CommandFailure(t *testing.T) {
	s, tr, _ := newTestSession(t)
	tr.writeErr = errors.New("not connected")
	if err := s.GetTime(context.Background()); err == nil {
		t.Fatal("GetTime should fail")
	}
	expectState(t, s, Idle)
}

func TestSession_Run(t *testing.T) {
	s, tr, _ := newTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	tr.queue(badgeFrame(0x01, 0x02), []byte{0x05})
	if err := s.ListBadges(ctx); err != nil {
		t.Fatalf("ListBadges failed: %v", err)
	}
	tr.status <- nexxtender.BadgeWaitNext
	tr.status <- nexxtender.BadgeWaitNext
	tr.status <- nexxtender.BadgeWaitFinish

	var got []string
	for len(got) < 2 {
		select {
		case ev := <-s.Events():
			got = append(got, fmt.Sprintf("%T", ev))
		case <-ctx.Done():
			t.Fatalf("timed out, events so far: %v", got)
		}
	}
	want := []string{"generic.FailureEvent", "generic.BadgeListEvent"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	close(tr.status)
	if err := <-done; !errors.Is(err, ErrStatusClosed) {
		t.Errorf("Run error = %v, want ErrStatusClosed", err)
	}
	expectState(t, s, Idle)
}

func TestSession_RunDisconnectMidOperation(t *testing.T) {
	s, tr, _ := newTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	tr.queue(badgeFrame(0x11, 0x22, 0x33, 0x44))
	if err := s.ListBadges(ctx); err != nil {
		t.Fatalf("ListBadges failed: %v", err)
	}
	tr.status <- nexxtender.BadgeWaitNext

	accumulated := func() int {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.badges)
	}
	for accumulated() != 1 {
		select {
		case <-ctx.Done():
			t.Fatal("timed out waiting for the first badge")
		case <-time.After(time.Millisecond):
		}
	}
	expectState(t, s, BadgeAwaitingNext)

	close(tr.status)
	if err := <-done; !errors.Is(err, ErrStatusClosed) {
		t.Fatalf("Run error = %v, want ErrStatusClosed", err)
	}
	expectState(t, s, Idle)
	if n := accumulated(); n != 0 {
		t.Errorf("accumulated badges after disconnect = %d, want 0", n)
	}

	// A fresh listing starts from an empty accumulator
	if err := s.ListBadges(ctx); err != nil {
		t.Fatalf("ListBadges after disconnect failed: %v", err)
	}
	ev, err := s.FeedStatus(ctx, nexxtender.BadgeWaitFinish)
	if err != nil {
		t.Fatalf("FeedStatus failed: %v", err)
	}
	if list, ok := ev.(BadgeListEvent); !ok || len(list.Badges) != 0 {
		t.Errorf("event = %#v, want empty BadgeListEvent", ev)
	}
}
