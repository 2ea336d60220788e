// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

// Package generic drives the Command/Status/Data handshake of the generic
// GATT service of a Nexxtender Home charger.
//
// A Session owns the conversation with one charger. Operations write a
// command and move the session into an awaiting state; every further step
// is driven by a Status notification fed through FeedStatus, usually by
// Run. Only one operation family may be in flight at a time.
//
// Example:
//
//	s := generic.New(transport, generic.WithConfigVariant(nexxtender.ConfigCbor))
//	go s.Run(ctx)
//	if err := s.GetConfig(ctx); err != nil {
//	    return err
//	}
//	for ev := range s.Events() {
//	    if cfg, ok := ev.(generic.ConfigEvent); ok {
//	        fmt.Print(nexxtender.FormatConfig(cfg.Config))
//	        break
//	    }
//	}
package generic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

var (
	// ErrBusy is returned when an operation is started while another is in flight
	ErrBusy = errors.New("another operation is in flight")

	// ErrConfigUnwritten is returned by SetConfig for a placeholder configuration
	ErrConfigUnwritten = errors.New("refusing to write an unwritten configuration")

	// ErrNothingToRetry is returned by RetryRead when no decode failed
	ErrNothingToRetry = errors.New("no failed read to retry")

	// ErrStatusClosed is returned by Run when the Status subscription ends
	ErrStatusClosed = errors.New("status subscription closed")
)

// StartMode selects the loader command used to start charging
type StartMode int

// Start modes
const (
	StartDefault StartMode = iota
	StartMax
	StartAuto
	StartEco
)

var startOperations = map[StartMode]nexxtender.OperationCode{
	StartDefault: nexxtender.LoaderStartChargingDefault,
	StartMax:     nexxtender.LoaderStartChargingMax,
	StartAuto:    nexxtender.LoaderStartChargingAuto,
	StartEco:     nexxtender.LoaderStartChargingEco,
}

// BadgeMode is the charge mode a new badge is registered with
type BadgeMode int

// Badge modes
const (
	BadgeModeDefault BadgeMode = iota
	BadgeModeMax
)

// Session is the single-owner conversation with one charger.
//
// Session is safe for concurrent use; calls are serialized.
type Session struct {
	transport Transport
	config    Config
	events    chan Event

	mu      sync.Mutex
	state   State
	retry   nexxtender.StatusCode
	badges  []nexxtender.Badge
	charges []nexxtender.ChargeRecord
	metrics []nexxtender.MetricRecord
	pending []byte
	target  nexxtender.Badge
	written nexxtender.Config
}

// New creates a Session on the given transport.
func New(transport Transport, opts ...Option) *Session {
	if transport == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		transport: transport,
		config:    cfg,
		events:    make(chan Event, cfg.EventBuffer),
	}
}

// State returns the current session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events returns the channel Run publishes events on
func (s *Session) Events() <-chan Event {
	return s.events
}

// Reset abandons any in-flight operation and returns to Idle with empty
// accumulators.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.state = Idle
	s.retry = 0
	s.badges = nil
	s.charges = nil
	s.metrics = nil
	s.pending = nil
	s.target = nexxtender.Badge{}
	s.written = nexxtender.Config{}
}

// Run subscribes to Status notifications and feeds them to the session in
// order, publishing resulting events on Events. It returns when ctx is done
// or the subscription closes; in the latter case the session is reset.
func (s *Session) Run(ctx context.Context) error {
	codes, err := s.transport.SubscribeStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to status: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case code, ok := <-codes:
			if !ok {
				s.Reset()
				return ErrStatusClosed
			}
			ev, err := s.FeedStatus(ctx, code)
			if err != nil {
				ev = FailureEvent{Err: err}
			}
			if ev == nil {
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// FeedStatus advances the state machine with one Status notification and
// returns the event it produced, if any.
//
// Unknown codes and codes not expected in the current state are logged and
// ignored. A Data payload that fails to decode returns a wrapped
// *nexxtender.DecodeError and leaves the state unchanged; use RetryRead or
// Reset. A transport failure resets the session to Idle.
func (s *Session) FeedStatus(ctx context.Context, code nexxtender.StatusCode) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if code == nexxtender.LoaderUnlocked || code == nexxtender.LoaderUnlockedForce {
		s.config.Observer.StatusObserved(code, AnomalyNone)
		s.config.Logger.Debug("loader unlocked", "status", code, "state", s.state)
		return UnlockEvent{Forced: code == nexxtender.LoaderUnlockedForce}, nil
	}

	if !code.Known() {
		s.config.Observer.StatusObserved(code, UnrecognizedStatusCode)
		s.config.Logger.Info("unrecognized status code", "status", code, "state", s.state)
		return nil, nil
	}

	step, ok := transitions[transition{s.state, code}]
	if !ok {
		s.config.Observer.StatusObserved(code, ProtocolStateViolation)
		s.config.Logger.Info("protocol state violation", "status", code, "state", s.state)
		return nil, nil
	}

	s.config.Observer.StatusObserved(code, AnomalyNone)
	s.config.Logger.Debug("status", "status", code, "state", s.state)
	return s.apply(ctx, code, step)
}

// RetryRead repeats the Data read whose decode failed last.
func (s *Session) RetryRead(ctx context.Context) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retry == 0 {
		return nil, ErrNothingToRetry
	}
	step, ok := transitions[transition{s.state, s.retry}]
	if !ok {
		s.retry = 0
		return nil, ErrNothingToRetry
	}
	return s.apply(ctx, s.retry, step)
}

func (s *Session) apply(ctx context.Context, code nexxtender.StatusCode, step stepFunc) (Event, error) {
	ev, err := step(s, ctx)
	var de *nexxtender.DecodeError
	switch {
	case err == nil:
		s.retry = 0
	case errors.As(err, &de):
		s.retry = code
		s.config.Logger.Error("failed to decode data", "status", code, "error", err)
	default:
		s.config.Logger.Error("transport failure, resetting session", "status", code, "error", err)
		s.reset()
	}
	return ev, err
}

// ============================================================
// Operations
// ============================================================

// GetConfig requests the charger configuration. A ConfigEvent follows.
func (s *Session) GetConfig(ctx context.Context) error {
	return s.start(ctx, s.configGetOperation(), ConfigAwaitingPop, nil)
}

// SetConfig writes cfg in the session's configuration variant. A
// ConfigWrittenEvent and then a ConfigEvent with the values read back
// follow. Nothing is sent when cfg is not Valid.
func (s *Session) SetConfig(ctx context.Context, cfg nexxtender.Config) error {
	if !cfg.Valid {
		return ErrConfigUnwritten
	}
	cfg.Variant = s.config.ConfigVariant
	data, err := cfg.Encode()
	if err != nil {
		return err
	}

	op := nexxtender.ConfigSet
	if cfg.Variant == nexxtender.ConfigCbor {
		op = nexxtender.ConfigCborSet
	}
	return s.start(ctx, op, ConfigAwaitingReady, func() {
		s.pending = data
		s.written = cfg
	})
}

// GetTime requests the charger clock. A TimeEvent follows.
func (s *Session) GetTime(ctx context.Context) error {
	return s.start(ctx, nexxtender.TimeGet, TimeAwaitingPop, nil)
}

// SyncTime sets the charger clock to the session clock. A TimeSetEvent
// follows once the charger is ready.
func (s *Session) SyncTime(ctx context.Context) error {
	return s.start(ctx, nexxtender.TimeSet, TimeAwaitingReady, nil)
}

// ListBadges requests the stored badges. A BadgeListEvent follows.
func (s *Session) ListBadges(ctx context.Context) error {
	return s.start(ctx, nexxtender.BadgeListStart, BadgeAwaitingNext, nil)
}

// AddBadge starts registering a badge. The charger asks for the badge to
// be presented twice (BadgePromptEvent), then reports BadgeAddedEvent or
// BadgeExistsEvent, after which the badge list is refreshed.
func (s *Session) AddBadge(ctx context.Context, mode BadgeMode) error {
	op := nexxtender.BadgeAddDefault
	if mode == BadgeModeMax {
		op = nexxtender.BadgeAddMax
	}
	return s.start(ctx, op, BadgeAwaitingAdd1, nil)
}

// DeleteBadge removes a badge. A BadgeDeleteSentEvent follows, then the
// badge list is refreshed.
func (s *Session) DeleteBadge(ctx context.Context, badge nexxtender.Badge) error {
	data, err := badge.Encode()
	if err != nil {
		return err
	}
	return s.start(ctx, nexxtender.BadgeDelete, BadgeAwaitingDelete, func() {
		s.pending = data
		s.target = badge
	})
}

// StartCharging writes a loader start command. Loader commands need no
// further exchange; an UnlockEvent may follow.
func (s *Session) StartCharging(ctx context.Context, mode StartMode) error {
	op, ok := startOperations[mode]
	if !ok {
		return fmt.Errorf("unknown start mode %d", mode)
	}
	return s.start(ctx, op, Idle, nil)
}

// StopCharging writes the loader stop command.
func (s *Session) StopCharging(ctx context.Context) error {
	return s.start(ctx, nexxtender.LoaderStopCharging, Idle, nil)
}

// ReadChargeRecords pops the charge-session history. A ChargeRecordsEvent
// follows once the charger reports it is empty.
func (s *Session) ReadChargeRecords(ctx context.Context) error {
	return s.start(ctx, nexxtender.EventNext, EventAwaitingPop, nil)
}

// ReadMetricRecords pops the periodic energy history. A MetricRecordsEvent
// follows once the charger reports it is empty.
func (s *Session) ReadMetricRecords(ctx context.Context) error {
	return s.start(ctx, nexxtender.MetricNext, MetricAwaitingPop, nil)
}

// start begins an operation from a settled state
func (s *Session) start(ctx context.Context, op nexxtender.OperationCode, next State, prepare func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Settled() {
		return fmt.Errorf("%w: %s in state %s", ErrBusy, op, s.state)
	}
	s.reset()
	if prepare != nil {
		prepare()
	}

	family := next.Family()
	if next == Idle {
		family = FamilyLoader
	}
	s.config.Observer.OperationStarted(family)
	s.config.Logger.Info("operation", "op", op, "family", family)

	if err := s.transport.WriteCommand(ctx, op.Bytes()); err != nil {
		s.reset()
		return fmt.Errorf("failed to write %s: %w", op, err)
	}
	s.state = next
	return nil
}

func (s *Session) configGetOperation() nexxtender.OperationCode {
	if s.config.ConfigVariant == nexxtender.ConfigCbor {
		return nexxtender.ConfigCborGet
	}
	return nexxtender.ConfigGet
}

// command writes a follow-up command within the running exchange
func (s *Session) command(ctx context.Context, op nexxtender.OperationCode, next State) error {
	if err := s.transport.WriteCommand(ctx, op.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s: %w", op, err)
	}
	s.state = next
	return nil
}

// readData reads the Data characteristic and decodes it with parse
func readData[T any](ctx context.Context, s *Session, record string, parse func([]byte) (T, error)) (T, error) {
	var zero T
	data, err := s.transport.ReadData(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to read %s data: %w", record, err)
	}
	v, err := parse(data)
	s.config.Observer.FrameDecoded(record, err)
	if err != nil {
		return zero, fmt.Errorf("failed to decode %s: %w", record, err)
	}
	return v, nil
}
