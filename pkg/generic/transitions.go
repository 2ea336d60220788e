// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package generic

import (
	"context"
	"fmt"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

type transition struct {
	from State
	code nexxtender.StatusCode
}

type stepFunc func(s *Session, ctx context.Context) (Event, error)

// transitions lists every status a state accepts. Loader unlock codes are
// handled before the table and accepted in any state.
var transitions = map[transition]stepFunc{
	{ConfigAwaitingPop, nexxtender.ConfigPopped}:          (*Session).onConfigPopped,
	{ConfigAwaitingPop, nexxtender.ConfigCborPopped}:      (*Session).onConfigPopped,
	{ConfigAwaitingReady, nexxtender.ConfigReady}:         (*Session).onConfigReady,
	{ConfigAwaitingReady, nexxtender.ConfigCborReady}:     (*Session).onConfigReady,
	{ConfigAwaitingSuccess, nexxtender.ConfigSuccess}:     (*Session).onConfigSuccess,
	{ConfigAwaitingSuccess, nexxtender.ConfigCborSuccess}: (*Session).onConfigSuccess,
	{TimeAwaitingPop, nexxtender.TimePopped}:              (*Session).onTimePopped,
	{TimeAwaitingReady, nexxtender.TimeReady}:             (*Session).onTimeReady,
	{TimeAwaitingSuccess, nexxtender.TimeSuccess}:         (*Session).onTimeSuccess,
	{BadgeAwaitingNext, nexxtender.BadgeWaitNext}:         (*Session).onBadgeNext,
	{BadgeAwaitingNext, nexxtender.BadgeWaitFinish}:       (*Session).onBadgeFinish,
	{BadgeAwaitingAdd1, nexxtender.BadgeWaitAdd1}:         (*Session).onBadgeFirstPrompt,
	{BadgeAwaitingAdd2, nexxtender.BadgeWaitAdd2}:         (*Session).onBadgeSecondPrompt,
	{BadgeAwaitingAdd2, nexxtender.BadgeAdded}:            (*Session).onBadgeAdded,
	{BadgeAwaitingAdd2, nexxtender.BadgeExists}:           (*Session).onBadgeExists,
	{BadgeAwaitingAddResult, nexxtender.BadgeAdded}:       (*Session).onBadgeAdded,
	{BadgeAwaitingAddResult, nexxtender.BadgeExists}:      (*Session).onBadgeExists,
	{BadgeAwaitingDelete, nexxtender.BadgeWaitDelete}:     (*Session).onBadgeDelete,
	{EventAwaitingPop, nexxtender.EventPopped}:            (*Session).onChargeRecord,
	{EventAwaitingPop, nexxtender.EventEmpty}:             (*Session).onChargeRecordsEmpty,
	{MetricAwaitingPop, nexxtender.MetricPopped}:          (*Session).onMetricRecord,
	{MetricAwaitingPop, nexxtender.MetricEmpty}:           (*Session).onMetricRecordsEmpty,
}

// ============================================================
// Configuration
// ============================================================

func (s *Session) onConfigPopped(ctx context.Context) (Event, error) {
	cfg, err := readData(ctx, s, "config", nexxtender.ParseConfig)
	if err != nil {
		return nil, err
	}
	s.state = Idle
	return ConfigEvent{Config: cfg}, nil
}

func (s *Session) onConfigReady(ctx context.Context) (Event, error) {
	if err := s.transport.WriteData(ctx, s.pending); err != nil {
		return nil, fmt.Errorf("failed to write config data: %w", err)
	}
	s.state = ConfigAwaitingSuccess
	return nil, nil
}

// onConfigSuccess reads the configuration back to resynchronize
func (s *Session) onConfigSuccess(ctx context.Context) (Event, error) {
	written := s.written
	s.pending = nil
	if err := s.command(ctx, s.configGetOperation(), ConfigAwaitingPop); err != nil {
		return nil, err
	}
	return ConfigWrittenEvent{Config: written}, nil
}

// ============================================================
// Time
// ============================================================

func (s *Session) onTimePopped(ctx context.Context) (Event, error) {
	rec, err := readData(ctx, s, "time", nexxtender.ParseTimeRecord)
	if err != nil {
		return nil, err
	}
	s.state = Idle
	return TimeEvent{Time: rec.Time()}, nil
}

func (s *Session) onTimeReady(ctx context.Context) (Event, error) {
	rec := nexxtender.NewTimeRecord(s.config.Clock())
	if err := s.transport.WriteData(ctx, rec.Encode()); err != nil {
		return nil, fmt.Errorf("failed to write time data: %w", err)
	}
	s.state = TimeAwaitingSuccess
	return TimeSetEvent{Time: rec.Time()}, nil
}

func (s *Session) onTimeSuccess(ctx context.Context) (Event, error) {
	s.state = Idle
	return nil, nil
}

// ============================================================
// Badges
// ============================================================

func (s *Session) onBadgeNext(ctx context.Context) (Event, error) {
	badge, err := readData(ctx, s, "badge", nexxtender.ParseBadge)
	if err != nil {
		return nil, err
	}
	s.badges = append(s.badges, badge)
	if err := s.command(ctx, nexxtender.BadgeListNext, BadgeAwaitingNext); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Session) onBadgeFinish(ctx context.Context) (Event, error) {
	badges := s.badges
	if badges == nil {
		badges = []nexxtender.Badge{}
	}
	s.badges = nil
	s.state = Idle
	return BadgeListEvent{Badges: badges}, nil
}

func (s *Session) onBadgeFirstPrompt(ctx context.Context) (Event, error) {
	s.state = BadgeAwaitingAdd2
	return BadgePromptEvent{Step: 1}, nil
}

func (s *Session) onBadgeSecondPrompt(ctx context.Context) (Event, error) {
	s.state = BadgeAwaitingAddResult
	return BadgePromptEvent{Step: 2}, nil
}

func (s *Session) onBadgeAdded(ctx context.Context) (Event, error) {
	if err := s.refreshBadges(ctx); err != nil {
		return nil, err
	}
	return BadgeAddedEvent{}, nil
}

func (s *Session) onBadgeExists(ctx context.Context) (Event, error) {
	if err := s.refreshBadges(ctx); err != nil {
		return nil, err
	}
	return BadgeExistsEvent{}, nil
}

func (s *Session) onBadgeDelete(ctx context.Context) (Event, error) {
	if err := s.transport.WriteData(ctx, s.pending); err != nil {
		return nil, fmt.Errorf("failed to write badge data: %w", err)
	}
	target := s.target
	s.pending = nil
	if err := s.refreshBadges(ctx); err != nil {
		return nil, err
	}
	return BadgeDeleteSentEvent{Badge: target}, nil
}

// refreshBadges restarts the list so that a BadgeListEvent reflects the change
func (s *Session) refreshBadges(ctx context.Context) error {
	s.badges = nil
	return s.command(ctx, nexxtender.BadgeListStart, BadgeAwaitingNext)
}

// ============================================================
// History
// ============================================================

func (s *Session) onChargeRecord(ctx context.Context) (Event, error) {
	rec, err := readData(ctx, s, "charge", nexxtender.ParseChargeRecord)
	if err != nil {
		return nil, err
	}
	s.charges = append(s.charges, rec)
	return nil, s.command(ctx, nexxtender.EventNext, EventAwaitingPop)
}

func (s *Session) onChargeRecordsEmpty(ctx context.Context) (Event, error) {
	records := s.charges
	if records == nil {
		records = []nexxtender.ChargeRecord{}
	}
	s.charges = nil
	s.state = Idle
	return ChargeRecordsEvent{Records: records}, nil
}

func (s *Session) onMetricRecord(ctx context.Context) (Event, error) {
	rec, err := readData(ctx, s, "metric", nexxtender.ParseMetricRecord)
	if err != nil {
		return nil, err
	}
	s.metrics = append(s.metrics, rec)
	return nil, s.command(ctx, nexxtender.MetricNext, MetricAwaitingPop)
}

func (s *Session) onMetricRecordsEmpty(ctx context.Context) (Event, error) {
	records := s.metrics
	if records == nil {
		records = []nexxtender.MetricRecord{}
	}
	s.metrics = nil
	s.state = Idle
	return MetricRecordsEvent{Records: records}, nil
}
