// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package generic

import "fmt"

// Family is the operation family currently owning the generic service
type Family int

// Operation families
const (
	FamilyNone Family = iota
	FamilyLoader
	FamilyEvent
	FamilyMetric
	FamilyBadge
	FamilyTime
	FamilyConfig
)

// String returns the family name
func (f Family) String() string {
	switch f {
	case FamilyNone:
		return "none"
	case FamilyLoader:
		return "loader"
	case FamilyEvent:
		return "event"
	case FamilyMetric:
		return "metric"
	case FamilyBadge:
		return "badge"
	case FamilyTime:
		return "time"
	case FamilyConfig:
		return "config"
	}
	return fmt.Sprintf("family_%d", int(f))
}

// State is the position of a Session in the current exchange
type State int

// Session states
const (
	Idle State = iota

	ConfigAwaitingPop
	ConfigAwaitingReady
	ConfigAwaitingSuccess

	TimeAwaitingPop
	TimeAwaitingReady
	TimeAwaitingSuccess

	BadgeAwaitingNext
	BadgeAwaitingAdd1
	BadgeAwaitingAdd2
	BadgeAwaitingAddResult
	BadgeAwaitingDelete

	EventAwaitingPop
	MetricAwaitingPop
)

var stateNames = map[State]string{
	Idle:                   "Idle",
	ConfigAwaitingPop:      "ConfigAwaitingPop",
	ConfigAwaitingReady:    "ConfigAwaitingReady",
	ConfigAwaitingSuccess:  "ConfigAwaitingSuccess",
	TimeAwaitingPop:        "TimeAwaitingPop",
	TimeAwaitingReady:      "TimeAwaitingReady",
	TimeAwaitingSuccess:    "TimeAwaitingSuccess",
	BadgeAwaitingNext:      "BadgeAwaitingNext",
	BadgeAwaitingAdd1:      "BadgeAwaitingAdd1",
	BadgeAwaitingAdd2:      "BadgeAwaitingAdd2",
	BadgeAwaitingAddResult: "BadgeAwaitingAddResult",
	BadgeAwaitingDelete:    "BadgeAwaitingDelete",
	EventAwaitingPop:       "EventAwaitingPop",
	MetricAwaitingPop:      "MetricAwaitingPop",
}

// String returns the state name
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Family returns the operation family the state belongs to
func (s State) Family() Family {
	switch s {
	case ConfigAwaitingPop, ConfigAwaitingReady, ConfigAwaitingSuccess:
		return FamilyConfig
	case TimeAwaitingPop, TimeAwaitingReady, TimeAwaitingSuccess:
		return FamilyTime
	case BadgeAwaitingNext, BadgeAwaitingAdd1, BadgeAwaitingAdd2, BadgeAwaitingAddResult, BadgeAwaitingDelete:
		return FamilyBadge
	case EventAwaitingPop:
		return FamilyEvent
	case MetricAwaitingPop:
		return FamilyMetric
	}
	return FamilyNone
}

// Settled reports whether a new operation may start. TimeAwaitingSuccess
// counts as settled because chargers rarely notify TIME_SUCCESS.
func (s State) Settled() bool {
	return s == Idle || s == TimeAwaitingSuccess
}
