// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package generic

import (
	"time"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// Event is something a Session publishes while reacting to Status
// notifications. The set of events is closed.
type Event interface {
	isEvent()
}

// ConfigEvent carries a configuration read from the charger
type ConfigEvent struct {
	Config nexxtender.Config
}

// ConfigWrittenEvent reports that the charger accepted a new configuration.
// A ConfigEvent with the resynchronized values follows.
type ConfigWrittenEvent struct {
	Config nexxtender.Config
}

// TimeEvent carries the charger clock
type TimeEvent struct {
	Time time.Time
}

// TimeSetEvent reports that the host time was written to the charger
type TimeSetEvent struct {
	Time time.Time
}

// BadgeListEvent carries the badges known to the charger, in the order
// the charger listed them
type BadgeListEvent struct {
	Badges []nexxtender.Badge
}

// BadgePromptEvent asks the user to present the badge (Step 1 or 2)
type BadgePromptEvent struct {
	Step int
}

// BadgeAddedEvent reports that the presented badge was stored
type BadgeAddedEvent struct{}

// BadgeExistsEvent reports that the presented badge was already known
type BadgeExistsEvent struct{}

// BadgeDeleteSentEvent reports that the badge to delete was written
type BadgeDeleteSentEvent struct {
	Badge nexxtender.Badge
}

// UnlockEvent reports a loader unlock acknowledgement
type UnlockEvent struct {
	Forced bool
}

// ChargeRecordsEvent carries the charge-session history
type ChargeRecordsEvent struct {
	Records []nexxtender.ChargeRecord
}

// MetricRecordsEvent carries the periodic energy history
type MetricRecordsEvent struct {
	Records []nexxtender.MetricRecord
}

// FailureEvent is published by Run when reacting to a status failed
type FailureEvent struct {
	Err error
}

func (ConfigEvent) isEvent()          {}
func (ConfigWrittenEvent) isEvent()   {}
func (TimeEvent) isEvent()            {}
func (TimeSetEvent) isEvent()         {}
func (BadgeListEvent) isEvent()       {}
func (BadgePromptEvent) isEvent()     {}
func (BadgeAddedEvent) isEvent()      {}
func (BadgeExistsEvent) isEvent()     {}
func (BadgeDeleteSentEvent) isEvent() {}
func (UnlockEvent) isEvent()          {}
func (ChargeRecordsEvent) isEvent()   {}
func (MetricRecordsEvent) isEvent()   {}
func (FailureEvent) isEvent()         {}
