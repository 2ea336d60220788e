// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/generic"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// Counters are the session totals
type Counters struct {
	Statuses         uint64
	Unrecognized     uint64
	Violations       uint64
	Frames           uint64
	ChecksumErrors   uint64
	LengthMismatches uint64
	StructureErrors  uint64
	Operations       uint64
}

// FrameErrors returns the number of frames that failed to decode
func (c Counters) FrameErrors() uint64 {
	return c.ChecksumErrors + c.LengthMismatches + c.StructureErrors
}

// Statistics tracks session totals and error rates
type Statistics struct {
	mu        sync.Mutex
	startTime time.Time
	counters  Counters
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

func (s *Statistics) status(anomaly generic.Anomaly) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Statuses++
	switch anomaly {
	case generic.UnrecognizedStatusCode:
		s.counters.Unrecognized++
	case generic.ProtocolStateViolation:
		s.counters.Violations++
	}
}

func (s *Statistics) frame(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Frames++
	switch {
	case err == nil:
	case nexxtender.IsKind(err, nexxtender.ErrorChecksumMismatch):
		s.counters.ChecksumErrors++
	case nexxtender.IsKind(err, nexxtender.ErrorLengthMismatch):
		s.counters.LengthMismatches++
	default:
		s.counters.StructureErrors++
	}
}

func (s *Statistics) operation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Operations++
}

// Snapshot returns a copy of the counters
func (s *Statistics) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	snap := s.Snapshot()
	frameErrors := snap.FrameErrors()

	var errorPercent float64
	if snap.Frames > 0 {
		errorPercent = float64(frameErrors) * 100.0 / float64(snap.Frames)
	}

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", time.Since(s.startTime).Seconds())
	result += fmt.Sprintf("Operations:      %8d\n", snap.Operations)
	result += fmt.Sprintf("Status Codes:    %8d\n", snap.Statuses)
	if snap.Unrecognized > 0 {
		result += fmt.Sprintf("  Unrecognized:     %5d\n", snap.Unrecognized)
	}
	if snap.Violations > 0 {
		result += fmt.Sprintf("  Out of State:     %5d\n", snap.Violations)
	}
	result += fmt.Sprintf("Data Frames:     %8d\n", snap.Frames)
	if frameErrors > 0 {
		result += fmt.Sprintf("Frame Errors:    %8d (%.1f%%)\n", frameErrors, errorPercent)
		if snap.ChecksumErrors > 0 {
			result += fmt.Sprintf("  CRC Mismatch:     %5d\n", snap.ChecksumErrors)
		}
		if snap.LengthMismatches > 0 {
			result += fmt.Sprintf("  Length Mismatch:  %5d\n", snap.LengthMismatches)
		}
		if snap.StructureErrors > 0 {
			result += fmt.Sprintf("  Structure:        %5d\n", snap.StructureErrors)
		}
	}
	return result
}
