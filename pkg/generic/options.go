// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package generic

import (
	"time"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// Logger is an optional logging interface for the session. A *slog.Logger
// satisfies it as is.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Anomaly classifies a Status notification the session ignored
type Anomaly int

// Anomalies
const (
	AnomalyNone Anomaly = iota
	UnrecognizedStatusCode
	ProtocolStateViolation
)

// String returns the anomaly name
func (a Anomaly) String() string {
	switch a {
	case AnomalyNone:
		return "none"
	case UnrecognizedStatusCode:
		return "unrecognized_status_code"
	case ProtocolStateViolation:
		return "protocol_state_violation"
	}
	return "unknown"
}

// Observer receives session activity, e.g. for metrics. Calls are made
// with the session lock held and must return quickly.
type Observer interface {
	// StatusObserved is called for every status fed to the session
	StatusObserved(code nexxtender.StatusCode, anomaly Anomaly)

	// FrameDecoded is called after every Data payload decode
	FrameDecoded(record string, err error)

	// OperationStarted is called when a command is written for family
	OperationStarted(family Family)
}

type nopObserver struct{}

func (nopObserver) StatusObserved(nexxtender.StatusCode, Anomaly) {}
func (nopObserver) FrameDecoded(string, error)                    {}
func (nopObserver) OperationStarted(Family)                       {}

// Config holds the session configuration.
type Config struct {
	// Logger receives anomalies and transitions (optional)
	Logger Logger

	// Observer receives session activity (optional)
	Observer Observer

	// Clock returns the time written by SyncTime
	Clock func() time.Time

	// ConfigVariant selects the configuration commands and encoding
	ConfigVariant nexxtender.ConfigVariant

	// EventBuffer is the capacity of the Events channel
	EventBuffer int
}

func defaultConfig() Config {
	return Config{
		Logger:        nopLogger{},
		Observer:      nopObserver{},
		Clock:         time.Now,
		ConfigVariant: nexxtender.ConfigCbor,
		EventBuffer:   16,
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithLogger sets the session logger.
//
// Example:
//
//	s := generic.New(transport, generic.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithObserver sets the session observer.
func WithObserver(observer Observer) Option {
	return func(c *Config) {
		if observer != nil {
			c.Observer = observer
		}
	}
}

// WithClock sets the clock used by SyncTime.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithConfigVariant sets the configuration encoding the charger speaks,
// usually from nexxtender.ConfigVariantForFirmware. Default is CBOR.
//
// Example:
//
//	variant, _ := nexxtender.ConfigVariantForFirmware("3.49.1")
//	s := generic.New(transport, generic.WithConfigVariant(variant))
func WithConfigVariant(variant nexxtender.ConfigVariant) Option {
	return func(c *Config) {
		c.ConfigVariant = variant
	}
}

// WithEventBuffer sets the capacity of the Events channel.
func WithEventBuffer(size int) Option {
	return func(c *Config) {
		if size >= 0 {
			c.EventBuffer = size
		}
	}
}
