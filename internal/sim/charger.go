// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

// Package sim provides an in-memory charger that answers the generic
// protocol and serves telemetry like a Nexxtender Home.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// expectation is the Data write the charger waits for after a command
type expectation int

const (
	expectNothing expectation = iota
	expectConfig
	expectTime
	expectBadgeDelete
)

// Charger is a simulated charger implementing transport.Link
type Charger struct {
	mu       sync.Mutex
	closed   bool
	variant  nexxtender.ConfigVariant
	config   nexxtender.Config
	offset   time.Duration
	now      func() time.Time
	badges   []nexxtender.Badge
	listIdx  int
	present  []nexxtender.Badge
	added    int
	charges  []nexxtender.ChargeRecord
	metrics  []nexxtender.MetricRecord
	data     []byte
	expect   expectation
	cborOps  bool
	basic    nexxtender.BasicData
	grid     nexxtender.GridData
	car      nexxtender.CarData
	advanced nexxtender.AdvancedData
	subs     map[transport.Characteristic][]chan []byte
}

// Option configures a Charger
type Option func(*Charger)

// WithClock sets the clock the charger time starts from
func WithClock(now func() time.Time) Option {
	return func(c *Charger) {
		c.now = now
	}
}

// WithBadges preloads the badge store
func WithBadges(badges ...nexxtender.Badge) Option {
	return func(c *Charger) {
		c.badges = append(c.badges, badges...)
	}
}

// WithChargeRecords preloads the charge-session history
func WithChargeRecords(records ...nexxtender.ChargeRecord) Option {
	return func(c *Charger) {
		c.charges = append(c.charges, records...)
	}
}

// WithMetricRecords preloads the periodic energy history
func WithMetricRecords(records ...nexxtender.MetricRecord) Option {
	return func(c *Charger) {
		c.metrics = append(c.metrics, records...)
	}
}

// NewCharger creates a simulated charger running the given firmware
// version, which selects its configuration encoding.
func NewCharger(firmware string, opts ...Option) (*Charger, error) {
	variant, err := nexxtender.ConfigVariantForFirmware(firmware)
	if err != nil {
		return nil, err
	}

	c := &Charger{
		variant: variant,
		now:     time.Now,
		subs:    make(map[transport.Characteristic][]chan []byte),
		config: nexxtender.Config{
			Variant:         variant,
			MaxGrid:         40,
			Mode:            nexxtender.ChargeModeEcoPrivate,
			SafeCurrent:     6,
			TouWeekStart:    1320,
			TouWeekEnd:      420,
			TouWeekendStart: 1320,
			TouWeekendEnd:   420,
			Valid:           true,
		},
	}
	if variant != nexxtender.ConfigLegacy {
		c.config.MaxDevice = 32
		c.config.NetworkType = nexxtender.NetworkTypeMonoTrin
	}
	if variant == nexxtender.ConfigCbor {
		c.config.MinDevice = 6
		c.config.ICapacity = 25
	}
	for _, opt := range opts {
		opt(c)
	}

	ts := uint32(c.now().Unix())
	c.basic = nexxtender.BasicData{Discriminator: nexxtender.DiscriminatorStopped, Status: nexxtender.ChargingStatusPlugged}
	c.grid = nexxtender.GridData{Timestamp: ts, L1: 52, L2: 31, L3: 18, Consumed: 2150, Interval: 10}
	c.car = nexxtender.CarData{Timestamp: ts}
	c.advanced = nexxtender.AdvancedData{Timestamp: ts, IAvailable: 160, GridPower: 2150,
		Authorization: nexxtender.AuthUnauthorized}
	return c, nil
}

// Variant returns the configuration encoding the charger speaks
func (c *Charger) Variant() nexxtender.ConfigVariant {
	return c.variant
}

// Config returns the stored configuration
func (c *Charger) Config() nexxtender.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Badges returns a copy of the badge store
func (c *Charger) Badges() []nexxtender.Badge {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]nexxtender.Badge(nil), c.badges...)
}

// Now returns the charger clock
func (c *Charger) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock()
}

// PresentBadge queues a badge to be presented during the next add
func (c *Charger) PresentBadge(b nexxtender.Badge) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present = append(c.present, b)
}

func (c *Charger) clock() time.Time {
	return c.now().Add(c.offset)
}

// ============================================================
// transport.Link
// ============================================================

// Read returns the current value of a readable characteristic
func (c *Charger) Read(ctx context.Context, ch transport.Characteristic) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, transport.ErrClosed
	}
	switch ch {
	case transport.GenericData:
		return append([]byte(nil), c.data...), nil
	case transport.ChargingBasic:
		return c.basic.Encode(), nil
	case transport.ChargingGrid:
		return c.grid.Encode(), nil
	case transport.ChargingCar:
		return c.car.Encode(), nil
	case transport.ChargingAdvanced:
		return c.advanced.Encode(), nil
	}
	return nil, fmt.Errorf("%s is not readable", ch)
}

// Write handles Command and Data writes
func (c *Charger) Write(ctx context.Context, ch transport.Characteristic, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return transport.ErrClosed
	}
	switch ch {
	case transport.GenericCommand:
		if len(data) != 2 {
			return fmt.Errorf("command must be 2 bytes, got %d", len(data))
		}
		c.command(nexxtender.OperationCode(uint16(data[0]) | uint16(data[1])<<8))
		return nil
	case transport.GenericData:
		c.dataWritten(data)
		return nil
	}
	return fmt.Errorf("%s is not writable", ch)
}

// Subscribe delivers notifications of ch until ctx is done or the charger
// is closed
func (c *Charger) Subscribe(ctx context.Context, ch transport.Characteristic) (<-chan []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, transport.ErrClosed
	}
	if ch != transport.GenericStatus {
		return nil, fmt.Errorf("%s does not notify", ch)
	}

	sub := make(chan []byte, 64)
	c.subs[ch] = append(c.subs[ch], sub)

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.subs[ch]
		for i, s := range subs {
			if s == sub {
				c.subs[ch] = append(subs[:i], subs[i+1:]...)
				close(sub)
				return
			}
		}
	}()
	return sub, nil
}

// Close closes every subscription
func (c *Charger) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	for ch, subs := range c.subs {
		for _, s := range subs {
			close(s)
		}
		delete(c.subs, ch)
	}
	return nil
}

// notify sends a status to every subscriber, dropping it for full ones
func (c *Charger) notify(code nexxtender.StatusCode) {
	for _, s := range c.subs[transport.GenericStatus] {
		select {
		case s <- code.Bytes():
		default:
		}
	}
}

// ============================================================
// Protocol
// ============================================================

func (c *Charger) command(op nexxtender.OperationCode) {
	switch op {
	case nexxtender.ConfigGet, nexxtender.ConfigCborGet:
		data, err := c.config.Encode()
		if err != nil {
			return
		}
		c.data = data
		c.cborOps = op == nexxtender.ConfigCborGet
		c.notify(c.configStatus(nexxtender.ConfigPopped, nexxtender.ConfigCborPopped))

	case nexxtender.ConfigSet, nexxtender.ConfigCborSet:
		c.expect = expectConfig
		c.cborOps = op == nexxtender.ConfigCborSet
		c.notify(c.configStatus(nexxtender.ConfigReady, nexxtender.ConfigCborReady))

	case nexxtender.TimeGet:
		c.data = nexxtender.NewTimeRecord(c.clock()).Encode()
		c.notify(nexxtender.TimePopped)

	case nexxtender.TimeSet:
		c.expect = expectTime
		c.notify(nexxtender.TimeReady)

	case nexxtender.BadgeListStart:
		c.listIdx = 0
		c.nextBadge()

	case nexxtender.BadgeListNext:
		c.nextBadge()

	case nexxtender.BadgeAddDefault, nexxtender.BadgeAddMax:
		c.notify(nexxtender.BadgeWaitAdd1)
		c.notify(nexxtender.BadgeWaitAdd2)
		c.addPresented()

	case nexxtender.BadgeDelete:
		c.expect = expectBadgeDelete
		c.notify(nexxtender.BadgeWaitDelete)

	case nexxtender.EventNext:
		if len(c.charges) == 0 {
			c.notify(nexxtender.EventEmpty)
			return
		}
		c.data = c.charges[0].Encode()
		c.charges = c.charges[1:]
		c.notify(nexxtender.EventPopped)

	case nexxtender.MetricNext:
		if len(c.metrics) == 0 {
			c.notify(nexxtender.MetricEmpty)
			return
		}
		c.data = c.metrics[0].Encode()
		c.metrics = c.metrics[1:]
		c.notify(nexxtender.MetricPopped)

	case nexxtender.LoaderStartChargingDefault, nexxtender.LoaderStartChargingAuto, nexxtender.LoaderStartChargingEco:
		c.startCharging(nexxtender.AuthAuthorizedDefault)
		c.notify(nexxtender.LoaderUnlocked)

	case nexxtender.LoaderStartChargingMax:
		c.startCharging(nexxtender.AuthAuthorizedMax)
		c.notify(nexxtender.LoaderUnlockedForce)

	case nexxtender.LoaderStopCharging:
		c.basic.Discriminator = nexxtender.DiscriminatorStopped
		c.basic.Status = nexxtender.ChargingStatusPlugged
		c.advanced.Authorization = nexxtender.AuthChargeStoppedInApp
		c.advanced.CarPower = 0
		c.car = nexxtender.CarData{Timestamp: uint32(c.clock().Unix())}
	}
}

func (c *Charger) configStatus(legacy, cbor nexxtender.StatusCode) nexxtender.StatusCode {
	if c.cborOps {
		return cbor
	}
	return legacy
}

func (c *Charger) dataWritten(data []byte) {
	expect := c.expect
	c.expect = expectNothing

	switch expect {
	case expectConfig:
		cfg, err := nexxtender.ParseConfig(data)
		if err != nil || cfg.Variant != c.variant {
			return
		}
		c.config = cfg
		c.notify(c.configStatus(nexxtender.ConfigSuccess, nexxtender.ConfigCborSuccess))

	case expectTime:
		rec, err := nexxtender.ParseTimeRecord(data)
		if err != nil {
			return
		}
		c.offset = rec.Time().Sub(c.now())
		c.notify(nexxtender.TimeSuccess)

	case expectBadgeDelete:
		badge, err := nexxtender.ParseBadge(data)
		if err != nil {
			return
		}
		for i, b := range c.badges {
			if b.Equal(badge) {
				c.badges = append(c.badges[:i], c.badges[i+1:]...)
				break
			}
		}

	default:
		c.data = append([]byte(nil), data...)
	}
}

func (c *Charger) nextBadge() {
	if c.listIdx >= len(c.badges) {
		c.notify(nexxtender.BadgeWaitFinish)
		return
	}
	data, err := c.badges[c.listIdx].Encode()
	if err != nil {
		return
	}
	c.data = data
	c.listIdx++
	c.notify(nexxtender.BadgeWaitNext)
}

// addPresented stores the next presented badge, or a generated one
func (c *Charger) addPresented() {
	var badge nexxtender.Badge
	if len(c.present) > 0 {
		badge = c.present[0]
		c.present = c.present[1:]
	} else {
		c.added++
		badge = nexxtender.Badge{ID: []byte{0x5A, 0x1D, byte(c.added >> 8), byte(c.added)}}
	}

	for _, b := range c.badges {
		if b.Equal(badge) {
			c.notify(nexxtender.BadgeExists)
			return
		}
	}
	c.badges = append(c.badges, badge)
	c.notify(nexxtender.BadgeAdded)
}

func (c *Charger) startCharging(auth nexxtender.AuthorizationStatus) {
	ts := uint32(c.clock().Unix())
	c.basic.Discriminator = nexxtender.DiscriminatorCharging
	c.basic.Status = nexxtender.ChargingStatusCharging
	c.advanced.Authorization = auth
	c.advanced.CarPower = 7200
	c.car = nexxtender.CarData{Timestamp: ts, L1: 100, L2: 100, L3: 100, P1: 2400, P2: 2400, P3: 2400}
}
