// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/FrankHJCuypers/gaai-sub000/internal/metrics"
	"github.com/FrankHJCuypers/gaai-sub000/internal/sim"
	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/generic"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// maxDecodeRetries bounds RetryRead after a Data payload fails to decode
const maxDecodeRetries = 2

// client is an open link with a session driving its generic service
type client struct {
	link      transport.Link
	info      string
	session   *generic.Session
	codes     <-chan nexxtender.StatusCode
	collector *metrics.Collector
	metrics   *http.Server

	cancel context.CancelFunc
}

// openClient connects and subscribes to status notifications before any
// command is written
func openClient(ctx context.Context) (*client, error) {
	link, info, err := OpenLink(ctx)
	if err != nil {
		return nil, err
	}

	variant, err := nexxtender.ConfigVariantForFirmware(settings.Device.Firmware)
	if err != nil {
		link.Close()
		return nil, err
	}
	if charger, ok := link.(*sim.Charger); ok {
		variant = charger.Variant()
	}

	subCtx, cancel := context.WithCancel(ctx)
	gt := transport.NewGenericTransport(link, newLinkLogger())
	codes, err := gt.SubscribeStatus(subCtx)
	if err != nil {
		cancel()
		link.Close()
		return nil, err
	}

	c := &client{
		link:      link,
		info:      info,
		codes:     codes,
		collector: metrics.NewCollector(),
		cancel:    cancel,
	}
	c.session = generic.New(gt,
		generic.WithLogger(newSessionLogger()),
		generic.WithObserver(c.collector),
		generic.WithConfigVariant(variant),
	)

	if settings.Metrics.Listen != "" {
		c.metrics = &http.Server{Addr: settings.Metrics.Listen, Handler: c.collector.Handler()}
		go func() {
			if err := c.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(os.Stderr, "Metrics server error: %v\n", err)
			}
		}()
	}

	return c, nil
}

// Close stops the subscription and closes the link
func (c *client) Close() {
	c.cancel()
	if c.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		c.metrics.Shutdown(shutdownCtx)
	}
	c.link.Close()
	if verbose {
		fmt.Fprint(os.Stderr, c.collector.Statistics().String())
	}
}

// await starts an operation and feeds status notifications to the session
// until done reports completion. done may return an error to abort.
func (c *client) await(ctx context.Context, start func(context.Context) error, done func(generic.Event) (bool, error)) error {
	return c.awaitFor(ctx, settings.OperationTimeout(), start, done)
}

// awaitFor is await with an explicit timeout
func (c *client) awaitFor(ctx context.Context, d time.Duration, start func(context.Context) error, done func(generic.Event) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	if err := start(ctx); err != nil {
		return err
	}

	for {
		var code nexxtender.StatusCode
		var ok bool
		select {
		case code, ok = <-c.codes:
			if !ok {
				return fmt.Errorf("status notifications closed: %w", generic.ErrStatusClosed)
			}
		case <-ctx.Done():
			state := c.session.State()
			c.session.Reset()
			return fmt.Errorf("operation timed out in state %s: %w", state, ctx.Err())
		}

		ev, err := c.session.FeedStatus(ctx, code)
		for retries := 0; err != nil && isDecodeError(err) && retries < maxDecodeRetries; retries++ {
			ev, err = c.session.RetryRead(ctx)
		}
		if err != nil {
			c.session.Reset()
			return err
		}
		if ev == nil {
			continue
		}

		finished, err := done(ev)
		if err != nil || finished {
			return err
		}
	}
}

func isDecodeError(err error) bool {
	var de *nexxtender.DecodeError
	return errors.As(err, &de)
}
