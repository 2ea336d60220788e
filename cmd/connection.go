// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/FrankHJCuypers/gaai-sub000/internal/sim"
	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
	"github.com/FrankHJCuypers/gaai-sub000/internal/transport/ble"
	"github.com/FrankHJCuypers/gaai-sub000/internal/transport/wsbridge"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// OpenSimulatedCharger creates an in-memory charger seeded with sample data
func OpenSimulatedCharger(firmware string) (*sim.Charger, error) {
	now := time.Now().UTC()
	start := uint32(now.Add(-26 * time.Hour).Unix())
	stop := uint32(now.Add(-22 * time.Hour).Unix())

	return sim.NewCharger(firmware,
		sim.WithBadges(nexxtender.Badge{ID: []byte{0x04, 0xA2, 0x3C, 0x11}}),
		sim.WithChargeRecords(nexxtender.ChargeRecord{
			StartTime:   start,
			StartEnergy: 1_204_500,
			StopTime:    stop,
			StopEnergy:  1_226_100,
		}),
		sim.WithMetricRecords(
			nexxtender.MetricRecord{Timestamp: start, Energy: 1_204_500, EventType: nexxtender.MetricEventSessionStart},
			nexxtender.MetricRecord{Timestamp: stop, Energy: 1_226_100, EventType: nexxtender.MetricEventSessionEnd},
		),
	)
}

// OpenBridgeConnection connects to a WebSocket bridge with HTTP Basic auth
func OpenBridgeConnection(ctx context.Context, logger *log.Logger) (*wsbridge.Link, error) {
	password := ""
	if settings.Bridge.Username != "" {
		var err error
		password, err = GetPassword()
		if err != nil {
			return nil, err
		}
	}

	return wsbridge.Dial(ctx, settings.Bridge.URL, wsbridge.Options{
		Username:         settings.Bridge.Username,
		Password:         password,
		SkipSSLVerify:    settings.Bridge.NoSSLVerify,
		HandshakeTimeout: settings.ConnectTimeout(),
		Logger:           logger,
	})
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("GAAI_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenLink opens a simulated, WebSocket or BLE link based on settings
func OpenLink(ctx context.Context) (transport.Link, string, error) {
	logger := newLinkLogger()

	if simulate {
		charger, err := OpenSimulatedCharger(settings.Device.Firmware)
		if err != nil {
			return nil, "", err
		}
		return charger, fmt.Sprintf("Simulated: firmware %s", settings.Device.Firmware), nil
	}

	ctx, cancel := context.WithTimeout(ctx, settings.ConnectTimeout())
	defer cancel()

	if settings.Bridge.URL != "" {
		link, err := OpenBridgeConnection(ctx, logger)
		if err != nil {
			return nil, "", err
		}
		return link, fmt.Sprintf("WebSocket: %s", settings.Bridge.URL), nil
	}

	link, err := ble.Connect(ctx, ble.Options{
		Address:    settings.Device.Address,
		NamePrefix: settings.Device.Name,
		GATT:       settings.TransportGATT(),
		Logger:     logger,
	})
	if err != nil {
		return nil, "", err
	}
	target := settings.Device.Address
	if target == "" {
		target = settings.Device.Name + "*"
	}
	return link, fmt.Sprintf("BLE: %s", target), nil
}
