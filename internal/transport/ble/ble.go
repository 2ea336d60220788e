// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

// Package ble connects to a charger over the local Bluetooth adapter.
package ble

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
)

// Options selects the charger to connect to
type Options struct {
	// Address is the MAC address (or platform UUID) of the charger; when
	// empty the first device advertising NamePrefix is used
	Address    string
	NamePrefix string
	GATT       transport.GATT
	Logger     *log.Logger
}

// Link is a transport.Link on a connected BLE device
type Link struct {
	device bluetooth.Device
	chars  map[transport.Characteristic]bluetooth.DeviceCharacteristic
	logger *log.Logger

	mu      sync.Mutex
	closed  bool
	enabled map[transport.Characteristic]bool
	subs    map[transport.Characteristic][]chan []byte
}

// Connect scans for the charger, connects and discovers its characteristics
func Connect(ctx context.Context, opts Options) (*Link, error) {
	if opts.NamePrefix == "" {
		opts.NamePrefix = transport.DefaultNamePrefix
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("failed to enable Bluetooth: %w", err)
	}

	result, err := scan(ctx, adapter, opts)
	if err != nil {
		return nil, err
	}
	logf(opts.Logger, "Found %s (%s), connecting", result.LocalName(), result.Address.String())

	device, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", result.Address.String(), err)
	}

	chars, err := discover(device, opts.GATT)
	if err != nil {
		device.Disconnect()
		return nil, err
	}

	return &Link{
		device:  device,
		chars:   chars,
		logger:  opts.Logger,
		enabled: make(map[transport.Characteristic]bool),
		subs:    make(map[transport.Characteristic][]chan []byte),
	}, nil
}

// scan blocks until a matching device advertises or ctx is done
func scan(ctx context.Context, adapter *bluetooth.Adapter, opts Options) (bluetooth.ScanResult, error) {
	found := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)

	go func() {
		scanErr <- adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			if matches(result.Address.String(), result.LocalName(), opts) {
				select {
				case found <- result:
				default:
				}
				a.StopScan()
			}
		})
	}()

	select {
	case result := <-found:
		return result, nil
	case err := <-scanErr:
		if err != nil {
			return bluetooth.ScanResult{}, fmt.Errorf("scan failed: %w", err)
		}
		select {
		case result := <-found:
			return result, nil
		default:
			return bluetooth.ScanResult{}, fmt.Errorf("charger not found")
		}
	case <-ctx.Done():
		adapter.StopScan()
		return bluetooth.ScanResult{}, fmt.Errorf("charger not found: %w", ctx.Err())
	}
}

// matches reports whether an advertisement belongs to the wanted charger
func matches(address, name string, opts Options) bool {
	if opts.Address != "" {
		return strings.EqualFold(address, opts.Address)
	}
	return strings.HasPrefix(name, opts.NamePrefix)
}

// discover resolves every characteristic of gatt on device
func discover(device bluetooth.Device, gatt transport.GATT) (map[transport.Characteristic]bluetooth.DeviceCharacteristic, error) {
	byService := make(map[string][]transport.Characteristic)
	for _, c := range transport.Characteristics {
		svc := strings.ToLower(gatt.Service(c))
		byService[svc] = append(byService[svc], c)
	}

	chars := make(map[transport.Characteristic]bluetooth.DeviceCharacteristic)
	for svcUUID, wanted := range byService {
		uuid, err := bluetooth.ParseUUID(svcUUID)
		if err != nil {
			return nil, fmt.Errorf("invalid service UUID %s: %w", svcUUID, err)
		}
		srvs, err := device.DiscoverServices([]bluetooth.UUID{uuid})
		if err != nil || len(srvs) == 0 {
			return nil, fmt.Errorf("service %s not found: %v", svcUUID, err)
		}

		uuids := make([]bluetooth.UUID, 0, len(wanted))
		for _, c := range wanted {
			u, err := bluetooth.ParseUUID(gatt.Characteristics[c])
			if err != nil {
				return nil, fmt.Errorf("invalid %s UUID %s: %w", c, gatt.Characteristics[c], err)
			}
			uuids = append(uuids, u)
		}
		found, err := srvs[0].DiscoverCharacteristics(uuids)
		if err != nil {
			return nil, fmt.Errorf("failed to discover characteristics of %s: %w", svcUUID, err)
		}

		for _, dc := range found {
			for _, c := range wanted {
				if strings.EqualFold(dc.UUID().String(), gatt.Characteristics[c]) {
					chars[c] = dc
				}
			}
		}
	}

	for _, c := range transport.Characteristics {
		if _, ok := chars[c]; !ok {
			return nil, fmt.Errorf("characteristic %s (%s) not found", c, gatt.Characteristics[c])
		}
	}
	return chars, nil
}

// Read reads a characteristic
func (l *Link) Read(ctx context.Context, c transport.Characteristic) ([]byte, error) {
	dc, err := l.characteristic(c)
	if err != nil {
		return nil, err
	}
	return call(ctx, func() ([]byte, error) {
		buf := make([]byte, 512)
		n, err := dc.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", c, err)
		}
		return buf[:n], nil
	})
}

// characteristicWriter is the write API tinygo bluetooth offers on every
// client platform
type characteristicWriter interface {
	WriteWithoutResponse(p []byte) (int, error)
}

var _ characteristicWriter = bluetooth.DeviceCharacteristic{}

// Write writes a characteristic. The charger acknowledges every generic
// command with a Status notification, so no write response is awaited.
func (l *Link) Write(ctx context.Context, c transport.Characteristic, data []byte) error {
	dc, err := l.characteristic(c)
	if err != nil {
		return err
	}
	return write(ctx, dc, c, data)
}

func write(ctx context.Context, w characteristicWriter, c transport.Characteristic, data []byte) error {
	_, err := call(ctx, func() ([]byte, error) {
		if _, err := w.WriteWithoutResponse(data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", c, err)
		}
		return nil, nil
	})
	return err
}

// Subscribe enables notifications of c, once per characteristic
func (l *Link) Subscribe(ctx context.Context, c transport.Characteristic) (<-chan []byte, error) {
	dc, err := l.characteristic(c)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled[c] {
		err := dc.EnableNotifications(func(buf []byte) {
			l.notify(c, append([]byte(nil), buf...))
		})
		if err != nil {
			return nil, fmt.Errorf("failed to enable %s notifications: %w", c, err)
		}
		l.enabled[c] = true
	}

	sub := make(chan []byte, 64)
	l.subs[c] = append(l.subs[c], sub)
	go func() {
		<-ctx.Done()
		l.unsubscribe(c, sub)
	}()
	return sub, nil
}

// Close disconnects the device and closes every subscription
func (l *Link) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	for c, subs := range l.subs {
		for _, sub := range subs {
			close(sub)
		}
		delete(l.subs, c)
	}
	l.mu.Unlock()

	return l.device.Disconnect()
}

func (l *Link) characteristic(c transport.Characteristic) (bluetooth.DeviceCharacteristic, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return bluetooth.DeviceCharacteristic{}, transport.ErrClosed
	}
	dc, ok := l.chars[c]
	if !ok {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("unknown characteristic %s", c)
	}
	return dc, nil
}

func (l *Link) notify(c transport.Characteristic, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, sub := range l.subs[c] {
		select {
		case sub <- data:
		default:
			logf(l.logger, "Dropping %s notification, subscriber is full", c)
		}
	}
}

func (l *Link) unsubscribe(c transport.Characteristic, sub chan []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	subs := l.subs[c]
	for i, s := range subs {
		if s == sub {
			l.subs[c] = append(subs[:i], subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// call runs a blocking adapter call and gives up when ctx is done
func call(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := fn()
		done <- result{data, err}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func logf(logger *log.Logger, format string, args ...interface{}) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}
