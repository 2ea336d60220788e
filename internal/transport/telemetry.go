// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package transport

import (
	"context"
	"fmt"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// Telemetry is one snapshot of the charging service characteristics
type Telemetry struct {
	Basic    nexxtender.BasicData
	Grid     nexxtender.GridData
	Car      nexxtender.CarData
	Advanced nexxtender.AdvancedData
}

// ReadTelemetry reads and decodes the four charging characteristics
func ReadTelemetry(ctx context.Context, link Link) (Telemetry, error) {
	var t Telemetry
	var err error

	if t.Basic, err = readRecord(ctx, link, ChargingBasic, nexxtender.ParseBasicData); err != nil {
		return t, err
	}
	if t.Grid, err = readRecord(ctx, link, ChargingGrid, nexxtender.ParseGridData); err != nil {
		return t, err
	}
	if t.Car, err = readRecord(ctx, link, ChargingCar, nexxtender.ParseCarData); err != nil {
		return t, err
	}
	if t.Advanced, err = readRecord(ctx, link, ChargingAdvanced, nexxtender.ParseAdvancedData); err != nil {
		return t, err
	}
	return t, nil
}

func readRecord[T any](ctx context.Context, link Link, c Characteristic, parse func([]byte) (T, error)) (T, error) {
	var zero T
	data, err := link.Read(ctx, c)
	if err != nil {
		return zero, fmt.Errorf("failed to read %s: %w", c, err)
	}
	v, err := parse(data)
	if err != nil {
		return zero, fmt.Errorf("failed to decode %s: %w", c, err)
	}
	return v, nil
}
