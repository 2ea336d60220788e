// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/generic"
)

var chargeStartMode string

var startModes = map[string]generic.StartMode{
	"default": generic.StartDefault,
	"max":     generic.StartMax,
	"auto":    generic.StartAuto,
	"eco":     generic.StartEco,
}

var chargeCmd = &cobra.Command{
	Use:   "charge",
	Short: "Start or stop charging",
}

var chargeStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start charging",
	RunE:  runChargeStart,
}

var chargeStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop charging",
	RunE:  runChargeStop,
}

func init() {
	rootCmd.AddCommand(chargeCmd)
	chargeCmd.AddCommand(chargeStartCmd, chargeStopCmd)

	chargeStartCmd.Flags().StringVarP(&chargeStartMode, "mode", "m", "default", "Start mode: default, max, auto, eco")
}

func runChargeStart(cmd *cobra.Command, args []string) error {
	mode, ok := startModes[chargeStartMode]
	if !ok {
		return fmt.Errorf("unknown start mode %q (use default, max, auto or eco)", chargeStartMode)
	}

	ctx := cmd.Context()
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	printHeader("GAAI - CHARGING", c.info)
	err = c.await(ctx,
		func(ctx context.Context) error { return c.session.StartCharging(ctx, mode) },
		func(ev generic.Event) (bool, error) {
			if e, ok := ev.(generic.UnlockEvent); ok {
				if e.Forced {
					printWarning("Charger unlocked (forced)")
				} else {
					printWarning("Charger unlocked")
				}
				return true, nil
			}
			return false, nil
		})
	if errors.Is(err, context.DeadlineExceeded) {
		printWarning("Start sent, the charger did not report an unlock")
		return nil
	}
	return err
}

func runChargeStop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	printHeader("GAAI - CHARGING", c.info)
	if err := c.session.StopCharging(ctx); err != nil {
		return err
	}
	printWarning("Stop sent")
	return nil
}
