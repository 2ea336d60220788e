// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/generic"
)

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Read or set the charger clock",
}

var timeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the charger clock and its drift from this host",
	RunE:  runTimeGet,
}

var timeSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Set the charger clock to the time of this host",
	RunE:  runTimeSync,
}

func init() {
	rootCmd.AddCommand(timeCmd)
	timeCmd.AddCommand(timeGetCmd, timeSyncCmd)
}

func runTimeGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	printHeader("GAAI - CLOCK", c.info)
	var charger time.Time
	err = c.await(ctx, c.session.GetTime, func(ev generic.Event) (bool, error) {
		if e, ok := ev.(generic.TimeEvent); ok {
			charger = e.Time
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return err
	}

	drift := charger.Sub(time.Now().UTC()).Round(time.Second)
	fmt.Printf("%s %s\n", labelStyle.Render("Charger:"), valueStyle.Render(charger.Format(time.RFC3339)))
	fmt.Printf("%s %s\n", labelStyle.Render("Drift:  "), valueStyle.Render(drift.String()))
	return nil
}

func runTimeSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	printHeader("GAAI - CLOCK", c.info)
	var written time.Time
	err = c.await(ctx, c.session.SyncTime, func(ev generic.Event) (bool, error) {
		if e, ok := ev.(generic.TimeSetEvent); ok {
			written = e.Time
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", labelStyle.Render("Clock set to:"), valueStyle.Render(written.Format(time.RFC3339)))
	return nil
}
