// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/generic"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Pop the charge history of the charger",
	Long: `Pop the historical records queued in the charger.

Records are removed from the charger as they are read; save the output.`,
}

var historyChargesCmd = &cobra.Command{
	Use:   "charges",
	Short: "Pop the charge session records",
	RunE:  runHistoryCharges,
}

var historyMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Pop the periodic energy records",
	RunE:  runHistoryMetrics,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyChargesCmd, historyMetricsCmd)
}

func runHistoryCharges(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	printHeader("GAAI - CHARGE HISTORY", c.info)
	return c.await(ctx, c.session.ReadChargeRecords, func(ev generic.Event) (bool, error) {
		e, ok := ev.(generic.ChargeRecordsEvent)
		if !ok {
			return false, nil
		}
		fmt.Println(labelStyle.Render(fmt.Sprintf("Charge sessions (%d):", len(e.Records))))
		var total uint32
		for _, r := range e.Records {
			fmt.Print(nexxtender.FormatChargeRecord(r))
			total += r.Energy()
		}
		fmt.Printf("%s %s\n", labelStyle.Render("Total:"), valueStyle.Render(fmt.Sprintf("%d Wh", total)))
		return true, nil
	})
}

func runHistoryMetrics(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	printHeader("GAAI - ENERGY HISTORY", c.info)
	return c.await(ctx, c.session.ReadMetricRecords, func(ev generic.Event) (bool, error) {
		e, ok := ev.(generic.MetricRecordsEvent)
		if !ok {
			return false, nil
		}
		fmt.Println(labelStyle.Render(fmt.Sprintf("Energy records (%d):", len(e.Records))))
		for _, r := range e.Records {
			fmt.Print(nexxtender.FormatMetricRecord(r))
		}
		return true, nil
	})
}
