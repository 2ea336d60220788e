// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Print the charging telemetry snapshots",
	RunE:  runTelemetry,
}

func init() {
	rootCmd.AddCommand(telemetryCmd)
}

func runTelemetry(cmd *cobra.Command, args []string) error {
	link, info, err := OpenLink(cmd.Context())
	if err != nil {
		return err
	}
	defer link.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), settings.OperationTimeout())
	defer cancel()

	printHeader("GAAI - TELEMETRY", info)
	tel, err := transport.ReadTelemetry(ctx, link)
	if err != nil {
		return err
	}
	printTelemetry(tel)
	return nil
}

func printTelemetry(tel transport.Telemetry) {
	printSection("Basic:", nexxtender.FormatBasicData(tel.Basic))
	printSection("Grid:", nexxtender.FormatGridData(tel.Grid))
	printSection("Car:", nexxtender.FormatCarData(tel.Car))
	printSection("Advanced:", nexxtender.FormatAdvancedData(tel.Advanced))
}
