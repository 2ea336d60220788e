// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw status notifications in human-readable format",
	Long: `Continuously display the notifications of the generic Status characteristic.

Each notification is shown with timestamp, raw bytes and the decoded status
code. Useful next to the vendor app to watch an exchange it drives.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	link, info, err := OpenLink(ctx)
	if err != nil {
		return err
	}
	defer link.Close()

	notifications, err := link.Subscribe(ctx, transport.GenericStatus)
	if err != nil {
		return err
	}

	fmt.Printf("gaai - Raw Status Log\n")
	fmt.Printf("Connection: %s\n", info)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	for data := range notifications {
		fmt.Print(formatStatusNotification(time.Now(), data))
	}
	return nil
}

// formatStatusNotification renders one raw Status notification
func formatStatusNotification(ts time.Time, data []byte) string {
	stamp := ts.Format("15:04:05.000")
	code, err := nexxtender.ParseStatusCode(data)
	if err != nil {
		return fmt.Sprintf("[%s] [ERROR] % X: %v\n", stamp, data, err)
	}
	known := ""
	if !code.Known() {
		known = " (unrecognized)"
	}
	return fmt.Sprintf("[%s] %s (0x%04X) category=%s raw=% X%s\n",
		stamp, code, uint16(code), code.Category(), data, known)
}
