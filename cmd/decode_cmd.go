// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// recordDecoders render a record payload, keyed by record name
var recordDecoders = map[string]func([]byte) (string, error){
	"basic": func(b []byte) (string, error) {
		d, err := nexxtender.ParseBasicData(b)
		return nexxtender.FormatBasicData(d), err
	},
	"grid": func(b []byte) (string, error) {
		d, err := nexxtender.ParseGridData(b)
		return nexxtender.FormatGridData(d), err
	},
	"car": func(b []byte) (string, error) {
		d, err := nexxtender.ParseCarData(b)
		return nexxtender.FormatCarData(d), err
	},
	"advanced": func(b []byte) (string, error) {
		d, err := nexxtender.ParseAdvancedData(b)
		return nexxtender.FormatAdvancedData(d), err
	},
	"config": func(b []byte) (string, error) {
		cfg, err := nexxtender.ParseConfig(b)
		return nexxtender.FormatConfig(cfg), err
	},
	"badge": func(b []byte) (string, error) {
		badge, err := nexxtender.ParseBadge(b)
		return fmt.Sprintf("  id=%s\n", badge), err
	},
	"time": func(b []byte) (string, error) {
		r, err := nexxtender.ParseTimeRecord(b)
		return fmt.Sprintf("  time=%s\n", r.Time().Format("2006-01-02 15:04:05 MST")), err
	},
	"charge": func(b []byte) (string, error) {
		r, err := nexxtender.ParseChargeRecord(b)
		return nexxtender.FormatChargeRecord(r), err
	},
	"metric": func(b []byte) (string, error) {
		r, err := nexxtender.ParseMetricRecord(b)
		return nexxtender.FormatMetricRecord(r), err
	},
	"status": func(b []byte) (string, error) {
		code, err := nexxtender.ParseStatusCode(b)
		return fmt.Sprintf("  status=%s category=%s\n", code, code.Category()), err
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <record> <hex>",
	Short: "Decode a captured record payload offline",
	Long: `Decode a record payload captured from a charger, e.g. with a BLE sniffer.

Records: ` + strings.Join(recordNames(), ", ") + `

Example:
  gaai decode status 0603
  gaai decode badge "04 11 22 33 44"`,
	Args: cobra.ExactArgs(2),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func recordNames() []string {
	names := make([]string, 0, len(recordDecoders))
	for name := range recordDecoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseHex accepts hex with optional spaces, colons and a 0x prefix
func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return data, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	decode, ok := recordDecoders[args[0]]
	if !ok {
		return fmt.Errorf("unknown record %q (use %s)", args[0], strings.Join(recordNames(), ", "))
	}
	data, err := parseHex(args[1])
	if err != nil {
		return err
	}

	out, err := decode(data)
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("✗ %v", err)))
		return err
	}
	fmt.Println(labelStyle.Render(fmt.Sprintf("%s (%d bytes):", args[0], len(data))))
	fmt.Print(out)
	return nil
}
