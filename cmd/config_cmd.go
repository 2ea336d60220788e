// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/generic"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

var (
	cfgMaxGrid      uint8
	cfgMaxDevice    uint8
	cfgMinDevice    uint8
	cfgSafeCurrent  uint8
	cfgICapacity    uint8
	cfgMode         string
	cfgNetwork      string
	cfgWeekStart    string
	cfgWeekEnd      string
	cfgWeekendStart string
	cfgWeekendEnd   string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read or change the charger configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the charger configuration",
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change fields of the charger configuration",
	Long: `Read the charger configuration, change the given fields and write it back.

Only the fields named on the command line change. Fields the charger's
configuration encoding does not carry (e.g. --min-device before firmware
3.50) are rejected.

Example:
  gaai config set --max-grid 32 --mode eco_private --week-start 22:00 --week-end 07:00`,
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd, configSetCmd)

	f := configSetCmd.Flags()
	f.Uint8Var(&cfgMaxGrid, "max-grid", 0, "Maximum grid current (A)")
	f.Uint8Var(&cfgMaxDevice, "max-device", 0, "Maximum charger current (A)")
	f.Uint8Var(&cfgMinDevice, "min-device", 0, "Minimum charger current (A, CBOR only)")
	f.Uint8Var(&cfgSafeCurrent, "safe", 0, "Safe current when the grid reading is lost (A)")
	f.Uint8Var(&cfgICapacity, "i-capacity", 0, "Installation capacity (A, CBOR only)")
	f.StringVar(&cfgMode, "mode", "", "Charge mode: eco_private, max_private, eco_open, max_open")
	f.StringVar(&cfgNetwork, "network", "", "Network type: mono_trin, tri")
	f.StringVar(&cfgWeekStart, "week-start", "", "Weekday off-peak start (HH:MM)")
	f.StringVar(&cfgWeekEnd, "week-end", "", "Weekday off-peak end (HH:MM)")
	f.StringVar(&cfgWeekendStart, "weekend-start", "", "Weekend off-peak start (HH:MM)")
	f.StringVar(&cfgWeekendEnd, "weekend-end", "", "Weekend off-peak end (HH:MM)")
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	printHeader("GAAI - CONFIGURATION", c.info)
	cfg, err := readConfig(ctx, c)
	if err != nil {
		return err
	}
	printSection("Configuration:", nexxtender.FormatConfig(cfg))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	printHeader("GAAI - CONFIGURATION", c.info)
	cfg, err := readConfig(ctx, c)
	if err != nil {
		return err
	}
	if !cfg.Valid {
		return generic.ErrConfigUnwritten
	}
	if err := applyConfigFlags(cmd, &cfg); err != nil {
		return err
	}

	var written nexxtender.Config
	err = c.await(ctx,
		func(ctx context.Context) error { return c.session.SetConfig(ctx, cfg) },
		func(ev generic.Event) (bool, error) {
			switch ev := ev.(type) {
			case generic.ConfigWrittenEvent:
				printWarning("Configuration written, reading back")
			case generic.ConfigEvent:
				written = ev.Config
				return true, nil
			}
			return false, nil
		})
	if err != nil {
		return err
	}
	printSection("Configuration:", nexxtender.FormatConfig(written))
	return nil
}

func readConfig(ctx context.Context, c *client) (nexxtender.Config, error) {
	var cfg nexxtender.Config
	err := c.await(ctx, c.session.GetConfig, func(ev generic.Event) (bool, error) {
		if e, ok := ev.(generic.ConfigEvent); ok {
			cfg = e.Config
			return true, nil
		}
		return false, nil
	})
	return cfg, err
}

// applyConfigFlags copies the changed flags into cfg
func applyConfigFlags(cmd *cobra.Command, cfg *nexxtender.Config) error {
	flags := cmd.Flags()
	requires := func(name string, variants ...nexxtender.ConfigVariant) error {
		for _, v := range variants {
			if cfg.Variant == v {
				return nil
			}
		}
		return fmt.Errorf("--%s is not supported by the %s configuration", name, cfg.Variant)
	}

	if flags.Changed("max-grid") {
		cfg.MaxGrid = cfgMaxGrid
	}
	if flags.Changed("safe") {
		cfg.SafeCurrent = cfgSafeCurrent
	}
	if flags.Changed("max-device") {
		if err := requires("max-device", nexxtender.ConfigExtended, nexxtender.ConfigCbor); err != nil {
			return err
		}
		cfg.MaxDevice = cfgMaxDevice
	}
	if flags.Changed("min-device") {
		if err := requires("min-device", nexxtender.ConfigCbor); err != nil {
			return err
		}
		cfg.MinDevice = cfgMinDevice
	}
	if flags.Changed("i-capacity") {
		if err := requires("i-capacity", nexxtender.ConfigCbor); err != nil {
			return err
		}
		cfg.ICapacity = cfgICapacity
	}
	if flags.Changed("mode") {
		mode, err := nexxtender.ParseChargeMode(cfgMode)
		if err != nil {
			return err
		}
		cfg.Mode = mode
	}
	if flags.Changed("network") {
		if err := requires("network", nexxtender.ConfigExtended, nexxtender.ConfigCbor); err != nil {
			return err
		}
		network, err := nexxtender.ParseNetworkType(cfgNetwork)
		if err != nil {
			return err
		}
		cfg.NetworkType = network
	}

	minutes := []struct {
		flag  string
		value string
		field *uint16
	}{
		{"week-start", cfgWeekStart, &cfg.TouWeekStart},
		{"week-end", cfgWeekEnd, &cfg.TouWeekEnd},
		{"weekend-start", cfgWeekendStart, &cfg.TouWeekendStart},
		{"weekend-end", cfgWeekendEnd, &cfg.TouWeekendEnd},
	}
	for _, m := range minutes {
		if !flags.Changed(m.flag) {
			continue
		}
		v, err := nexxtender.ParseMinutes(m.value)
		if err != nil {
			return fmt.Errorf("--%s: %w", m.flag, err)
		}
		*m.field = v
	}
	return nil
}
