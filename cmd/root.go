// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FrankHJCuypers/gaai-sub000/internal/config"
)

var (
	configPath string

	// BLE connection flags
	address  string
	firmware string

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	simulate    bool
	timeout     time.Duration
	metricsAddr string
	verbose     bool

	// settings is the merged file and flag configuration
	settings *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gaai",
	Short: "Nexxtender Home charger BLE client",
	Long: `gaai - A CLI tool for configuring and monitoring Nexxtender Home chargers.

Talks the generic command/status/data protocol of the charger to read and
change its configuration, clock and badges, to start and stop charging and
to pop its charge history.

Connection modes:
  BLE:       [--address AA:BB:CC:DD:EE:FF] (default: first charger named HOME*)
  WebSocket: --url ws://host/path [--username user]
  Simulated: --simulate

For WebSocket authentication, the password is read from the GAAI_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "0.4.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")

	// BLE connection flags
	rootCmd.PersistentFlags().StringVarP(&address, "address", "a", "", "Charger BLE address")
	rootCmd.PersistentFlags().StringVarP(&firmware, "firmware", "f", "", "Charger firmware version (selects the configuration encoding)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().BoolVar(&simulate, "simulate", false, "Talk to an in-memory simulated charger")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 0, "Timeout of one operation (default from config, 10s)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log protocol details to stderr")
}

// loadSettings reads the configuration file and applies flag overrides
func loadSettings(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("address") {
		cfg.Device.Address = address
	}
	if flags.Changed("firmware") {
		cfg.Device.Firmware = firmware
	}
	if flags.Changed("url") {
		cfg.Bridge.URL = wsURL
	}
	if flags.Changed("username") {
		cfg.Bridge.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.Bridge.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("timeout") {
		cfg.Timeouts.OperationMs = int(timeout / time.Millisecond)
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Listen = metricsAddr
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	config.Normalize(cfg)
	settings = cfg
	return nil
}

// Execute runs the root command until it completes or is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
