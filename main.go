// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers
//
// gaai - Nexxtender Home charger BLE client
//
// A CLI tool for configuring Nexxtender Home chargers and reading their
// telemetry and charge history over Bluetooth Low Energy.

package main

import (
	"os"

	"github.com/FrankHJCuypers/gaai-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
