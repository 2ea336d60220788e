// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Firmware versions at which the configuration encoding changed
const (
	firmwareExtendedConfig = "v1.1.0"
	firmwareCborConfig     = "v3.50"
)

// ConfigVariantForFirmware returns the configuration encoding spoken by a
// charger running the given firmware version, e.g. "3.49.1" or "v3.50".
func ConfigVariantForFirmware(version string) (ConfigVariant, error) {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ConfigLegacy, fmt.Errorf("invalid firmware version %q", version)
	}

	switch {
	case semver.Compare(v, firmwareExtendedConfig) < 0:
		return ConfigLegacy, nil
	case semver.Compare(v, firmwareCborConfig) < 0:
		return ConfigExtended, nil
	default:
		return ConfigCbor, nil
	}
}
