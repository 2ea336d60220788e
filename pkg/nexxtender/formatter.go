// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import (
	"fmt"
	"strings"
	"time"
)

// FormatMinutes renders minutes since midnight as HH:MM
func FormatMinutes(m uint16) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseMinutes is the inverse of FormatMinutes
func ParseMinutes(s string) (uint16, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return uint16(h*60 + m), nil
}

// formatDeciAmps renders a deci-amp reading as amps
func formatDeciAmps(v int16) string {
	return fmt.Sprintf("%.1fA", float64(v)/10)
}

func formatUnix(ts uint32) string {
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02 15:04:05Z")
}

// String returns the discriminator name
func (d Discriminator) String() string {
	switch d {
	case DiscriminatorStarted:
		return "STARTED"
	case DiscriminatorCharging:
		return "CHARGING"
	case DiscriminatorStopped:
		return "STOPPED"
	}
	return "UNKNOWN"
}

// String returns the status name
func (s ChargingStatus) String() string {
	switch s {
	case ChargingStatusPlugged:
		return "PLUGGED"
	case ChargingStatusCharging:
		return "CHARGING"
	case ChargingStatusFault:
		return "FAULT"
	}
	return "UNKNOWN"
}

// String returns the event type name
func (t MetricEventType) String() string {
	switch t {
	case MetricEventPeriodic:
		return "PERIODIC"
	case MetricEventSessionStart:
		return "SESSION_START"
	case MetricEventSessionEnd:
		return "SESSION_END"
	}
	return "UNKNOWN"
}

// FormatConfig formats a configuration as indented key/value lines
func FormatConfig(cfg Config) string {
	if !cfg.Valid {
		return "  (unwritten)\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "  variant=%s\n", cfg.Variant)
	fmt.Fprintf(&sb, "  max_grid=%dA", cfg.MaxGrid)
	if cfg.Variant != ConfigLegacy {
		fmt.Fprintf(&sb, " max_device=%dA", cfg.MaxDevice)
	}
	if cfg.Variant == ConfigCbor {
		fmt.Fprintf(&sb, " min_device=%dA i_capacity=%dA", cfg.MinDevice, cfg.ICapacity)
	}
	fmt.Fprintf(&sb, " safe=%dA\n", cfg.SafeCurrent)
	fmt.Fprintf(&sb, "  mode=%s", cfg.Mode)
	if cfg.Variant != ConfigLegacy {
		fmt.Fprintf(&sb, " network=%s", cfg.NetworkType)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  off_peak_week=%s-%s off_peak_weekend=%s-%s\n",
		FormatMinutes(cfg.TouWeekStart), FormatMinutes(cfg.TouWeekEnd),
		FormatMinutes(cfg.TouWeekendStart), FormatMinutes(cfg.TouWeekendEnd))
	return sb.String()
}

// FormatBasicData formats a basic snapshot on one line
func FormatBasicData(d BasicData) string {
	return fmt.Sprintf("  seconds=%d discriminator=%s status=%s energy=%dWh\n",
		d.Seconds, d.Discriminator, d.Status, d.Energy)
}

// FormatGridData formats a grid snapshot on one line
func FormatGridData(d GridData) string {
	return fmt.Sprintf("  time=%s L1=%s L2=%s L3=%s consumed=%dW interval=%ds\n",
		formatUnix(d.Timestamp), formatDeciAmps(d.L1), formatDeciAmps(d.L2), formatDeciAmps(d.L3),
		d.Consumed, d.Interval)
}

// FormatCarData formats a car snapshot on one line
func FormatCarData(d CarData) string {
	return fmt.Sprintf("  time=%s L1=%s L2=%s L3=%s P1=%dW P2=%dW P3=%dW\n",
		formatUnix(d.Timestamp), formatDeciAmps(d.L1), formatDeciAmps(d.L2), formatDeciAmps(d.L3),
		d.P1, d.P2, d.P3)
}

// FormatAdvancedData formats an advanced snapshot on one line
func FormatAdvancedData(d AdvancedData) string {
	return fmt.Sprintf("  time=%s available=%s grid=%dW car=%dW auth=%s error=0x%02X\n",
		formatUnix(d.Timestamp), formatDeciAmps(d.IAvailable), d.GridPower, d.CarPower,
		d.Authorization, d.ErrorCode)
}

// FormatMetricRecord formats a periodic energy record on one line
func FormatMetricRecord(r MetricRecord) string {
	return fmt.Sprintf("  time=%s energy=%dWh type=%s unknown=[%d %d %d %d]\n",
		formatUnix(r.Timestamp), r.Energy, r.EventType,
		r.Unknown1, r.Unknown2, r.Unknown3, r.Unknown4)
}

// FormatChargeRecord formats a charge session on one line
func FormatChargeRecord(r ChargeRecord) string {
	return fmt.Sprintf("  start=%s stop=%s energy=%dWh (%d-%d) unknown=[%d %d %d %d]\n",
		formatUnix(r.StartTime), formatUnix(r.StopTime), r.Energy(), r.StartEnergy, r.StopEnergy,
		r.Unknown1, r.Unknown2, r.Unknown3, r.Unknown4)
}
