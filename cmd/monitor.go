// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/FrankHJCuypers/gaai-sub000/internal/metrics"
	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
)

var monitorInterval time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live view of the charging telemetry",
	Long: `Poll the charging telemetry characteristics and show them in a terminal UI.

Changes of the charging status and failed reads are logged below the
telemetry. Press 'q' to quit.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVarP(&monitorInterval, "interval", "i", 2*time.Second, "Polling interval")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	link, info, err := OpenLink(ctx)
	if err != nil {
		return err
	}
	defer link.Close()

	collector := metrics.NewCollector()
	if settings.Metrics.Listen != "" {
		srv := &http.Server{Addr: settings.Metrics.Listen, Handler: collector.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(os.Stderr, "Metrics server error: %v\n", err)
			}
		}()
		defer srv.Close()
	}

	m := newMonitorModel(ctx, link, info, collector)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// Event log entry
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// monitorModel is the bubbletea model of the monitor command
type monitorModel struct {
	ctx       context.Context
	link      transport.Link
	connInfo  string
	collector *metrics.Collector

	spinner       spinner.Model
	telemetry     *transport.Telemetry
	lastRead      time.Time
	eventLog      []logEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
}

// Messages
type pollMsg time.Time
type telemetryMsg struct {
	telemetry transport.Telemetry
	err       error
}

func newMonitorModel(ctx context.Context, link transport.Link, connInfo string, collector *metrics.Collector) monitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = warningStyle

	return monitorModel{
		ctx:           ctx,
		link:          link,
		connInfo:      connInfo,
		collector:     collector,
		spinner:       s,
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.readCmd())
}

func pollCmd() tea.Cmd {
	return tea.Tick(monitorInterval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

// readCmd reads all telemetry characteristics off the UI goroutine
func (m monitorModel) readCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, settings.OperationTimeout())
		defer cancel()
		tel, err := transport.ReadTelemetry(ctx, m.link)
		return telemetryMsg{telemetry: tel, err: err}
	}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		if m.telemetry != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pollMsg:
		return m, m.readCmd()

	case telemetryMsg:
		m.collector.FrameDecoded("telemetry", msg.err)
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("READ ERROR: %v", msg.err), true)
			if errors.Is(msg.err, transport.ErrClosed) {
				return m, nil
			}
			return m, pollCmd()
		}
		m.trackChanges(msg.telemetry)
		m.telemetry = &msg.telemetry
		m.lastRead = time.Now()
		return m, pollCmd()
	}

	return m, nil
}

// trackChanges logs charging status and authorization transitions
func (m *monitorModel) trackChanges(next transport.Telemetry) {
	if m.telemetry == nil {
		m.addLogEntry(fmt.Sprintf("Charger is %s", next.Basic.Status), false)
		return
	}
	prev := m.telemetry
	if prev.Basic.Status != next.Basic.Status {
		m.addLogEntry(fmt.Sprintf("Status %s -> %s", prev.Basic.Status, next.Basic.Status), false)
	}
	if prev.Advanced.Authorization != next.Advanced.Authorization {
		m.addLogEntry(fmt.Sprintf("Authorization %s -> %s", prev.Advanced.Authorization, next.Advanced.Authorization), false)
	}
	if next.Advanced.ErrorCode != 0 && prev.Advanced.ErrorCode != next.Advanced.ErrorCode {
		m.addLogEntry(fmt.Sprintf("Charger error 0x%02X", next.Advanced.ErrorCode), true)
	}
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("GAAI - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Interval: %s | Press 'q' to quit",
		m.connInfo, monitorInterval)))
	s.WriteString("\n\n")

	if m.telemetry == nil {
		s.WriteString(m.spinner.View())
		s.WriteString(warningStyle.Render(" Waiting for telemetry..."))
		s.WriteString("\n\n")
	} else {
		s.WriteString(boxStyle.Render(m.renderTelemetry()))
		s.WriteString("\n")
		s.WriteString(headerStyle.Render("Last read " + m.lastRead.Format("15:04:05")))
		s.WriteString("\n\n")
	}

	snap := m.collector.Statistics().Snapshot()
	reads := fmt.Sprintf("%s %s   %s ",
		labelStyle.Render("Reads:"), valueStyle.Render(fmt.Sprintf("%d", snap.Frames)),
		labelStyle.Render("Errors:"))
	if snap.FrameErrors() > 0 {
		reads += errorStyle.Render(fmt.Sprintf("%d", snap.FrameErrors()))
	} else {
		reads += valueStyle.Render("0")
	}
	s.WriteString(boxStyle.Render(reads))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.renderLog()))

	return s.String()
}

func (m monitorModel) renderTelemetry() string {
	t := m.telemetry
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		labelStyle.Render("Status:"), valueStyle.Render(t.Basic.Status.String()),
		labelStyle.Render("Phase:"), valueStyle.Render(t.Basic.Discriminator.String()))
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		labelStyle.Render("Session:"), valueStyle.Render(formatDuration(uint64(t.Basic.Seconds))),
		labelStyle.Render("Energy:"), valueStyle.Render(fmt.Sprintf("%d Wh", t.Basic.Energy)))
	fmt.Fprintf(&b, "%s %s\n",
		labelStyle.Render("Grid:"), valueStyle.Render(fmt.Sprintf("L1 %.1fA  L2 %.1fA  L3 %.1fA  %d W",
			deciAmps(t.Grid.L1), deciAmps(t.Grid.L2), deciAmps(t.Grid.L3), t.Advanced.GridPower)))
	fmt.Fprintf(&b, "%s %s\n",
		labelStyle.Render("Car: "), valueStyle.Render(fmt.Sprintf("L1 %.1fA  L2 %.1fA  L3 %.1fA  %d W",
			deciAmps(t.Car.L1), deciAmps(t.Car.L2), deciAmps(t.Car.L3), t.Advanced.CarPower)))
	fmt.Fprintf(&b, "%s %s   %s %s",
		labelStyle.Render("Available:"), valueStyle.Render(fmt.Sprintf("%.1fA", deciAmps(t.Advanced.IAvailable))),
		labelStyle.Render("Auth:"), valueStyle.Render(t.Advanced.Authorization.String()))
	if t.Advanced.ErrorCode != 0 {
		fmt.Fprintf(&b, "   %s", errorStyle.Render(fmt.Sprintf("Error 0x%02X", t.Advanced.ErrorCode)))
	}
	return b.String()
}

func (m monitorModel) renderLog() string {
	logHeight := m.height - 18
	if logHeight < 5 {
		logHeight = 5
	}
	if len(m.eventLog) == 0 {
		return headerStyle.Render("  (no events yet)")
	}

	start := len(m.eventLog) - logHeight
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	for _, entry := range m.eventLog[start:] {
		timestamp := headerStyle.Render(entry.timestamp.Format("15:04:05.000"))
		if entry.isError {
			fmt.Fprintf(&b, "%s %s\n", timestamp, errorStyle.Render("✗ "+entry.message))
		} else {
			fmt.Fprintf(&b, "%s %s\n", timestamp, warningStyle.Render("ℹ "+entry.message))
		}
	}
	return b.String()
}

func deciAmps(v int16) float64 {
	return float64(v) / 10
}

// formatDuration formats seconds as a human-friendly string
func formatDuration(seconds uint64) string {
	if seconds == 0 {
		return "0 seconds"
	}

	minutes := seconds / 60
	hours := minutes / 60
	seconds %= 60
	minutes %= 60

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	if len(parts) == 1 {
		return parts[0]
	}
	last := parts[len(parts)-1]
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + last
}
