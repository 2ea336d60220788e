// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// printHeader prints the command title and connection line
func printHeader(title, connInfo string) {
	fmt.Println(titleStyle.Render(title))
	fmt.Println(headerStyle.Render("Connection: " + connInfo))
	fmt.Println()
}

// printSection prints a labelled block of formatter output
func printSection(label, body string) {
	fmt.Println(labelStyle.Render(label))
	fmt.Print(body)
}

// printWarning prints a highlighted notice
func printWarning(msg string) {
	fmt.Println(warningStyle.Render("ℹ " + msg))
}
