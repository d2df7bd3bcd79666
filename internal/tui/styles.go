// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles for one color scheme.
type Theme struct {
	IsDark bool

	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Variant   lipgloss.Style
	Thinking  lipgloss.Style
	Status    lipgloss.Style
	Alert     lipgloss.Style
	Help      lipgloss.Style
}

// NewTheme builds the dark or light theme.
func NewTheme(dark bool) Theme {
	fg, dim, accent, user, alert := lipgloss.Color("#E6E6E6"), lipgloss.Color("#7A7A8C"),
		lipgloss.Color("#B48EFF"), lipgloss.Color("#5FD7FF"), lipgloss.Color("#FF6B6B")
	if !dark {
		fg, dim, accent, user, alert = lipgloss.Color("#1E1E28"), lipgloss.Color("#6C6C7A"),
			lipgloss.Color("#6A3FD1"), lipgloss.Color("#0A6FA8"), lipgloss.Color("#C62828")
	}

	return Theme{
		IsDark: dark,
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(dim),
		User:      lipgloss.NewStyle().Bold(true).Foreground(user),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(accent),
		Variant:   lipgloss.NewStyle().Foreground(dim),
		Thinking:  lipgloss.NewStyle().Italic(true).Foreground(dim),
		Status:    lipgloss.NewStyle().Foreground(fg),
		Alert:     lipgloss.NewStyle().Bold(true).Foreground(alert),
		Help:      lipgloss.NewStyle().Foreground(dim),
	}
}
