// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/switchboard/internal/chatlog"
	"github.com/jeranaias/switchboard/internal/util"
)

// maxThinkingPreview bounds the one-line thinking summary.
const maxThinkingPreview = 120

// newRenderer returns a glamour renderer for the theme, or nil when glamour
// cannot be initialized.
func newRenderer(dark bool, width int) *glamour.TermRenderer {
	style := "dark"
	if !dark {
		style = "light"
	}
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderTurns draws the whole conversation for the viewport.
func renderTurns(turns []chatlog.Turn, theme Theme, r *glamour.TermRenderer) string {
	if len(turns) == 0 {
		return theme.Help.Render("No messages yet. Type below and press enter.")
	}

	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(turnHeader(t, theme))
		sb.WriteString("\n")

		v := t.SelectedVariant()
		body := v.Text
		if main, thinking, ok := chatlog.ParseThinkBlock(v.Text); ok {
			body = main
			if thinking != "" {
				preview := util.TruncateRunes(util.SingleLine(thinking), maxThinkingPreview)
				sb.WriteString(theme.Thinking.Render("thinking: " + preview))
				sb.WriteString("\n")
			}
		}
		sb.WriteString(renderMarkdown(r, body))
		if v.Image != nil && *v.Image != "" {
			sb.WriteString(theme.Variant.Render("[image attached]"))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func turnHeader(t chatlog.Turn, theme Theme) string {
	label := theme.User.Render("You")
	if t.AIGenerated {
		label = theme.Assistant.Render("Assistant")
	}
	if len(t.Stack) > 1 {
		label += " " + theme.Variant.Render(fmt.Sprintf("(%d/%d)", t.Selected+1, len(t.Stack)))
	}
	return label
}

func renderMarkdown(r *glamour.TermRenderer, s string) string {
	if r == nil {
		return s + "\n"
	}
	out, err := r.Render(s)
	if err != nil {
		return s + "\n"
	}
	return out
}
