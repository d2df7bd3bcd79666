// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/switchboard/internal/chatlog"
)

// printer writes replies, rendering markdown only when out is a terminal so
// piped output stays plain.
type printer struct {
	out      io.Writer
	renderer *glamour.TermRenderer
}

func newPrinter(out io.Writer) *printer {
	p := &printer{out: out}
	if !isTerminal(out) {
		return p
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(terminalWidth(out, 80), 100)),
	)
	if err == nil {
		p.renderer = r
	}
	return p
}

func (p *printer) renderMarkdown(content string) string {
	if p.renderer == nil {
		return content
	}
	rendered, err := p.renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// reply prints an AI turn. Thinking is shown as a dim preface.
func (p *printer) reply(text string) {
	main, thinking, ok := chatlog.ParseThinkBlock(text)
	if !ok {
		main = text
	}
	if thinking != "" {
		fmt.Fprintln(p.out, infoStyle.Render("[thinking] "+thinking))
		fmt.Fprintln(p.out)
	}
	out := p.renderMarkdown(main)
	fmt.Fprint(p.out, out)
	if len(out) == 0 || out[len(out)-1] != '\n' {
		fmt.Fprintln(p.out)
	}
}
