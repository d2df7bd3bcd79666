// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/switchboard/internal/chatlog"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports logs to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a log to Markdown.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil || doc.Log == nil {
		return nil, fmt.Errorf("nothing to export")
	}
	turns := doc.Log.Turns()
	title := doc.Title
	if strings.TrimSpace(title) == "" {
		title = "Chatlog"
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(title)))
		sb.WriteString(fmt.Sprintf("model: %s\n", escapeYAML(doc.Endpoint.ModelID)))
		sb.WriteString(fmt.Sprintf("endpoint: %s\n", escapeYAML(doc.Endpoint.Endpoint)))
		sb.WriteString(fmt.Sprintf("turns: %d\n", len(turns)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", e.options.now().Format(time.RFC3339)))
		sb.WriteString("generator: switchboard\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(title)))

	if sys := strings.TrimSpace(doc.SystemMessage); sys != "" {
		sb.WriteString("## System\n\n")
		sb.WriteString(quote(sys))
		sb.WriteString("\n\n")
	}

	for i, t := range turns {
		if i > 0 {
			sb.WriteString("---\n\n")
		}
		sb.WriteString(fmt.Sprintf("### %s\n\n", roleLabel(t)))

		if e.options.AllVariants && len(t.Stack) > 1 {
			for vi, v := range t.Stack {
				marker := ""
				if vi == t.Selected {
					marker = " (selected)"
				}
				sb.WriteString(fmt.Sprintf("#### Variant %d of %d%s\n\n", vi+1, len(t.Stack), marker))
				sb.WriteString(e.formatBody(v))
				sb.WriteString("\n\n")
			}
			continue
		}

		sb.WriteString(e.formatBody(t.SelectedVariant()))
		sb.WriteString("\n\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func roleLabel(t chatlog.Turn) string {
	if t.AIGenerated {
		return "[Assistant]"
	}
	return "[User]"
}

// formatBody renders one variant. Thinking is dropped unless requested, in
// which case it is quoted ahead of the main content.
func (e *MarkdownExporter) formatBody(v chatlog.Variant) string {
	var sb strings.Builder
	main, thinking, ok := chatlog.ParseThinkBlock(v.Text)
	if !ok {
		main = strings.TrimSpace(v.Text)
	}
	if ok && e.options.IncludeThinking && thinking != "" {
		sb.WriteString("> **Thinking**\n>\n")
		sb.WriteString(quote(thinking))
		sb.WriteString("\n\n")
	}
	sb.WriteString(main)
	if v.Image != nil && *v.Image != "" {
		sb.WriteString("\n\n*[image attached]*")
	}
	return sb.String()
}

func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes a value when it contains YAML-significant characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
