// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatlog

import "strings"

// Thinking annotation markers.
const (
	ThinkStart = "<think>"
	ThinkEnd   = "</think>"
)

// ParseThinkBlock splits a leading thinking annotation from s.
//
// s is trimmed first. The start marker must open the text and an end marker
// must follow somewhere; otherwise ok is false. main is the trimmed text after
// the end marker and thinking is the trimmed text between the markers.
func ParseThinkBlock(s string) (main, thinking string, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, ThinkStart) {
		return "", "", false
	}
	end := strings.Index(s, ThinkEnd)
	if end < 0 {
		return "", "", false
	}
	thinking = strings.TrimSpace(s[len(ThinkStart):end])
	main = strings.TrimSpace(s[end+len(ThinkEnd):])
	return main, thinking, true
}

// StripThinking returns the main content of s, or s unchanged when it carries
// no complete leading annotation.
func StripThinking(s string) string {
	if main, _, ok := ParseThinkBlock(s); ok {
		return main
	}
	return s
}

// WrapThinking combines model reasoning and content into one annotated body.
func WrapThinking(reasoning, content string) string {
	return ThinkStart + strings.TrimSpace(reasoning) + ThinkEnd + "\n" + strings.TrimSpace(content)
}
