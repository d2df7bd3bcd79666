// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseThinkBlock(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantMain     string
		wantThinking string
		wantOK       bool
	}{
		{"simple", "<think>plan</think>answer", "answer", "plan", true},
		{"whitespace", "  \n<think> plan </think>\n\n answer  ", "answer", "plan", true},
		{"empty main", "<think>only</think>", "", "only", true},
		{"missing end", "<think>never closed", "", "", false},
		{"not leading", "answer <think>x</think>", "", "", false},
		{"plain", "just text", "", "", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			main, thinking, ok := ParseThinkBlock(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMain, main)
			assert.Equal(t, tt.wantThinking, thinking)
		})
	}
}

func TestStripThinking(t *testing.T) {
	assert.Equal(t, "answer", StripThinking("<think>plan</think>answer"))
	assert.Equal(t, "<think>open", StripThinking("<think>open"))
	assert.Equal(t, " as is ", StripThinking(" as is "))
}

func TestWrapThinking(t *testing.T) {
	assert.Equal(t, "<think>r</think>\nc", WrapThinking(" r ", "\nc\n"))

	main, thinking, ok := ParseThinkBlock(WrapThinking("why", "what"))
	assert.True(t, ok)
	assert.Equal(t, "what", main)
	assert.Equal(t, "why", thinking)
}
