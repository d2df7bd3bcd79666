// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/switchboard/internal/chatlog"
	"github.com/jeranaias/switchboard/internal/config"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
}

func sampleDoc() *Document {
	log := chatlog.New(nil)
	img := "data:image/png;base64,AAAA"
	log.AddTurn("What is *this*?", false, &img)
	id := log.AddTurn("<think>look closer</think>A cat.", true, nil)
	log.PushVariant(id, "A dog.", nil)

	return &Document{
		Title:         "Pets: round 1",
		Log:           log,
		Endpoint:      config.DefaultEndpoint(),
		SystemMessage: "Be terse.\nAlways.",
	}
}

func TestMarkdown_Default(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{IncludeMetadata: true, Now: fixedNow}).Export(sampleDoc())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: \"Pets: round 1\"\n"))
	assert.Contains(t, md, `model: "google/gemma-3-27b-it:free"`)
	assert.Contains(t, md, "turns: 2\n")
	assert.Contains(t, md, "exported: 2025-06-01T09:30:00Z")
	assert.Contains(t, md, "# Pets: round 1\n")
	assert.Contains(t, md, "## System\n\n> Be terse.\n> Always.")
	assert.Contains(t, md, "### [User]\n\nWhat is *this*?\n\n*[image attached]*")
	assert.Contains(t, md, "### [Assistant]\n\nA dog.")
	assert.NotContains(t, md, "A cat.")
	assert.NotContains(t, md, "look closer")
}

func TestMarkdown_AllVariantsWithThinking(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{AllVariants: true, IncludeThinking: true}).Export(sampleDoc())
	require.NoError(t, err)
	md := string(out)

	assert.False(t, strings.HasPrefix(md, "---"))
	assert.Contains(t, md, "#### Variant 1 of 2\n\n> **Thinking**\n>\n> look closer\n\nA cat.")
	assert.Contains(t, md, "#### Variant 2 of 2 (selected)\n\nA dog.")
}

func TestMarkdown_EmptyTitle(t *testing.T) {
	doc := sampleDoc()
	doc.Title = " "
	out, err := NewMarkdownExporter(&Options{}).Export(doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# Chatlog\n"))

	_, err = NewMarkdownExporter(nil).Export(&Document{})
	assert.Error(t, err)
}

func TestJSON_IsImportable(t *testing.T) {
	doc := sampleDoc()
	out, err := NewJSONExporter().Export(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  \"version\": 1")

	log, endpoint, sys, err := chatlog.FromSnapshot(out, nil)
	require.NoError(t, err)
	assert.Equal(t, doc.Log.Turns(), log.Turns())
	assert.Equal(t, doc.Endpoint, endpoint)
	assert.Equal(t, doc.SystemMessage, sys)
}

func TestForFormat(t *testing.T) {
	e, err := ForFormat("md", nil)
	require.NoError(t, err)
	assert.Equal(t, ".md", e.FileExtension())

	e, err = ForFormat("JSON", nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json", e.MimeType())

	_, err = ForFormat("html", nil)
	assert.Error(t, err)
}

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	opts := &Options{OutputDir: dir, Now: fixedNow}

	path, err := ExportToFile(sampleDoc(), NewMarkdownExporter(opts), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chatlog_Pets-_round_1_20250601_093000.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "A dog.")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"simple", "simple"},
		{"a/b\\c", "a-b-c"},
		{"two words", "two_words"},
		{"", "chatlog"},
		{"bell\x07", "bell-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), "input %q", tt.in)
	}
}
