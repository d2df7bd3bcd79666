// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/switchboard/internal/catalog"
	"github.com/jeranaias/switchboard/internal/chatlog"
	"github.com/jeranaias/switchboard/internal/config"
	"github.com/jeranaias/switchboard/internal/storage"
)

func TestSaveAsAndLoad(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "A")
	require.NoError(t, h.app.Send("Q", nil))

	entry, err := h.app.SaveAs("  Trip  ")
	require.NoError(t, err)
	assert.Equal(t, "Trip", entry.Title)
	assert.Equal(t, 2, entry.MessageCount)
	assert.Equal(t, entry.ID, h.app.ActiveLogID())
	assert.True(t, storage.Has(h.store, entry.StorageKey))

	stored, err := storage.Load[catalog.Catalog](h.store, KeyCatalog)
	require.NoError(t, err)
	require.Len(t, stored.SavedLogs, 1)

	// Start fresh, then load it back.
	fresh, err := h.app.NewLog("scratch")
	require.NoError(t, err)
	assert.Zero(t, h.app.Log().Len())
	assert.Equal(t, fresh.ID, h.app.ActiveLogID())

	loaded, err := h.app.LoadLog(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q", "A"}, texts(h.app.Turns()))
	assert.Equal(t, entry.ID, loaded.ID)
	assert.Len(t, h.app.Logs(), 2)
	assert.Equal(t, entry.ID, h.app.Logs()[0].ID)
}

func TestSave_UsesActiveLog(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "A", "B")

	_, err := h.app.Save("")
	assert.ErrorIs(t, err, ErrNoActiveLog)

	require.NoError(t, h.app.Send("Q", nil))
	entry, err := h.app.SaveAs("log")
	require.NoError(t, err)

	require.NoError(t, h.app.Send("Q2", nil))
	saved, err := h.app.Save("")
	require.NoError(t, err)
	assert.Equal(t, 4, saved.MessageCount)

	raw, err := h.store.Get(entry.StorageKey)
	require.NoError(t, err)
	log, _, _, err := chatlog.FromSnapshot([]byte(raw), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, log.Len())

	_, err = h.app.Save("missing")
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestLoadLog_RestoresEndpointAndSystem(t *testing.T) {
	h := newHarness(t, InlineScheduler{})
	require.NoError(t, h.app.SetSystemMessage("old system"))
	entry, err := h.app.SaveAs("with system")
	require.NoError(t, err)

	require.NoError(t, h.app.SetSystemMessage("new system"))
	_, err = h.app.LoadLog(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "old system", h.app.SystemMessage())
}

func TestLoadLog_CorruptSnapshotKeepsState(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "A")
	require.NoError(t, h.app.Send("Q", nil))
	entry, err := h.app.SaveAs("x")
	require.NoError(t, err)
	require.NoError(t, h.store.Set(entry.StorageKey, "garbage"))

	require.NoError(t, h.app.DeleteTurn(h.app.Turns()[0].ID))
	before := h.app.Turns()

	_, err = h.app.LoadLog(entry.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, chatlog.ErrSnapshot)
	assert.Equal(t, before, h.app.Turns())

	_, err = h.app.LoadLog("nope")
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestDeleteAndRenameLog(t *testing.T) {
	h := newHarness(t, InlineScheduler{})
	entry, err := h.app.SaveAs("first")
	require.NoError(t, err)

	renamed, err := h.app.RenameLog(entry.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, "second", renamed.Title)

	require.NoError(t, h.app.DeleteLog(entry.ID))
	assert.Empty(t, h.app.Logs())
	assert.False(t, storage.Has(h.store, entry.StorageKey))
	assert.Empty(t, h.app.ActiveLogID())

	assert.ErrorIs(t, h.app.DeleteLog(entry.ID), ErrLogNotFound)
	_, err = h.app.RenameLog(entry.ID, "x")
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestCatalogSurvivesRestart(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "A")
	require.NoError(t, h.app.Send("Q", nil))
	entry, err := h.app.SaveAs("persisted")
	require.NoError(t, err)

	again := New(Options{Store: h.store})
	require.Len(t, again.Logs(), 1)
	assert.Equal(t, "persisted", again.Logs()[0].Title)
	assert.Equal(t, entry.ID, again.ActiveLogID())
	assert.Equal(t, []string{"Q", "A"}, texts(again.Turns()))
}

func TestExportImport(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "A")
	require.NoError(t, h.app.SetSystemMessage("sys"))
	require.NoError(t, h.app.Send("Q", nil))

	data, err := h.app.Export()
	require.NoError(t, err)

	other := New(Options{Store: storage.NewMemoryStore()})
	keyed := other.Endpoint()
	keyed.APIKey = "sk-mine"
	require.NoError(t, other.SetEndpoint(keyed))

	require.NoError(t, other.Import(data))
	assert.Equal(t, []string{"Q", "A"}, texts(other.Turns()))
	assert.Equal(t, "sys", other.SystemMessage())
	assert.Equal(t, h.app.Endpoint().Endpoint, other.Endpoint().Endpoint)
	assert.Equal(t, "sk-mine", other.Endpoint().APIKey)

	before := other.Turns()
	assert.ErrorIs(t, other.Import([]byte("nope")), chatlog.ErrSnapshot)
	assert.Equal(t, before, other.Turns())
}

func TestImport_EmptyEndpointKeepsCurrent(t *testing.T) {
	a := New(Options{Store: storage.NewMemoryStore()})
	data := []byte(`{"version":1,"api_settings":{},"system_message":"s","messages":[]}`)
	require.NoError(t, a.Import(data))
	assert.Equal(t, config.DefaultEndpoint(), a.Endpoint())
	assert.Equal(t, "s", a.SystemMessage())
}

func TestSuggestTitle(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "A")
	assert.Equal(t, catalog.UntitledTitle, h.app.SuggestTitle())

	require.NoError(t, h.app.Send("  plan a\n\ntrip to   Lisbon ", nil))
	assert.Equal(t, "plan a trip to Lisbon", h.app.SuggestTitle())

	long := strings.Repeat("word ", 30)
	_, err := h.app.NewLog("")
	require.NoError(t, err)
	require.NoError(t, h.app.Send(long, nil))
	title := h.app.SuggestTitle()
	assert.Len(t, []rune(title), maxSuggestedTitle)
	assert.True(t, strings.HasSuffix(title, "..."))
}
