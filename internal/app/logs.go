// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"fmt"

	"github.com/jeranaias/switchboard/internal/catalog"
	"github.com/jeranaias/switchboard/internal/chatlog"
	"github.com/jeranaias/switchboard/internal/storage"
	"github.com/jeranaias/switchboard/internal/util"
)

// maxSuggestedTitle bounds titles derived from the conversation.
const maxSuggestedTitle = 48

// =============================================================================
// SAVED LOGS
// =============================================================================

// SuggestTitle derives a title from the first user turn of the live log.
func (a *App) SuggestTitle() string {
	for _, t := range a.log.Turns() {
		if t.AIGenerated {
			continue
		}
		if title := util.TruncateRunes(util.SingleLine(t.Text()), maxSuggestedTitle); title != "" {
			return title
		}
	}
	return catalog.UntitledTitle
}

// Logs returns the saved logs, most recently accessed first.
func (a *App) Logs() []catalog.Entry {
	return a.catalog.Sorted()
}

// ResolveLog finds a saved log by id, id prefix or title.
func (a *App) ResolveLog(ref string) (catalog.Entry, error) {
	return a.catalog.Resolve(ref)
}

// NewLog starts an empty log and registers it in the catalog.
func (a *App) NewLog(title string) (catalog.Entry, error) {
	if a.pending {
		return catalog.Entry{}, ErrResponsePending
	}
	log := chatlog.New(a)
	entry := a.catalog.Add(title, 0)
	if err := a.writeSnapshot(log, entry.StorageKey); err != nil {
		a.catalog.Remove(entry.ID)
		return catalog.Entry{}, err
	}
	a.setLog(log)
	a.activeID = entry.ID
	a.persistCatalog()
	a.persistCurrent()
	return entry, nil
}

// SaveAs stores the live log under a new catalog entry.
func (a *App) SaveAs(title string) (catalog.Entry, error) {
	if a.pending {
		return catalog.Entry{}, ErrResponsePending
	}
	entry := a.catalog.Add(title, a.log.Len())
	if err := a.writeSnapshot(a.log, entry.StorageKey); err != nil {
		a.catalog.Remove(entry.ID)
		return catalog.Entry{}, err
	}
	a.activeID = entry.ID
	a.persistCatalog()
	return entry, nil
}

// Save overwrites saved log id with the live log. An empty id saves to the
// log the live one was loaded from.
func (a *App) Save(id string) (catalog.Entry, error) {
	if a.pending {
		return catalog.Entry{}, ErrResponsePending
	}
	if id == "" {
		id = a.activeID
	}
	if id == "" {
		return catalog.Entry{}, ErrNoActiveLog
	}
	entry, ok := a.catalog.Get(id)
	if !ok {
		return catalog.Entry{}, fmt.Errorf("%w: %s", ErrLogNotFound, id)
	}
	if err := a.writeSnapshot(a.log, entry.StorageKey); err != nil {
		return catalog.Entry{}, err
	}
	a.catalog.Touch(id, a.log.Len())
	a.activeID = id
	a.persistCatalog()

	entry, _ = a.catalog.Get(id)
	return entry, nil
}

// LoadLog replaces the live log, endpoint and system message with saved log id.
func (a *App) LoadLog(id string) (catalog.Entry, error) {
	if a.pending {
		return catalog.Entry{}, ErrResponsePending
	}
	entry, ok := a.catalog.Get(id)
	if !ok {
		return catalog.Entry{}, fmt.Errorf("%w: %s", ErrLogNotFound, id)
	}
	raw, err := a.store.Get(entry.StorageKey)
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("failed to read saved log %q: %w", entry.Title, err)
	}
	if err := a.adopt([]byte(raw)); err != nil {
		return catalog.Entry{}, err
	}

	a.catalog.Touch(id, a.log.Len())
	a.activeID = id
	a.persistCatalog()

	entry, _ = a.catalog.Get(id)
	return entry, nil
}

// DeleteLog removes saved log id and its snapshot. The live log is kept.
func (a *App) DeleteLog(id string) error {
	if a.pending {
		return ErrResponsePending
	}
	entry, ok := a.catalog.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrLogNotFound, id)
	}
	if err := storage.Delete(a.store, entry.StorageKey); err != nil {
		return err
	}
	a.catalog.Remove(id)
	if a.activeID == id {
		a.activeID = ""
	}
	a.persistCatalog()
	return nil
}

// RenameLog retitles saved log id.
func (a *App) RenameLog(id, title string) (catalog.Entry, error) {
	if a.pending {
		return catalog.Entry{}, ErrResponsePending
	}
	if !a.catalog.Rename(id, title) {
		return catalog.Entry{}, fmt.Errorf("%w: %s", ErrLogNotFound, id)
	}
	a.persistCatalog()
	entry, _ := a.catalog.Get(id)
	return entry, nil
}

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

// Export returns the live log as a snapshot.
func (a *App) Export() ([]byte, error) {
	return a.log.ToSnapshot(a.endpoint, a.systemMsg)
}

// Import replaces the live log, endpoint and system message with a snapshot.
// On error nothing changes.
func (a *App) Import(data []byte) error {
	if a.pending {
		return ErrResponsePending
	}
	if err := a.adopt(data); err != nil {
		return err
	}
	a.activeID = ""
	persist(a, KeyActiveCatalogID, "")
	return nil
}

// adopt installs a snapshot as the live state. An empty endpoint URL in the
// snapshot keeps the current endpoint, and an empty API key keeps the
// current key.
func (a *App) adopt(data []byte) error {
	log, endpoint, systemMsg, err := chatlog.FromSnapshot(data, a)
	if err != nil {
		return err
	}

	if endpoint.Endpoint != "" {
		if endpoint.APIKey == "" {
			endpoint.APIKey = a.endpoint.APIKey
		}
		a.endpoint = endpoint
		persist(a, KeyAPIConfig, endpoint)
	}
	a.systemMsg = systemMsg
	persist(a, KeySystemMessage, systemMsg)

	a.setLog(log)
	a.persistCurrent()
	return nil
}

func (a *App) writeSnapshot(log *chatlog.Log, key string) error {
	data, err := log.ToSnapshot(a.endpoint, a.systemMsg)
	if err != nil {
		return err
	}
	if err := a.store.Set(key, string(data)); err != nil {
		return fmt.Errorf("failed to save log: %w", err)
	}
	return nil
}

func (a *App) persistCatalog() {
	persist(a, KeyCatalog, a.catalog)
	persist(a, KeyActiveCatalogID, a.activeID)
}

// IsNotFound reports whether err means a turn or saved log does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTurnNotFound) || errors.Is(err, ErrLogNotFound) ||
		errors.Is(err, catalog.ErrNoMatch) || errors.Is(err, storage.ErrNotFound)
}
