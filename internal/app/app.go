// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jeranaias/switchboard/internal/catalog"
	"github.com/jeranaias/switchboard/internal/chatlog"
	"github.com/jeranaias/switchboard/internal/completion"
	"github.com/jeranaias/switchboard/internal/config"
	"github.com/jeranaias/switchboard/internal/logging"
	"github.com/jeranaias/switchboard/internal/storage"
)

// Storage keys.
const (
	KeyAPIConfig       = "api_config"
	KeySystemMessage   = "system_message"
	KeyCurrentLog      = "current_chatlog"
	KeyDarkMode        = "dark_mode"
	KeyCatalog         = "chatlog_metadata"
	KeyActiveCatalogID = "active_chatlog"
)

var (
	// ErrResponsePending is returned by mutating operations while a request
	// is outstanding.
	ErrResponsePending = errors.New("a response is still pending")

	// ErrNothingToRegenerate is returned when the newest turn is not an AI turn.
	ErrNothingToRegenerate = errors.New("the newest turn is not an AI response")

	// ErrTurnNotFound is returned for an unknown turn id.
	ErrTurnNotFound = errors.New("turn not found")

	// ErrLogNotFound is returned for an unknown catalog id.
	ErrLogNotFound = errors.New("saved log not found")

	// ErrNoActiveLog is returned by Save when the live log was never saved.
	ErrNoActiveLog = errors.New("the current log has not been saved yet")
)

// =============================================================================
// APP
// =============================================================================

// Options configure New.
type Options struct {
	Store     storage.Store
	Client    *completion.Client
	Scheduler Scheduler
	Notifier  Notifier
	Logger    *slog.Logger

	// Context is passed to completion requests.
	Context context.Context

	// DefaultEndpoint seeds api_config when the store has none.
	DefaultEndpoint config.Endpoint

	// DarkModeDefault is used when the store has no dark_mode value.
	DarkModeDefault bool
}

// App is the state of one session.
type App struct {
	store     storage.Store
	client    *completion.Client
	scheduler Scheduler
	notifier  Notifier
	logger    *slog.Logger
	ctx       context.Context

	log          *chatlog.Log
	cancelWatch  func()
	endpoint     config.Endpoint
	systemMsg    string
	catalog      *catalog.Catalog
	darkMode     bool
	activeID     string
	pending      bool
	lastResponse *completion.Response
	lastErr      error
}

// New builds an App and hydrates it from opts.Store.
func New(opts Options) *App {
	a := &App{
		store:     opts.Store,
		client:    opts.Client,
		scheduler: opts.Scheduler,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		ctx:       opts.Context,
	}
	if a.store == nil {
		a.store = storage.NewMemoryStore()
	}
	if a.client == nil {
		a.client = completion.NewClient()
	}
	if a.scheduler == nil {
		a.scheduler = InlineScheduler{}
	}
	if a.notifier == nil {
		a.notifier = NotifierFunc(func(string) {})
	}
	if a.logger == nil {
		a.logger = logging.Discard()
	}
	if a.ctx == nil {
		a.ctx = context.Background()
	}

	a.hydrate(opts)
	return a
}

func (a *App) hydrate(opts Options) {
	seed := opts.DefaultEndpoint
	if seed.Endpoint == "" {
		seed = config.DefaultEndpoint()
	}
	endpoint, err := storage.Load[config.Endpoint](a.store, KeyAPIConfig)
	switch {
	case err == nil:
		a.endpoint = endpoint
	case errors.Is(err, storage.ErrNotFound):
		a.endpoint = seed
	default:
		a.logger.Warn("stored endpoint unreadable, using defaults", "error", err)
		a.endpoint = seed
	}

	a.systemMsg = storage.LoadOr(a.store, KeySystemMessage, "")
	a.darkMode = storage.LoadOr(a.store, KeyDarkMode, opts.DarkModeDefault)

	a.catalog = catalog.New()
	if cat, err := storage.Load[catalog.Catalog](a.store, KeyCatalog); err == nil {
		if cat.SavedLogs == nil {
			cat.SavedLogs = []catalog.Entry{}
		}
		a.catalog = &cat
	} else if !errors.Is(err, storage.ErrNotFound) {
		a.logger.Warn("stored catalog unreadable, starting empty", "error", err)
	}

	a.activeID = storage.LoadOr(a.store, KeyActiveCatalogID, "")
	if _, ok := a.catalog.Get(a.activeID); !ok {
		a.activeID = ""
	}

	log := chatlog.New(a)
	if raw, err := a.store.Get(KeyCurrentLog); err == nil {
		restored, _, _, err := chatlog.FromSnapshot([]byte(raw), a)
		if err != nil {
			a.logger.Warn("current log unreadable, starting empty", "error", err)
		} else {
			log = restored
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		a.logger.Warn("current log could not be read", "error", err)
	}
	a.setLog(log)

	a.logger.Debug("session hydrated",
		"turns", a.log.Len(),
		"saved_logs", a.catalog.Len(),
		"model", a.endpoint.ModelID,
		"key_fingerprint", completion.KeyFingerprint(a.endpoint.APIKey))
}

// setLog installs log as the live log and writes it through on every change.
func (a *App) setLog(log *chatlog.Log) {
	if a.cancelWatch != nil {
		a.cancelWatch()
	}
	log.SetResponder(a)
	a.log = log
	a.cancelWatch = log.OnChange(a.persistCurrent)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Turns returns a copy of the live log's turns.
func (a *App) Turns() []chatlog.Turn { return a.log.Turns() }

// Log returns the live log. Callers must not mutate it while a response is
// pending.
func (a *App) Log() *chatlog.Log { return a.log }

// Endpoint returns the current endpoint settings.
func (a *App) Endpoint() config.Endpoint { return a.endpoint }

// SystemMessage returns the current system message.
func (a *App) SystemMessage() string { return a.systemMsg }

// DarkMode reports the theme flag.
func (a *App) DarkMode() bool { return a.darkMode }

// Pending reports whether a response is outstanding.
func (a *App) Pending() bool { return a.pending }

// ActiveLogID returns the catalog id the live log belongs to, if any.
func (a *App) ActiveLogID() string { return a.activeID }

// LastResponse returns the most recent successful completion.
func (a *App) LastResponse() *completion.Response { return a.lastResponse }

// LastError returns the error of the most recent request, or nil when it
// succeeded.
func (a *App) LastError() error { return a.lastErr }

// =============================================================================
// WRITE-THROUGH
// =============================================================================

// persistCurrent saves the live log. Failures are logged only.
func (a *App) persistCurrent() {
	data, err := a.log.ToSnapshot(a.endpoint, a.systemMsg)
	if err != nil {
		a.logger.Error("failed to serialize current log", "error", err)
		return
	}
	if err := a.store.Set(KeyCurrentLog, string(data)); err != nil {
		a.logger.Error("failed to save current log", "error", err)
	}
}

// persist saves a plain value. Failures are logged only.
func persist[T any](a *App, key string, value T) {
	if err := storage.Save(a.store, key, value); err != nil {
		a.logger.Error("write-through failed", "key", key, "error", err)
	}
}
