// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/switchboard/internal/chatlog"
	"github.com/jeranaias/switchboard/internal/completion"
	"github.com/jeranaias/switchboard/internal/config"
	"github.com/jeranaias/switchboard/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

// fakeProvider answers every completion with the next queued reply.
type fakeProvider struct {
	mu       sync.Mutex
	replies  []string
	status   int
	requests []map[string]any
}

func (p *fakeProvider) handler(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	var req map[string]any
	_ = json.Unmarshal(body, &req)
	p.requests = append(p.requests, req)

	if p.status != 0 && p.status != http.StatusOK {
		w.WriteHeader(p.status)
		_, _ = w.Write([]byte(`{"error":{"message":"provider says no"}}`))
		return
	}
	reply := "reply"
	if len(p.replies) > 0 {
		reply, p.replies = p.replies[0], p.replies[1:]
	}
	out, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": reply}}},
	})
	_, _ = w.Write(out)
}

func (p *fakeProvider) lastMessages(t *testing.T) []any {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.requests)
	return p.requests[len(p.requests)-1]["messages"].([]any)
}

// deferredScheduler holds work until Run is called.
type deferredScheduler struct {
	queued []func() func()
}

func (s *deferredScheduler) Schedule(work func() func()) {
	s.queued = append(s.queued, work)
}

func (s *deferredScheduler) Run() {
	q := s.queued
	s.queued = nil
	for _, w := range q {
		if cont := w(); cont != nil {
			cont()
		}
	}
}

type harness struct {
	app      *App
	store    *storage.MemoryStore
	provider *fakeProvider
	alerts   []string
}

func newHarness(t *testing.T, sched Scheduler, replies ...string) *harness {
	t.Helper()
	provider := &fakeProvider{replies: replies}
	srv := httptest.NewServer(http.HandlerFunc(provider.handler))
	t.Cleanup(srv.Close)

	h := &harness{store: storage.NewMemoryStore(), provider: provider}
	endpoint := config.DefaultEndpoint()
	endpoint.Endpoint = srv.URL
	require.NoError(t, storage.Save(h.store, KeyAPIConfig, endpoint))

	h.app = New(Options{
		Store:     h.store,
		Client:    completion.NewClient(),
		Scheduler: sched,
		Notifier:  NotifierFunc(func(msg string) { h.alerts = append(h.alerts, msg) }),
	})
	return h
}

func texts(turns []chatlog.Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Text()
	}
	return out
}

// =============================================================================
// HYDRATION
// =============================================================================

func TestNew_EmptyStoreDefaults(t *testing.T) {
	a := New(Options{Store: storage.NewMemoryStore(), DarkModeDefault: true})

	assert.Equal(t, config.DefaultEndpoint(), a.Endpoint())
	assert.Equal(t, "", a.SystemMessage())
	assert.True(t, a.DarkMode())
	assert.Zero(t, a.Log().Len())
	assert.Empty(t, a.Logs())
	assert.False(t, a.Pending())
}

func TestNew_SeedEndpoint(t *testing.T) {
	seed := config.DefaultEndpoint()
	seed.ModelID = "seeded"
	a := New(Options{Store: storage.NewMemoryStore(), DefaultEndpoint: seed})
	assert.Equal(t, "seeded", a.Endpoint().ModelID)
}

func TestNew_HydratesStoredState(t *testing.T) {
	store := storage.NewMemoryStore()
	log := chatlog.New(nil)
	log.AddTurn("hello", false, nil)
	log.AddTurn("hi!", true, nil)
	data, err := log.ToSnapshot(config.DefaultEndpoint(), "")
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyCurrentLog, string(data)))
	require.NoError(t, storage.Save(store, KeySystemMessage, "Be terse."))
	require.NoError(t, storage.Save(store, KeyDarkMode, false))

	a := New(Options{Store: store, DarkModeDefault: true})
	assert.Equal(t, []string{"hello", "hi!"}, texts(a.Turns()))
	assert.Equal(t, uint32(3), a.Log().NextID())
	assert.Equal(t, "Be terse.", a.SystemMessage())
	assert.False(t, a.DarkMode())
}

func TestNew_CorruptValuesFallBack(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(KeyCurrentLog, "{not json"))
	require.NoError(t, store.Set(KeyAPIConfig, "[]"))
	require.NoError(t, store.Set(KeyCatalog, "7"))

	a := New(Options{Store: store})
	assert.Zero(t, a.Log().Len())
	assert.Equal(t, config.DefaultEndpoint(), a.Endpoint())
	assert.Empty(t, a.Logs())
}

// =============================================================================
// RESPONSES
// =============================================================================

func TestSend_AddsUserAndAITurns(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "Hello back")

	require.NoError(t, h.app.Send("Hello", nil))

	turns := h.app.Turns()
	require.Len(t, turns, 2)
	assert.False(t, turns[0].AIGenerated)
	assert.True(t, turns[1].AIGenerated)
	assert.Equal(t, "Hello back", turns[1].Text())
	assert.False(t, h.app.Pending())
	assert.Empty(t, h.alerts)
	require.NotNil(t, h.app.LastResponse())

	// Current log is written through.
	raw, err := h.store.Get(KeyCurrentLog)
	require.NoError(t, err)
	restored, _, _, err := chatlog.FromSnapshot([]byte(raw), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", "Hello back"}, texts(restored.Turns()))
}

func TestSend_BlankTextContinues(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "first", "more")
	require.NoError(t, h.app.Send("go", nil))
	require.NoError(t, h.app.Send("   ", nil))

	assert.Equal(t, []string{"go", "first", "more"}, texts(h.app.Turns()))
}

func TestSend_SystemMessageInPrompt(t *testing.T) {
	h := newHarness(t, InlineScheduler{})
	require.NoError(t, h.app.SetSystemMessage("Be terse."))
	require.NoError(t, h.app.Send("hi", nil))

	assert.Equal(t, []any{
		map[string]any{"role": "system", "content": "Be terse."},
		map[string]any{"role": "user", "content": "hi"},
	}, h.provider.lastMessages(t))
}

func TestRegenerate_PushesVariant(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "A1", "A2")
	require.NoError(t, h.app.Send("Q", nil))
	require.NoError(t, h.app.Regenerate())

	turns := h.app.Turns()
	require.Len(t, turns, 2)
	assert.Len(t, turns[1].Stack, 2)
	assert.Equal(t, 1, turns[1].Selected)
	assert.Equal(t, "A2", turns[1].Text())
	assert.False(t, h.app.Log().IsRegenerating())

	// The replaced turn is not part of the prompt.
	assert.Equal(t, []any{map[string]any{"role": "user", "content": "Q"}}, h.provider.lastMessages(t))

	require.NoError(t, h.app.ShiftLastVariant(-1))
	assert.Equal(t, "A1", h.app.Turns()[1].Text())
}

func TestRegenerate_RequiresAITurn(t *testing.T) {
	h := newHarness(t, InlineScheduler{})
	assert.ErrorIs(t, h.app.Regenerate(), ErrNothingToRegenerate)

	h.app.Log().AddTurn("user only", false, nil)
	assert.ErrorIs(t, h.app.Regenerate(), ErrNothingToRegenerate)
}

func TestResponseFailure_LeavesLogUnchanged(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "A1")
	require.NoError(t, h.app.Send("Q", nil))
	require.NoError(t, h.app.LastError())
	before := h.app.Turns()

	h.provider.mu.Lock()
	h.provider.status = http.StatusUnauthorized
	h.provider.mu.Unlock()

	require.NoError(t, h.app.Regenerate())

	assert.Equal(t, before, h.app.Turns())
	assert.False(t, h.app.Pending())
	assert.False(t, h.app.Log().IsRegenerating())
	require.Len(t, h.alerts, 1)
	assert.Contains(t, h.alerts[0], "provider says no")

	var apiErr *completion.APIError
	require.ErrorAs(t, h.app.LastError(), &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestPending_BlocksMutations(t *testing.T) {
	sched := &deferredScheduler{}
	h := newHarness(t, sched, "late")

	require.NoError(t, h.app.Send("Q", nil))
	assert.True(t, h.app.Pending())

	assert.ErrorIs(t, h.app.Send("again", nil), ErrResponsePending)
	assert.ErrorIs(t, h.app.Regenerate(), ErrResponsePending)
	assert.ErrorIs(t, h.app.DeleteTurn(1), ErrResponsePending)
	assert.ErrorIs(t, h.app.EditTurn(1, "x"), ErrResponsePending)
	assert.ErrorIs(t, h.app.SetSystemMessage("x"), ErrResponsePending)
	assert.ErrorIs(t, h.app.ToggleDarkMode(), ErrResponsePending)
	_, err := h.app.SaveAs("x")
	assert.ErrorIs(t, err, ErrResponsePending)
	assert.ErrorIs(t, h.app.Import([]byte(`{}`)), ErrResponsePending)

	// A second trigger while pending is ignored.
	h.app.GenerateResponse()
	assert.Len(t, sched.queued, 1)

	sched.Run()
	assert.False(t, h.app.Pending())
	assert.Equal(t, []string{"Q", "late"}, texts(h.app.Turns()))
}

// =============================================================================
// EDITING
// =============================================================================

func TestEditTurnAndDelete(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "A")
	require.NoError(t, h.app.Send("Q", nil))
	turns := h.app.Turns()

	require.NoError(t, h.app.EditTurn(turns[1].ID, "A edited"))
	assert.Equal(t, "A edited", h.app.Turns()[1].Text())
	assert.Len(t, h.app.Turns()[1].Stack, 1)

	require.NoError(t, h.app.DeleteTurn(turns[0].ID))
	assert.Equal(t, []string{"A edited"}, texts(h.app.Turns()))

	assert.ErrorIs(t, h.app.DeleteTurn(999), ErrTurnNotFound)
	assert.ErrorIs(t, h.app.EditTurn(999, "x"), ErrTurnNotFound)
	assert.True(t, IsNotFound(h.app.ShiftVariant(999, 1)))
}

func TestEditAndResend(t *testing.T) {
	h := newHarness(t, InlineScheduler{}, "A1", "A2", "A1b")
	require.NoError(t, h.app.Send("Q1", nil))
	require.NoError(t, h.app.Send("Q2", nil))
	first := h.app.Turns()[0]

	require.NoError(t, h.app.EditAndResend(first.ID, "Q1 again"))

	turns := h.app.Turns()
	assert.Equal(t, []string{"Q1 again", "A1b"}, texts(turns))
	assert.Greater(t, turns[0].ID, first.ID)
}

func TestSettingsWriteThrough(t *testing.T) {
	h := newHarness(t, InlineScheduler{})

	require.NoError(t, h.app.SetEndpointField("temperature", "0.2"))
	stored, err := storage.Load[config.Endpoint](h.store, KeyAPIConfig)
	require.NoError(t, err)
	assert.Equal(t, float32(0.2), stored.GetTemperature())

	assert.Error(t, h.app.SetEndpointField("bogus", "1"))

	require.NoError(t, h.app.SetDarkMode(true))
	require.NoError(t, h.app.ToggleDarkMode())
	assert.False(t, storage.LoadOr(h.store, KeyDarkMode, true))

	require.NoError(t, h.app.SetSystemMessage("sys"))
	assert.Equal(t, "sys", storage.LoadOr(h.store, KeySystemMessage, ""))
}

// failingStore rejects writes to one key.
type failingStore struct {
	*storage.MemoryStore
	failKey string
}

func (s *failingStore) Set(key, value string) error {
	if key == s.failKey {
		return errors.New("disk full")
	}
	return s.MemoryStore.Set(key, value)
}

func TestWriteThroughFailureDoesNotInterrupt(t *testing.T) {
	provider := &fakeProvider{replies: []string{"ok"}}
	srv := httptest.NewServer(http.HandlerFunc(provider.handler))
	defer srv.Close()

	store := &failingStore{MemoryStore: storage.NewMemoryStore(), failKey: KeyCurrentLog}
	endpoint := config.DefaultEndpoint()
	endpoint.Endpoint = srv.URL

	a := New(Options{Store: store, DefaultEndpoint: endpoint})
	require.NoError(t, a.Send("hi", nil))
	assert.Equal(t, []string{"hi", "ok"}, texts(a.Turns()))
}
