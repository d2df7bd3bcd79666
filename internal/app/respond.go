// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"time"

	"github.com/jeranaias/switchboard/internal/chatlog"
	"github.com/jeranaias/switchboard/internal/completion"
)

// Scheduler runs work away from the owner's loop. work returns a continuation
// that the scheduler must run back on the loop, exactly once.
type Scheduler interface {
	Schedule(work func() func())
}

// InlineScheduler runs the work and its continuation immediately. It suits
// the REPL and one-shot commands, whose loop simply waits.
type InlineScheduler struct{}

// Schedule runs work and then its continuation.
func (InlineScheduler) Schedule(work func() func()) {
	if cont := work(); cont != nil {
		cont()
	}
}

// Notifier shows an alert to the user.
type Notifier interface {
	Alert(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Alert calls f.
func (f NotifierFunc) Alert(msg string) { f(msg) }

// GenerateResponse requests the next AI turn for the live log. It returns
// immediately when a response is already pending.
func (a *App) GenerateResponse() {
	if a.pending {
		a.logger.Warn("response requested while another is pending")
		return
	}
	a.pending = true

	log := a.log
	turns := log.Turns()
	regenerating := log.IsRegenerating()
	endpoint := a.endpoint
	systemMsg := a.systemMsg
	client := a.client
	ctx := a.ctx

	a.logger.Debug("generating response", "turns", len(turns), "regenerating", regenerating)

	a.scheduler.Schedule(func() func() {
		start := time.Now()
		resp, err := client.Send(ctx, turns, regenerating, endpoint, systemMsg)
		elapsed := time.Since(start)
		return func() {
			a.finishResponse(log, regenerating, resp, err, elapsed)
		}
	})
}

func (a *App) finishResponse(log *chatlog.Log, regenerating bool, resp *completion.Response, err error, elapsed time.Duration) {
	a.pending = false
	a.lastErr = err

	if err != nil {
		a.logger.Error("response generation failed", "error", err, "duration", elapsed.Round(time.Millisecond))
		log.SetRegenerating(false)
		a.notifier.Alert("Failed to generate the AI's response:\n\n" + err.Error())
		return
	}

	// The live log may have been swapped while the request was in flight.
	if log != a.log {
		a.logger.Warn("discarding response for a log that is no longer active")
		return
	}

	if last, ok := log.LastTurn(); regenerating && ok && last.AIGenerated {
		log.PushVariant(last.ID, resp.Text, nil)
	} else {
		log.AddTurn(resp.Text, true, nil)
	}
	log.SetRegenerating(false)
	a.lastResponse = resp

	a.logger.Info("response received",
		"chars", len(resp.Text),
		"regenerated", regenerating,
		"duration", elapsed.Round(time.Millisecond))
}
