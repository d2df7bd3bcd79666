// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/jeranaias/switchboard/internal/config"
)

// =============================================================================
// CONVERSATION
// =============================================================================

// Send appends a user turn and requests a reply. Blank text skips the user
// turn and asks the model to continue.
func (a *App) Send(text string, image *string) error {
	if a.pending {
		return ErrResponsePending
	}
	if strings.TrimSpace(text) != "" {
		a.log.AddTurn(text, false, image)
	}
	a.log.TriggerResponseGeneration()
	return nil
}

// Regenerate requests a replacement for the newest AI turn. The result is
// pushed onto that turn's variant stack.
func (a *App) Regenerate() error {
	if a.pending {
		return ErrResponsePending
	}
	last, ok := a.log.LastTurn()
	if !ok || !last.AIGenerated {
		return ErrNothingToRegenerate
	}
	a.log.SetRegenerating(true)
	a.log.TriggerResponseGeneration()
	return nil
}

// EditTurn replaces the selected variant of a turn.
func (a *App) EditTurn(id uint32, text string) error {
	if a.pending {
		return ErrResponsePending
	}
	turn, ok := a.log.Turn(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTurnNotFound, id)
	}
	a.log.ReplaceSelectedVariant(id, text, turn.SelectedVariant().Image)
	return nil
}

// EditAndResend discards turn id and everything after it, appends text as a
// new user turn carrying the original image, and requests a reply.
func (a *App) EditAndResend(id uint32, text string) error {
	if a.pending {
		return ErrResponsePending
	}
	turn, ok := a.log.Turn(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTurnNotFound, id)
	}
	a.log.TruncateFrom(id)
	a.log.AddTurn(text, false, turn.SelectedVariant().Image)
	a.log.TriggerResponseGeneration()
	return nil
}

// DeleteTurn removes a single turn.
func (a *App) DeleteTurn(id uint32) error {
	if a.pending {
		return ErrResponsePending
	}
	if _, ok := a.log.Turn(id); !ok {
		return fmt.Errorf("%w: %d", ErrTurnNotFound, id)
	}
	a.log.RemoveTurn(id)
	return nil
}

// ShiftVariant moves the selected variant of a turn by delta.
func (a *App) ShiftVariant(id uint32, delta int) error {
	if a.pending {
		return ErrResponsePending
	}
	if _, ok := a.log.Turn(id); !ok {
		return fmt.Errorf("%w: %d", ErrTurnNotFound, id)
	}
	a.log.ShiftSelectedVariant(id, delta)
	return nil
}

// ShiftLastVariant moves the selection of the newest turn.
func (a *App) ShiftLastVariant(delta int) error {
	last, ok := a.log.LastTurn()
	if !ok {
		return ErrTurnNotFound
	}
	return a.ShiftVariant(last.ID, delta)
}

// =============================================================================
// SETTINGS
// =============================================================================

// SetEndpoint replaces the endpoint settings.
func (a *App) SetEndpoint(e config.Endpoint) error {
	if a.pending {
		return ErrResponsePending
	}
	a.endpoint = e
	persist(a, KeyAPIConfig, e)
	a.persistCurrent()
	return nil
}

// SetEndpointField updates one endpoint field by its JSON name.
func (a *App) SetEndpointField(key, value string) error {
	e := a.endpoint
	if err := e.Set(key, value); err != nil {
		return err
	}
	return a.SetEndpoint(e)
}

// SetSystemMessage replaces the system message.
func (a *App) SetSystemMessage(msg string) error {
	if a.pending {
		return ErrResponsePending
	}
	a.systemMsg = msg
	persist(a, KeySystemMessage, msg)
	a.persistCurrent()
	return nil
}

// SetDarkMode sets the theme flag.
func (a *App) SetDarkMode(on bool) error {
	if a.pending {
		return ErrResponsePending
	}
	a.darkMode = on
	persist(a, KeyDarkMode, on)
	return nil
}

// ToggleDarkMode flips the theme flag.
func (a *App) ToggleDarkMode() error {
	return a.SetDarkMode(!a.darkMode)
}
