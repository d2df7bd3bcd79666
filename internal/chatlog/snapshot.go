// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatlog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeranaias/switchboard/internal/config"
)

// SnapshotVersion is written into every snapshot envelope.
const SnapshotVersion = 1

// ErrSnapshot wraps every failure to encode or decode a snapshot.
var ErrSnapshot = errors.New("chatlog snapshot")

type snapshot struct {
	Version       uint16          `json:"version"`
	APISettings   config.Endpoint `json:"api_settings"`
	SystemMessage string          `json:"system_message"`
	Messages      []snapshotTurn  `json:"messages"`
}

type snapshotTurn struct {
	AIGenerated     bool              `json:"ai_generated"`
	ID              uint32            `json:"id"`
	MessageStack    []snapshotVariant `json:"message_stack"`
	SelectedMessage int               `json:"selected_message"`

	// Older logs stored a single body per turn.
	LegacyMessage *string `json:"message,omitempty"`
	LegacyImage   *string `json:"image_base64,omitempty"`
}

type snapshotVariant struct {
	Message     string  `json:"message"`
	ImageBase64 *string `json:"image_base64"`
}

// ToSnapshot serializes the log together with the endpoint and system message
// it was used with.
func (l *Log) ToSnapshot(endpoint config.Endpoint, systemMessage string) ([]byte, error) {
	snap := snapshot{
		Version:       SnapshotVersion,
		APISettings:   endpoint,
		SystemMessage: systemMessage,
		Messages:      make([]snapshotTurn, 0, len(l.turns)),
	}
	for _, t := range l.turns {
		st := snapshotTurn{
			AIGenerated:     t.AIGenerated,
			ID:              t.ID,
			MessageStack:    make([]snapshotVariant, 0, len(t.Stack)),
			SelectedMessage: t.Selected,
		}
		for _, v := range t.Stack {
			st.MessageStack = append(st.MessageStack, snapshotVariant{Message: v.Text, ImageBase64: v.Image})
		}
		snap.Messages = append(snap.Messages, st)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	return data, nil
}

// FromSnapshot rebuilds a log from data. The next id is one past the highest
// stored id, or 1 for an empty log. Turns without a variant stack are migrated
// from the single-body layout and out-of-range selections are clamped. Other
// versions are read on a best-effort basis.
func FromSnapshot(data []byte, responder Responder) (*Log, config.Endpoint, string, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, config.Endpoint{}, "", fmt.Errorf("%w: %w", ErrSnapshot, err)
	}

	log := New(responder)
	var maxID uint32
	for _, st := range snap.Messages {
		t := Turn{
			ID:          st.ID,
			AIGenerated: st.AIGenerated,
			Stack:       make([]Variant, 0, len(st.MessageStack)),
		}
		for _, sv := range st.MessageStack {
			t.Stack = append(t.Stack, Variant{Text: sv.Message, Image: sv.ImageBase64})
		}
		if len(t.Stack) == 0 && st.LegacyMessage != nil {
			t.Stack = append(t.Stack, Variant{Text: *st.LegacyMessage, Image: st.LegacyImage})
		}
		if len(t.Stack) > 0 {
			t.Selected = clamp(st.SelectedMessage, 0, len(t.Stack)-1)
		}
		if t.ID > maxID {
			maxID = t.ID
		}
		log.turns = append(log.turns, t)
	}
	log.nextID = maxID + 1

	return log, snap.APISettings, snap.SystemMessage, nil
}
