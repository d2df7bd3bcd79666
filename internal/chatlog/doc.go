// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatlog holds the ordered, editable history of a conversation.
//
// Every turn keeps a stack of alternative variants (regenerations or edits)
// with one selected at a time. Turn ids are assigned from a monotonically
// increasing counter and are never reused, even after deletion.
//
// # Key Types
//
//   - Log: the conversation, its id counter and the regenerating flag
//   - Turn: one contribution from the user or the AI
//   - Variant: one alternative body of a turn, optionally with an image
//   - Responder: the hook invoked when a response should be generated
//
// # Usage
//
//	log := chatlog.New(app)
//	id := log.AddTurn("Hello", false, nil)
//	log.TriggerResponseGeneration()
//
//	data, err := log.ToSnapshot(endpoint, systemMessage)
//
// A Log is not safe for concurrent use. It is owned by a single loop (the
// TUI update loop, the REPL, or a one-shot command).
package chatlog
