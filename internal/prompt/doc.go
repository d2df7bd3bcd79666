// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt turns a conversation into the message list sent to a chat
// completion endpoint.
//
// Build walks the history newest first and keeps the longest contiguous run
// of recent turns whose estimated token cost fits the budget left after the
// system message. Thinking annotations are stripped before costing.
//
// # Usage
//
//	budget := prompt.ResolveBudget(endpoint, prompt.DefaultLimits())
//	res := prompt.Build(log.Turns(), prompt.Options{
//	    SystemMessage: sys,
//	    Budget:        budget,
//	})
package prompt
