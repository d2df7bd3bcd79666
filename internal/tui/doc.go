// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tui provides the full-screen chat interface.
//
// The Bubble Tea update loop is the single owner of the session state.
// Completion requests run in goroutines started by Scheduler; their
// continuations come back as messages and are applied inside Update.
//
// # Key Bindings
//
//   - Enter: send (blank input asks the model to continue)
//   - Alt+Enter: newline
//   - Ctrl+R: regenerate the newest AI turn
//   - Ctrl+P / Ctrl+N: previous / next variant of the newest turn
//   - Ctrl+T: toggle dark mode
//   - Ctrl+S: save the log
//   - PgUp / PgDn: scroll
//   - Esc / Ctrl+C: quit
package tui
