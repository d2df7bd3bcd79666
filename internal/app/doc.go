// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app owns the live state of a switchboard session and the
// operations the shells (TUI, REPL, one-shot commands) call on it.
//
// # Key Types
//
//   - App: the conversation log, endpoint, system message, catalog and
//     pending flag, hydrated from and written through to a storage.Store
//   - Scheduler: runs request work off the loop and hands the continuation
//     back to it
//   - Notifier: user-visible alerts for failed responses
//
// # Threading
//
// App is not safe for concurrent use. All methods, including the
// continuations returned by scheduled work, must run on the owner's loop.
// While a response is pending every mutating operation returns
// ErrResponsePending.
//
// # Storage Keys
//
//	api_config        endpoint settings
//	system_message    system message text
//	current_chatlog   snapshot of the live log
//	dark_mode         theme flag
//	chatlog_metadata  catalog of saved logs
//	active_chatlog    catalog id the live log was loaded from
//	chatlog_<uuid>    snapshot of one saved log
package app
