// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the switchboard command line.
//
// # Commands
//
//	switchboard                 Full-screen chat (when stdin is a terminal)
//	switchboard tui             Full-screen chat
//	switchboard chat            Line-oriented chat with history
//	switchboard ask <text>      Send one message and print the reply
//	switchboard logs ...        Manage saved logs (list, new, save, load, delete, rename)
//	switchboard export          Write the current log as JSON or Markdown
//	switchboard import <file>   Replace the current log with a snapshot
//	switchboard config ...      Show or change the endpoint settings
//	switchboard system [text]   Show or set the system message
//
// Every command shares the persistent flags --config, --data-dir, --storage
// and --log-level. Interactive commands log to the data directory; the rest
// log to stderr.
package cli
