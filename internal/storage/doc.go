// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the key-value persistence used by switchboard.
//
// Everything the client remembers between runs (endpoint settings, the system
// message, the current chatlog, the dark mode flag and the chatlog catalog)
// is a string value under a well-known key. Store is the primitive; Save,
// Load and Delete add JSON encoding on top of it.
//
// # Backends
//
//   - FileStore: one file per key under a directory, written atomically
//   - SQLiteStore: a single "kv" table in a SQLite database
//   - MemoryStore: process-local map, used by tests and --storage=memory
//
// # Usage
//
//	store, err := storage.Open(storage.BackendFile, dataDir)
//	err = storage.Save(store, "dark_mode", true)
//	dark, err := storage.Load[bool](store, "dark_mode")
package storage
