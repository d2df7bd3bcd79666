// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog tracks the named conversation logs a user has saved.
//
// The catalog is the single source of truth for which logs exist. Each entry
// points at the storage key holding the log's snapshot. Display order is
// always most recently accessed first and is computed on read.
package catalog
