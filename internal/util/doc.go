// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the switchboard packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing used by the file-backed store
//   - TruncateRunes: UTF-8 safe truncation with ellipsis for previews
//   - SingleLine: collapses whitespace runs so previews fit on one row
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	preview := util.TruncateRunes(util.SingleLine(text), 60)
package util
