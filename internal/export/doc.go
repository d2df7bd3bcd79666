// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a conversation log out in a shareable format.
//
// # Key Types
//
//   - Document: a log plus the endpoint and system message it was used with
//   - Exporter: converts a Document to bytes (Markdown or JSON snapshot)
//   - Options: export configuration
//
// # Supported Formats
//
//   - JSON: the versioned snapshot envelope, re-importable
//   - Markdown: human-readable, selected variants only unless AllVariants
//
// # Usage
//
//	doc := &export.Document{Title: "Trip", Log: log, Endpoint: e}
//	path, err := export.ExportToFile(doc, export.NewMarkdownExporter(nil), nil)
package export
