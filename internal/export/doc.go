// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes stored legal-assistant sessions to local files.
//
// # Key Types
//
//   - Document: a session, its messages and the statutes they cite
//   - Exporter: format interface (Markdown, JSON, YAML)
//   - Options: output directory and metadata switches
//
// # Usage
//
// Export one session that is already loaded:
//
//	doc := export.NewDocument(sess, messages)
//	path, err := export.ExportToFile(doc, export.NewMarkdownExporter(nil), nil)
//
// Export many sessions from the backend, fetched in parallel:
//
//	paths, err := export.ExportAll(ctx, api, sessions, exporter, opts)
package export
