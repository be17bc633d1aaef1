// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across lawassist.
//
// # Key Functions
//
// String Utilities (cell-width aware, CJK safe):
//   - TruncateRunes: rune-based truncation with ellipsis
//   - TruncateWidth: display-width truncation with ellipsis
//   - StringWidth: terminal cell width of a string
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateWidth(session.Title, 24)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
