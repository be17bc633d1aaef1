// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local preference store.
//
// Preferences are string key/value pairs kept in a small SQLite database
// (~/.lawassist/state.db by default). The client identity and the chosen response
// style live here; conversations themselves live on the backend.
//
// # Key Types
//
//   - Prefs: the key/value store
//
// # Usage
//
//	prefs, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer prefs.Close()
//	style, err := prefs.Get(ctx, storage.KeyStyle)
package storage
