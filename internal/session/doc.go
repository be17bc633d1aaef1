// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session keeps the client's view of its past conversations in step with the
// backend.
//
// # Key Types
//
//   - Store: list, load, delete and start-new operations over a shared model.State
//   - Confirmer: asks the user before a destructive delete
//
// # Failure Handling
//
// Listing fails soft: the previous list is kept and the error is only logged.
// Loading changes nothing but the loading flag on failure. Deleting removes the local
// entry only after the backend confirms the removal.
//
// # Bubble Tea Integration
//
// ListCmd, LoadCmd and DeleteCmd run the corresponding operation off the UI goroutine
// and report back with ListedMsg, LoadedMsg and DeletedMsg.
package session
