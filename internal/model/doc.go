// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the client-side state of the legal assistant.
//
// # Key Types
//
//   - Message: one conversation turn (user or assistant) with optional analysis
//   - AnalysisSummary: domain/risk/keyword summary attached by the backend
//   - Session: a past conversation as listed by the session store
//   - State: the single owner of the message buffer, active session id, session list,
//     active view, input line and loading flags
//
// # Concurrency
//
// State is safe for concurrent use. Every mutation is one method call under one lock,
// so the active session id and the message buffer never disagree. Operations that
// complete asynchronously capture the conversation epoch when they start and only
// apply their result if the epoch is unchanged.
//
// # Usage
//
//	st := model.NewState()
//	epoch := st.AppendUser("闖紅燈罰多少？")
//	st.AppendReply(epoch, model.NewAssistantMessage(reply, nil), sessionID)
package model
