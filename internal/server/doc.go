// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides an in-memory mock of the legal-assistant backend.
//
// It serves the same four endpoints the client uses, so the terminal client can be
// exercised end-to-end without the real retrieval backend, and tests can run against a
// real HTTP server.
//
// # Endpoints
//
//   - POST   /chat            - answer a question, creating a session on first use
//   - GET    /sessions        - list sessions for ?client_id=
//   - GET    /sessions/{id}   - fetch a session's messages
//   - DELETE /sessions/{id}   - delete a session
//   - GET    /                - health check
//
// Replies are markdown and cite statutes with citation links of the form
// [民法第184條](https://law.ai/view?data=<base64 excerpt>).
//
// # Usage
//
//	srv := server.New(server.Config{Addr: "127.0.0.1:8000"}, logger)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
