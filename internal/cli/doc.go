// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the lawassist command line.
//
// Running lawassist with no subcommand opens the full-screen chat. The subcommands
// cover scripted and line-mode use of the same backend:
//
//	lawassist                        full-screen chat
//	lawassist ask "闖紅燈罰多少？"    one question, rendered reply on stdout
//	lawassist chat                   line-mode chat with history (liner)
//	lawassist sessions list|show|delete|export
//	lawassist citation decode|resolve|scan
//	lawassist config show|path|init|get|set
//	lawassist mock-server            in-memory backend for local testing
//
// Every command that talks to the backend goes through the same bootstrap (see
// app.go): config, logger, preference store, client identity, then the backend
// client. Output honours NO_COLOR and falls back to plain text when stdout is not
// a terminal. Commands accept --json for machine-readable output where it makes
// sense.
//
// Errors are returned, never printed and swallowed; Execute maps them to exit codes
// (see errors.go).
package cli
