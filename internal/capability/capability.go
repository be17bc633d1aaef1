// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package capability detects optional platform features once at startup.
//
// A missing capability greys out the control that needs it; detection is never
// retried during a run.
package capability

import (
	"github.com/atotto/clipboard"

	"github.com/jeranaias/lawassist-tui/internal/speech"
)

// Set records which optional features are usable.
type Set struct {
	// SpeechInput is true when voice input is enabled and the recognizer command
	// can be found.
	SpeechInput bool
	// ClipboardWrite is true when the system clipboard can be written.
	ClipboardWrite bool
}

// Options are the inputs to detection.
type Options struct {
	SpeechEnabled bool
	SpeechCommand string
}

// Detect probes the platform.
func Detect(opts Options) Set {
	return Set{
		SpeechInput:    opts.SpeechEnabled && speech.CommandAvailable(opts.SpeechCommand),
		ClipboardWrite: !clipboard.Unsupported,
	}
}

// String summarizes the set for logs and the status bar.
func (s Set) String() string {
	return "speech=" + onOff(s.SpeechInput) + " clipboard=" + onOff(s.ClipboardWrite)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
