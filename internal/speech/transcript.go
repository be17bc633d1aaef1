// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech turns a push-style speech recognition stream into input-line text.
package speech

import (
	"errors"
	"strings"
	"sync"
)

// ErrNoSpeech is reported by recognizers when a listening window heard nothing. It is
// not a failure: listening continues.
var ErrNoSpeech = errors.New("no speech detected")

// Result is one entry of a recognition batch.
type Result struct {
	Transcript string `json:"transcript"`
	Final      bool   `json:"final"`
}

// =============================================================================
// TRANSCRIPT ACCUMULATOR
// =============================================================================

// Accumulator merges interim and final recognition results into one input value.
//
// committed holds text typed before listening started plus every final segment;
// pending holds the latest interim guess and is replaced wholesale on every update.
// The visible value is always committed + pending.
type Accumulator struct {
	mu        sync.Mutex
	committed string
	pending   string
	listening bool
}

// Start snapshots the current input as the committed prefix and begins listening.
func (a *Accumulator) Start(current string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.committed = current
	a.pending = ""
	a.listening = true
}

// Apply folds one recognition batch in and returns the new visible value.
func (a *Accumulator) Apply(batch []Result) string {
	var final, interim strings.Builder
	for _, r := range batch {
		if r.Final {
			final.WriteString(r.Transcript)
		} else {
			interim.WriteString(r.Transcript)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if final.Len() > 0 {
		a.committed += final.String()
	}
	a.pending = interim.String()
	return a.committed + a.pending
}

// Stop ends listening. The value is left as last computed.
func (a *Accumulator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listening = false
}

// HandleError applies a recognizer error. ErrNoSpeech keeps listening; anything else
// stops it. It reports whether listening stopped.
func (a *Accumulator) HandleError(err error) bool {
	if err == nil || errors.Is(err, ErrNoSpeech) {
		return false
	}
	a.Stop()
	return true
}

// Value returns committed + pending.
func (a *Accumulator) Value() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.committed + a.pending
}

// Committed returns the finalized prefix.
func (a *Accumulator) Committed() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.committed
}

// Pending returns the current interim guess.
func (a *Accumulator) Pending() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Listening reports whether a listening session is active.
func (a *Accumulator) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}
