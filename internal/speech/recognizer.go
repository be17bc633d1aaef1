// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"
)

// Error variables for recognizer failures.
var (
	// ErrUnavailable means no recognizer is configured or its command is missing.
	ErrUnavailable = errors.New("speech input unavailable")

	// ErrAlreadyRunning is returned by Start on a running recognizer.
	ErrAlreadyRunning = errors.New("recognizer already running")
)

// Event is one callback from a recognizer. Exactly one of Results, Err or End is set.
type Event struct {
	Results []Result
	Err     error
	End     bool
}

// Handler receives recognizer events, one at a time, from the recognizer's goroutine.
type Handler func(Event)

// Recognizer is a push-style speech recognition stream.
type Recognizer interface {
	// Start begins delivering events to h until the stream ends or Stop is called.
	// A recognizer stops itself after delivering End or any error other than
	// ErrNoSpeech.
	Start(ctx context.Context, h Handler) error
	// Stop ends the stream and waits until no further events will be delivered.
	Stop() error
}

// =============================================================================
// COMMAND RECOGNIZER
// =============================================================================

// line is the wire format of a streaming recognizer: one JSON object per line.
//
//	{"results":[{"transcript":"闖紅燈","final":false}]}
//	{"error":"no-speech"}
type line struct {
	Results []Result `json:"results"`
	Error   string   `json:"error"`
}

// CommandRecognizer runs an external streaming recognizer process and reads its
// JSON-lines output.
type CommandRecognizer struct {
	argv []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCommandRecognizer parses a shell-style command line.
func NewCommandRecognizer(commandLine string) (*CommandRecognizer, error) {
	argv, err := shellquote.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("parse recognizer command: %w", err)
	}
	if len(argv) == 0 {
		return nil, ErrUnavailable
	}
	return &CommandRecognizer{argv: argv}, nil
}

// CommandAvailable reports whether commandLine names an executable on PATH.
func CommandAvailable(commandLine string) bool {
	argv, err := shellquote.Split(commandLine)
	if err != nil || len(argv) == 0 {
		return false
	}
	_, err = exec.LookPath(argv[0])
	return err == nil
}

// Start launches the recognizer process.
func (r *CommandRecognizer) Start(ctx context.Context, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("recognizer stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start recognizer: %w", err)
	}

	done := make(chan struct{})
	r.cmd, r.cancel, r.done = cmd, cancel, done

	go func() {
		defer close(done)
		ended := readEvents(ctx, stdout, h)
		cancel()
		_ = cmd.Wait()

		r.mu.Lock()
		current := r.done == done
		if current {
			r.cmd, r.cancel, r.done = nil, nil, nil
		}
		r.mu.Unlock()

		// The recognizer is released before End is delivered so the handler can
		// start the next run right away.
		if ended && current {
			h(Event{End: true})
		}
	}()
	return nil
}

// Stop kills the recognizer process and waits for its reader to finish.
func (r *CommandRecognizer) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cmd, r.cancel, r.done = nil, nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// readEvents decodes JSON lines until EOF. Events after cancellation are dropped.
// It reports whether the stream ended cleanly; the End event is left to the caller.
func readEvents(ctx context.Context, rd io.Reader, h Handler) bool {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return false
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var l line
		if err := json.Unmarshal([]byte(text), &l); err != nil {
			h(Event{Err: fmt.Errorf("decode recognizer output: %w", err)})
			return false
		}
		switch {
		case l.Error == "no-speech":
			h(Event{Err: ErrNoSpeech})
		case l.Error != "":
			h(Event{Err: fmt.Errorf("recognizer: %s", l.Error)})
			return false
		default:
			h(Event{Results: l.Results})
		}
	}

	if ctx.Err() != nil {
		return false
	}
	if err := scanner.Err(); err != nil {
		h(Event{Err: fmt.Errorf("read recognizer output: %w", err)})
		return false
	}
	return true
}
