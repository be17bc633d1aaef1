// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/lawassist-tui/internal/config"
	"github.com/jeranaias/lawassist-tui/internal/tooltip"
)

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

// hoverMsg reports a hover controller transition. The model re-reads the
// controller rather than trusting the payload, which may be stale.
type hoverMsg struct {
	open  bool
	state tooltip.State
}

// speechMsg carries the capture's visible value.
type speechMsg struct {
	value     string
	listening bool
}

// configReloadedMsg is posted by the config file watcher.
type configReloadedMsg struct {
	cfg *config.Config
	err error
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	err error
}

// prefSavedMsg reports a preference write.
type prefSavedMsg struct {
	key string
	err error
}

// noticeExpiredMsg clears the status notice with the same sequence number.
type noticeExpiredMsg struct {
	seq int
}

// =============================================================================
// ORDERED CALLBACK QUEUE
// =============================================================================

// notifier forwards messages posted from callbacks to the program in posting
// order. post never blocks, so it is safe to call from inside Update.
type notifier struct {
	mu     sync.Mutex
	queue  []tea.Msg
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

func newNotifier() *notifier {
	return &notifier{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (n *notifier) post(msg tea.Msg) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.queue = append(n.queue, msg)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// run delivers queued messages to send until close is called.
func (n *notifier) run(send func(tea.Msg)) {
	for {
		select {
		case <-n.done:
			return
		case <-n.wake:
		}
		for {
			n.mu.Lock()
			if len(n.queue) == 0 {
				n.mu.Unlock()
				break
			}
			msg := n.queue[0]
			n.queue = n.queue[1:]
			n.mu.Unlock()
			send(msg)
		}
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	n.queue = nil
	close(n.done)
}

// pending returns the queued messages without delivering them.
func (n *notifier) pending() []tea.Msg {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]tea.Msg(nil), n.queue...)
}
