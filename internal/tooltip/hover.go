// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tooltip

import (
	"sync"
	"time"
)

// CloseDelay is the grace window between leaving the trigger or panel and the panel
// closing. The trigger and panel are adjacent but not contiguous, so the pointer
// crosses empty space on its way from one to the other.
const CloseDelay = 400 * time.Millisecond

// State is the content of an open panel.
type State struct {
	Content string
	Anchor  Rect
	LinkURL string
	// Label is the trigger's visible text.
	Label string
}

// =============================================================================
// HOVER-INTENT CONTROLLER
// =============================================================================

// Controller is the open/closed state machine behind the citation panel.
//
// It owns a single deferred-close slot. Every transition that touches the slot
// clears it first, and each scheduled close carries the slot generation it was
// created for, so a timer that fires after being superseded is a no-op.
type Controller struct {
	mu    sync.Mutex
	clock Clock
	delay time.Duration

	open  bool
	state State

	pending    Timer
	generation uint64

	onChange func(open bool, state State)
}

// NewController returns a closed controller. A nil clock uses SystemClock.
func NewController(clock Clock) *Controller {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Controller{clock: clock, delay: CloseDelay}
}

// SetDelay overrides CloseDelay.
func (c *Controller) SetDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = d
}

// OnChange registers a callback for open/close transitions and content changes. It is
// called without the controller lock held, possibly from a timer goroutine.
func (c *Controller) OnChange(fn func(open bool, state State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// IsOpen reports whether the panel is open.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Current returns the open state, if any.
func (c *Controller) Current() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.open
}

// ClosePending reports whether a deferred close is scheduled.
func (c *Controller) ClosePending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// EnterTrigger opens the panel for a trigger, replacing any open content.
func (c *Controller) EnterTrigger(s State) {
	c.mu.Lock()
	c.cancelLocked()
	changed := !c.open || c.state != s
	c.open = true
	c.state = s
	fn := c.onChange
	c.mu.Unlock()

	if changed && fn != nil {
		fn(true, s)
	}
}

// EnterPanel keeps an open panel open.
func (c *Controller) EnterPanel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// LeaveTrigger schedules a close.
func (c *Controller) LeaveTrigger() { c.scheduleClose() }

// LeavePanel schedules a close.
func (c *Controller) LeavePanel() { c.scheduleClose() }

// Dismiss closes the panel immediately, discarding any pending close.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	c.cancelLocked()
	fn, s, closed := c.closeLocked()
	c.mu.Unlock()

	if closed && fn != nil {
		fn(false, s)
	}
}

func (c *Controller) scheduleClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	if !c.open {
		return
	}
	gen := c.generation
	c.pending = c.clock.AfterFunc(c.delay, func() { c.fire(gen) })
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.pending == nil {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.generation++
	fn, s, closed := c.closeLocked()
	c.mu.Unlock()

	if closed && fn != nil {
		fn(false, s)
	}
}

// cancelLocked empties the deferred-close slot.
func (c *Controller) cancelLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.generation++
}

func (c *Controller) closeLocked() (func(bool, State), State, bool) {
	if !c.open {
		return nil, State{}, false
	}
	s := c.state
	c.open = false
	c.state = State{}
	return c.onChange, s, true
}
