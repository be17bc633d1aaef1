// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Capture couples a Recognizer with an Accumulator for the input line.
//
// Stop is synchronous: once it returns, no further recognizer events are applied, so
// callers can stop and then read the finalized value.
type Capture struct {
	mu     sync.Mutex
	rec    Recognizer
	acc    Accumulator
	logger *zap.Logger
	active bool
	epoch  uint64

	onUpdate func(value string, listening bool)
}

// NewCapture returns a Capture. rec may be nil when speech input is unavailable.
func NewCapture(rec Recognizer, logger *zap.Logger) *Capture {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capture{rec: rec, logger: logger}
}

// Available reports whether a recognizer is wired in.
func (c *Capture) Available() bool {
	return c.rec != nil
}

// OnUpdate registers the callback invoked with the visible value after every applied
// event and on every listening state change. It runs without the capture lock held.
func (c *Capture) OnUpdate(fn func(value string, listening bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// Listening reports whether capture is active.
func (c *Capture) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Value returns the current visible value.
func (c *Capture) Value() string {
	return c.acc.Value()
}

// Start begins listening. current is the input line's value, kept as a prefix.
func (c *Capture) Start(ctx context.Context, current string) error {
	if c.rec == nil {
		return ErrUnavailable
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return nil
	}
	c.active = true
	c.epoch++
	epoch := c.epoch
	c.acc.Start(current)
	c.mu.Unlock()

	if err := c.rec.Start(ctx, func(ev Event) { c.handle(epoch, ev) }); err != nil {
		c.mu.Lock()
		c.active = false
		c.acc.Stop()
		c.mu.Unlock()
		c.logger.Warn("speech recognizer failed to start", zap.Error(err))
		return err
	}

	c.logger.Debug("speech capture started")
	c.notify(current, true)
	return nil
}

// Stop ends listening and returns the final visible value.
func (c *Capture) Stop() string {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return c.acc.Value()
	}
	c.active = false
	c.epoch++
	c.acc.Stop()
	c.mu.Unlock()

	if err := c.rec.Stop(); err != nil {
		c.logger.Warn("speech recognizer stop failed", zap.Error(err))
	}
	value := c.acc.Value()
	c.logger.Debug("speech capture stopped")
	c.notify(value, false)
	return value
}

func (c *Capture) handle(epoch uint64, ev Event) {
	c.mu.Lock()
	if !c.active || epoch != c.epoch {
		c.mu.Unlock()
		return
	}

	switch {
	case ev.Err != nil:
		if !c.acc.HandleError(ev.Err) {
			c.mu.Unlock()
			c.logger.Debug("no speech detected, still listening")
			return
		}
		c.active = false
		c.epoch++
		c.mu.Unlock()
		c.logger.Warn("speech recognition error", zap.Error(ev.Err))
		c.notify(c.acc.Value(), false)

	case ev.End:
		c.active = false
		c.epoch++
		c.acc.Stop()
		c.mu.Unlock()
		c.notify(c.acc.Value(), false)

	default:
		value := c.acc.Apply(ev.Results)
		c.mu.Unlock()
		c.notify(value, true)
	}
}

func (c *Capture) notify(value string, listening bool) {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()
	if fn != nil {
		fn(value, listening)
	}
}
