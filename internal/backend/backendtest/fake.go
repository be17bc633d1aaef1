// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backendtest provides a programmable in-process backend.API for tests.
package backendtest

import (
	"context"
	"sync"

	"github.com/jeranaias/lawassist-tui/internal/backend"
	"github.com/jeranaias/lawassist-tui/internal/model"
)

// Fake is a backend.API whose behaviour is set per operation. Unset operations
// succeed with zero values. Calls are recorded.
type Fake struct {
	mu sync.Mutex

	ChatFunc          func(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error)
	ListSessionsFunc  func(ctx context.Context, clientID string) ([]model.Session, error)
	GetSessionFunc    func(ctx context.Context, id string) ([]model.Message, error)
	DeleteSessionFunc func(ctx context.Context, id string) error

	ChatRequests []backend.ChatRequest
	ListCalls    int
	GetCalls     []string
	DeleteCalls  []string
}

var _ backend.API = (*Fake)(nil)

// Chat implements backend.API.
func (f *Fake) Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	f.mu.Lock()
	f.ChatRequests = append(f.ChatRequests, req)
	fn := f.ChatFunc
	f.mu.Unlock()
	if fn == nil {
		return &backend.ChatResponse{}, nil
	}
	return fn(ctx, req)
}

// ListSessions implements backend.API.
func (f *Fake) ListSessions(ctx context.Context, clientID string) ([]model.Session, error) {
	f.mu.Lock()
	f.ListCalls++
	fn := f.ListSessionsFunc
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, clientID)
}

// GetSession implements backend.API.
func (f *Fake) GetSession(ctx context.Context, id string) ([]model.Message, error) {
	f.mu.Lock()
	f.GetCalls = append(f.GetCalls, id)
	fn := f.GetSessionFunc
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, id)
}

// DeleteSession implements backend.API.
func (f *Fake) DeleteSession(ctx context.Context, id string) error {
	f.mu.Lock()
	f.DeleteCalls = append(f.DeleteCalls, id)
	fn := f.DeleteSessionFunc
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, id)
}

// Requests returns a copy of the recorded chat requests.
func (f *Fake) Requests() []backend.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.ChatRequest(nil), f.ChatRequests...)
}

// Deletes returns a copy of the recorded delete ids.
func (f *Fake) Deletes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.DeleteCalls...)
}

// Lists returns the number of ListSessions calls.
func (f *Fake) Lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ListCalls
}
