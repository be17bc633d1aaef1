// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity provides the anonymous client identity.
//
// The identity is a random UUID generated on first use and stored in the preference
// store under the client_id key. It is never rotated; the backend uses it to group a
// client's sessions.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jeranaias/lawassist-tui/internal/storage"
)

// Store is the subset of the preference store the identity needs.
type Store interface {
	SetIfAbsent(ctx context.Context, key, value string) (string, error)
}

// ErrInvalidIdentity is returned when the stored identity is not one this package
// generated.
var ErrInvalidIdentity = errors.New("invalid client identity")

// ClientID returns the persisted client identity, creating it on first call.
func ClientID(ctx context.Context, store Store) (string, error) {
	id, err := store.SetIfAbsent(ctx, storage.KeyClientID, uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("client identity: %w", err)
	}
	if !Valid(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, id)
	}
	return id, nil
}

// Ephemeral returns a fresh identity for runs without a preference store.
func Ephemeral() string {
	return uuid.NewString()
}

// Valid reports whether id looks like an identity this package generated.
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
