// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Well-known preference keys.
const (
	KeyClientID = "client_id"
	KeyStyle    = "chat_style"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = &PrefError{Message: "preference not found"}

// PrefError represents a preference-store error.
// It can be compared using errors.Is.
type PrefError struct {
	Message string
	Key     string
	Err     error
}

// Error implements the error interface.
func (e *PrefError) Error() string {
	msg := e.Message
	if e.Key != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Key)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *PrefError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support for comparing preference errors.
func (e *PrefError) Is(target error) bool {
	t, ok := target.(*PrefError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// schema is applied on every open.
const schema = `
CREATE TABLE IF NOT EXISTS prefs (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// =============================================================================
// PREFS
// =============================================================================

// Prefs is a persistent string key/value store.
type Prefs struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the preference database at path. The special path
// ":memory:" gives a private in-memory store.
func Open(path string) (*Prefs, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; a single connection also keeps :memory: coherent.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Prefs{db: db, path: path}, nil
}

// Path returns the database path.
func (p *Prefs) Path() string {
	return p.path
}

// Close closes the database.
func (p *Prefs) Close() error {
	return p.db.Close()
}

// Get returns the value for key, or ErrNotFound.
func (p *Prefs) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &PrefError{Message: ErrNotFound.Message, Key: key}
	}
	if err != nil {
		return "", &PrefError{Message: "read preference", Key: key, Err: err}
	}
	return value, nil
}

// GetOr returns the value for key, or def when it is missing or unreadable.
func (p *Prefs) GetOr(ctx context.Context, key, def string) string {
	v, err := p.Get(ctx, key)
	if err != nil {
		return def
	}
	return v
}

// Set stores value under key, replacing any previous value.
func (p *Prefs) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return &PrefError{Message: "write preference", Key: key, Err: err}
	}
	return nil
}

// SetIfAbsent stores value under key unless the key exists. It returns the value now
// stored, which is the existing one when the key was already present.
func (p *Prefs) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", &PrefError{Message: "begin transaction", Key: key, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO NOTHING`,
		key, value, time.Now().Unix()); err != nil {
		return "", &PrefError{Message: "write preference", Key: key, Err: err}
	}
	var stored string
	if err := tx.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&stored); err != nil {
		return "", &PrefError{Message: "read preference", Key: key, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return "", &PrefError{Message: "commit", Key: key, Err: err}
	}
	return stored, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (p *Prefs) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM prefs WHERE key = ?`, key); err != nil {
		return &PrefError{Message: "delete preference", Key: key, Err: err}
	}
	return nil
}

// All returns every stored preference.
func (p *Prefs) All(ctx context.Context) (map[string]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT key, value FROM prefs ORDER BY key`)
	if err != nil {
		return nil, &PrefError{Message: "list preferences", Err: err}
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, &PrefError{Message: "list preferences", Err: err}
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, &PrefError{Message: "list preferences", Err: err}
	}
	return out, nil
}
