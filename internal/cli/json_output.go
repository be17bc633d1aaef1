// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// now is the timestamp source for JSON responses.
var now = time.Now

// JSONResponse is the envelope every --json command writes.
type JSONResponse struct {
	Success bool `json:"success"`

	// Data is the command-specific payload.
	Data interface{} `json:"data"`

	// Error is the error message when Success is false, null otherwise.
	Error *string `json:"error"`

	// Timestamp is RFC 3339 UTC.
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &msg,
		Timestamp: now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with two-space indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// reportedError marks an error whose JSON envelope has already been written.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// outputJSON runs handler and writes its result as a JSONResponse. On failure the
// error envelope is written and the error is still returned so the exit code is set.
func outputJSON(w io.Writer, command string, handler func() (interface{}, error)) error {
	data, err := handler()
	if err != nil {
		_ = NewJSONErrorResponse(command, err).Write(w)
		return &reportedError{err: err}
	}
	return NewJSONResponse(command, data).Write(w)
}

// emit runs produce and prints its result: as a JSONResponse in --json mode, through
// human otherwise.
func emit[T any](cmd *cobra.Command, flags *globalFlags, produce func() (T, error), human func(io.Writer, T)) error {
	if flags.jsonMode {
		return outputJSON(cmd.OutOrStdout(), cmd.CommandPath(), func() (interface{}, error) {
			v, err := produce()
			return v, err
		})
	}
	data, err := produce()
	if err != nil {
		return err
	}
	human(cmd.OutOrStdout(), data)
	return nil
}
