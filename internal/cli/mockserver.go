// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/lawassist-tui/internal/logging"
	"github.com/jeranaias/lawassist-tui/internal/server"
)

// shutdownTimeout bounds the graceful stop of the mock backend.
const shutdownTimeout = 5 * time.Second

func newMockServerCommand(flags *globalFlags) *cobra.Command {
	var (
		addr  string
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory backend for local testing",
		Long: `Run an in-memory backend that implements the chat and session endpoints.

Answers are canned but cite real statutes with encoded excerpts, so citation
hover, export and session management can be tried without the real service.
State is lost when the server stops. Stop it with Ctrl+C.`,
		Example: `  lawassist mock-server
  lawassist mock-server --addr 127.0.0.1:9000 --delay 2s
  LAWASSIST_API_URL=http://127.0.0.1:9000 lawassist`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if flags.verbose {
				level = "debug"
			}
			logger, _, err := logging.New(logging.Options{Level: level, Development: true})
			if err != nil {
				return &ConfigError{Err: err}
			}
			defer func() { _ = logger.Sync() }()

			srv := server.New(server.Config{Addr: addr, Delay: delay}, logger.Named("mock"))
			errc := make(chan error, 1)
			go func() { errc <- srv.Start() }()

			fmt.Fprintf(cmd.ErrOrStderr(), "mock backend listening on http://%s\n", addr)

			select {
			case err := <-errc:
				if err != nil {
					return newCommandError("mock-server", "listen", addr, err)
				}
				return nil
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return newCommandError("mock-server", "shutdown", "graceful stop failed", err)
			}
			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "Listen address")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Hold every request this long (simulates a slow backend)")
	return cmd
}
