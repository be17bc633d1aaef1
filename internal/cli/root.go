// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/lawassist-tui/internal/ui/chat"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
)

// BuildInfo is stamped into the binary at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", orUnknown(b.Version), orUnknown(b.Commit), orUnknown(b.Date))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the command tree. Each call returns an independent tree, so
// tests can run commands without sharing flag state.
func NewRootCommand(info BuildInfo) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "lawassist",
		Short: "今日張三又犯法了嗎？ AI 法律助手",
		Long: `lawassist is a terminal client for the 今日張三又犯法了嗎？ legal assistant.

Run without a subcommand to open the full-screen chat. Statute citations in
answers can be hovered with the mouse to preview the article text.

Quick Start:
  lawassist                           # open the chat screen
  lawassist ask "房東不退押金怎麼辦？"  # ask one question
  lawassist sessions list             # list past conversations
  lawassist mock-server               # run a local backend for testing`,
		Version:       info.String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.BoolVar(&flags.jsonMode, "json", false, "Write machine-readable JSON")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log at debug level")
	pf.StringVar(&flags.baseURL, "api-url", "", "Backend base URL (overrides api.base_url)")
	pf.StringVar(&flags.style, "style", "", "Response style: humor, professional or concise")

	root.AddCommand(
		newAskCommand(flags),
		newChatCommand(flags),
		newSessionsCommand(flags),
		newCitationCommand(flags),
		newConfigCommand(flags),
		newStatusCommand(flags),
		newMockServerCommand(flags),
	)
	return root
}

// runTUI opens the full-screen chat.
func runTUI(cmd *cobra.Command, flags *globalFlags) error {
	if err := RequiresTTY("open the chat screen"); err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := openApp(ctx, cmd, flags, openOptions{speech: true})
	if err != nil {
		return err
	}
	defer a.Close()

	return chat.Run(ctx, chat.Deps{
		Config:       a.cfg,
		ConfigPath:   a.cfgPath,
		State:        a.state,
		Sessions:     a.sessions,
		Dispatcher:   a.dispatcher,
		Speech:       a.capture,
		Capabilities: a.caps,
		Prefs:        a.prefs,
		Logger:       a.logger.Named("tui"),
		LogLevel:     &a.level,
	})
}

// =============================================================================
// EXECUTE
// =============================================================================

// Execute runs the command line and returns the process exit code.
func Execute(info BuildInfo) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(info)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	if jsonMode, _ := root.PersistentFlags().GetBool("json"); jsonMode {
		var reported *reportedError
		if !errors.As(err, &reported) {
			_ = NewJSONErrorResponse(root.Name(), err).Write(root.OutOrStdout())
		}
		return ExitCode(err)
	}
	fmt.Fprintln(root.ErrOrStderr(), styles.RenderError(err.Error()))
	return ExitCode(err)
}
