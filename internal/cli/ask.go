// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/lawassist-tui/internal/citation"
	"github.com/jeranaias/lawassist-tui/internal/dispatch"
	"github.com/jeranaias/lawassist-tui/internal/model"
)

// maxStdinQuestion bounds a question read from a pipe.
const maxStdinQuestion = 16 << 10

// askResult is the --json payload of ask.
type askResult struct {
	SessionID string                 `json:"session_id"`
	Style     model.Style            `json:"style"`
	Reply     string                 `json:"reply"`
	Analysis  *model.AnalysisSummary `json:"analysis,omitempty"`
	Citations []citationView         `json:"citations,omitempty"`
	Message   model.Message          `json:"-"`
}

// citationView is a citation as printed by ask and citation scan.
type citationView struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

func citationViews(spans []citation.Span) []citationView {
	if len(spans) == 0 {
		return nil
	}
	out := make([]citationView, 0, len(spans))
	for _, s := range spans {
		out = append(out, citationView{Label: s.Label, Text: s.Text, URL: s.URL})
	}
	return out
}

// =============================================================================
// ASK COMMAND
// =============================================================================

func newAskCommand(flags *globalFlags) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the answer",
		Long: `Ask one question and print the answer.

The question is taken from the arguments, or from stdin when no arguments are
given and stdin is a pipe. Replies are rendered as markdown on a terminal and
printed verbatim otherwise. Cited statutes are listed after the reply.`,
		Example: `  lawassist ask "闖紅燈罰多少？"
  lawassist ask --style concise 借錢不還可以告嗎
  echo "房東不退押金怎麼辦？" | lawassist ask
  lawassist ask --session 3f2a... 那如果對方不回應呢？`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := readQuestion(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cmd, flags, openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			return emit(cmd, flags, func() (askResult, error) {
				if sessionID != "" {
					if err := a.sessions.LoadSession(cmd.Context(), sessionID); err != nil {
						return askResult{}, newCommandError("ask", "load session", sessionID, err)
					}
				}
				return ask(cmd, a, question)
			}, func(w io.Writer, res askResult) {
				r := newReplyRenderer(terminalWidth(w), ColorsEnabled() && isTerminal(w))
				r.Reply(w, res.Message)
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Continue an existing session")
	return cmd
}

// readQuestion joins args, or reads a piped stdin when there are none.
func readQuestion(in io.Reader, args []string) (string, error) {
	q := strings.TrimSpace(strings.Join(args, " "))
	if q == "" && in != nil && !isTerminal(in) {
		data, err := io.ReadAll(io.LimitReader(in, maxStdinQuestion))
		if err != nil {
			return "", fmt.Errorf("read question: %w", err)
		}
		q = strings.TrimSpace(string(data))
	}
	if q == "" {
		return "", &ValidationError{
			Field:   "question",
			Reason:  "a question is required",
			Example: `lawassist ask "闖紅燈罰多少？"`,
		}
	}
	return q, nil
}

// ask sends question through the dispatcher and converts the outcome.
func ask(cmd *cobra.Command, a *app, question string) (askResult, error) {
	out, err := a.dispatcher.Send(cmd.Context(), question, dispatch.Context{Style: a.state.Style()})
	if err != nil {
		if errors.Is(err, dispatch.ErrEmptyMessage) {
			return askResult{}, &ValidationError{Field: "question", Reason: "a question is required"}
		}
		return askResult{}, err
	}
	if out.Failed {
		return askResult{}, newCommandError("ask", "send", out.Reply.Content, out.Err)
	}

	_, spans := citation.Annotate(out.Reply.Content)
	return askResult{
		SessionID: out.SessionID,
		Style:     a.state.Style(),
		Reply:     out.Reply.Content,
		Analysis:  out.Reply.Analysis,
		Citations: citationViews(spans),
		Message:   out.Reply,
	}, nil
}
