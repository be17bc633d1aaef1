// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jeranaias/lawassist-tui/internal/backend"
	"github.com/jeranaias/lawassist-tui/internal/export"
	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
)

// =============================================================================
// SESSIONS COMMAND
// =============================================================================

func newSessionsCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "s"},
		Short:   "Manage past conversations",
		Long: `List, show, delete and export the conversations stored on the backend for
this client.`,
	}
	cmd.AddCommand(
		newSessionsListCommand(flags),
		newSessionsShowCommand(flags),
		newSessionsDeleteCommand(flags),
		newSessionsExportCommand(flags),
	)
	return cmd
}

func newSessionsListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List conversations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, flags, openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			return emit(cmd, flags, func() ([]model.Session, error) {
				sessions, err := a.sessions.ListSessions(cmd.Context())
				if err != nil {
					return nil, newCommandError("sessions", "list", "backend request failed", err)
				}
				if sessions == nil {
					sessions = []model.Session{}
				}
				return sessions, nil
			}, printSessions)
		},
	}
}

func printSessions(w io.Writer, sessions []model.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "還沒有歷史對話")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTITLE")
	for i, s := range sessions {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, s.ID, s.DisplayTitle())
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n共 %d 則對話\n", len(sessions))
}

// sessionTranscript is the --json payload of sessions show.
type sessionTranscript struct {
	Session  model.Session   `json:"session"`
	Messages []model.Message `json:"messages"`
}

func newSessionsShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a, err := openApp(cmd.Context(), cmd, flags, openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			return emit(cmd, flags, func() (sessionTranscript, error) {
				msgs, err := a.client.GetSession(cmd.Context(), id)
				if backend.IsNotFound(err) {
					return sessionTranscript{}, &NotFoundError{Resource: "session", ID: id}
				}
				if err != nil {
					return sessionTranscript{}, newCommandError("sessions", "show", "backend request failed", err)
				}
				sess := lookupSession(cmd, a, id)
				if sess.Title == "" {
					sess.Title = model.FallbackTitle(msgs)
				}
				return sessionTranscript{Session: sess, Messages: msgs}, nil
			}, func(w io.Writer, t sessionTranscript) {
				color := ColorsEnabled() && isTerminal(w)
				title := t.Session.DisplayTitle()
				if color {
					title = titleStyle.Render(title) + " " + idStyle.Render(t.Session.ID)
				} else {
					title += " " + t.Session.ID
				}
				fmt.Fprintln(w, title)
				fmt.Fprintln(w, renderSeparator(terminalWidth(w)/2))
				newReplyRenderer(terminalWidth(w), color).Transcript(w, t.Messages)
			})
		},
	}
}

// lookupSession finds the listed title for id. An unlisted id gets an empty title.
func lookupSession(cmd *cobra.Command, a *app, id string) model.Session {
	sessions, err := a.sessions.ListSessions(cmd.Context())
	if err == nil {
		for _, s := range sessions {
			if s.ID == id {
				return s
			}
		}
	}
	return model.Session{ID: id}
}

// deleteResult is the --json payload of sessions delete.
type deleteResult struct {
	Deleted []string `json:"deleted"`
}

func newSessionsDeleteCommand(flags *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <session-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete conversations",
		Long: `Delete conversations from the backend. Each deletion is confirmed unless
--yes is given; --json requires --yes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, flags, openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			a.sessions.WithConfirmer(sessionConfirmer(a.in, cmd.ErrOrStderr(), ConfirmationOptions{
				Yes:      yes,
				JSONMode: flags.jsonMode,
			}))

			return emit(cmd, flags, func() (deleteResult, error) {
				// Listing first gives the confirmation prompt a title.
				_, _ = a.sessions.ListSessions(cmd.Context())

				res := deleteResult{Deleted: []string{}}
				for _, id := range args {
					err := a.sessions.DeleteSession(cmd.Context(), id)
					if backend.IsNotFound(err) {
						return res, &NotFoundError{Resource: "session", ID: id}
					}
					if err != nil {
						return res, newCommandError("sessions", "delete", id, err)
					}
					res.Deleted = append(res.Deleted, id)
				}
				return res, nil
			}, func(w io.Writer, res deleteResult) {
				for _, id := range res.Deleted {
					fmt.Fprintln(w, styles.RenderSuccess("已刪除對話 "+id))
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

// exportResult is the --json payload of sessions export.
type exportResult struct {
	Format string   `json:"format"`
	Files  []string `json:"files"`
}

func newSessionsExportCommand(flags *globalFlags) *cobra.Command {
	var (
		format     string
		dir        string
		noMetadata bool
		noCites    bool
		parallel   int
	)
	cmd := &cobra.Command{
		Use:   "export [session-id]...",
		Short: "Export conversations to files",
		Long: `Export conversations as Markdown, JSON or YAML. With no ids every listed
conversation is exported. Sessions are fetched in parallel and each file is
written atomically.`,
		Example: `  lawassist sessions export --format md --dir ./exports
  lawassist sessions export 3f2a... --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.DefaultOptions()
			opts.OutputDir = dir
			opts.IncludeMetadata = !noMetadata
			opts.IncludeCitations = !noCites
			if parallel > 0 {
				opts.Concurrency = parallel
			}
			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return &ValidationError{Field: "format", Value: format, Reason: err.Error(), Example: "--format md"}
			}

			a, err := openApp(cmd.Context(), cmd, flags, openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			return emit(cmd, flags, func() (exportResult, error) {
				listed, err := a.sessions.ListSessions(cmd.Context())
				if err != nil {
					return exportResult{}, newCommandError("sessions", "export", "backend request failed", err)
				}
				targets := listed
				if len(args) > 0 {
					targets = selectSessions(listed, args)
				}
				files, err := export.ExportAll(cmd.Context(), a.client, targets, exporter, opts)
				res := exportResult{Format: format, Files: files}
				if res.Files == nil {
					res.Files = []string{}
				}
				if err != nil {
					return res, newCommandError("sessions", "export", fmt.Sprintf("%d of %d written", len(files), len(targets)), err)
				}
				return res, nil
			}, func(w io.Writer, res exportResult) {
				if len(res.Files) == 0 {
					fmt.Fprintln(w, "沒有可匯出的對話")
					return
				}
				for _, f := range res.Files {
					fmt.Fprintln(w, styles.RenderSuccess(f))
				}
				fmt.Fprintf(w, "\n已匯出 %d 則對話\n", len(res.Files))
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "Output format: md, json or yaml")
	cmd.Flags().StringVarP(&dir, "dir", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "Omit front matter and analysis lines (Markdown)")
	cmd.Flags().BoolVar(&noCites, "no-citations", false, "Omit the cited statutes section (Markdown)")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Concurrent fetches (default 4)")
	return cmd
}

// selectSessions returns the sessions named by ids, in ids order. Ids missing from
// the list are kept with an empty title.
func selectSessions(listed []model.Session, ids []string) []model.Session {
	byID := make(map[string]model.Session, len(listed))
	for _, s := range listed {
		byID[s.ID] = s
	}
	out := make([]model.Session, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			s = model.Session{ID: id}
		}
		out = append(out, s)
	}
	return out
}
