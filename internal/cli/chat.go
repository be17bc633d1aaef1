// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/lawassist-tui/internal/config"
	"github.com/jeranaias/lawassist-tui/internal/dispatch"
	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/session"
	"github.com/jeranaias/lawassist-tui/internal/storage"
	"github.com/jeranaias/lawassist-tui/internal/ui/chat"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
	"github.com/jeranaias/lawassist-tui/internal/util"
)

const (
	chatPrompt      = "lawassist> "
	historyFileName = "chat_history"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineSource reads one line per prompt.
type lineSource interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// historyLines is a lineSource backed by liner, with arrow-key history persisted
// under the config directory.
type historyLines struct {
	line        *liner.State
	historyFile string
}

func newHistoryLines() *historyLines {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	h := &historyLines{line: line, historyFile: filepath.Join(dir, historyFileName)}
	if f, err := os.Open(h.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return h
}

func (h *historyLines) Prompt(prompt string) (string, error) {
	input, err := h.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		h.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history with owner-only permissions and restores the terminal.
func (h *historyLines) Close() error {
	var buf bytes.Buffer
	if _, err := h.line.WriteHistory(&buf); err == nil {
		_ = util.AtomicWriteFileWithDir(h.historyFile, buf.Bytes(), 0600, 0700)
	}
	return h.line.Close()
}

// plainLines reads lines from a pipe or a test buffer.
type plainLines struct {
	out     io.Writer
	scanner *bufio.Scanner
}

func newPlainLines(in io.Reader, out io.Writer) *plainLines {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 4096), maxStdinQuestion)
	return &plainLines{out: out, scanner: sc}
}

func (p *plainLines) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

func (p *plainLines) Close() error { return nil }

// =============================================================================
// CHAT COMMAND
// =============================================================================

func newChatCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Line-mode chat with history",
		Long: `Line-mode chat for terminals without mouse support or for screen readers.

Type a question and press Enter. Lines starting with / are commands; /help
lists them. Up and Down recall earlier input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, flags, openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			var src lineSource
			if isTerminal(a.in) {
				src = newHistoryLines()
			} else {
				src = newPlainLines(a.in, a.out)
			}
			defer src.Close()

			color := ColorsEnabled() && isTerminal(a.out)
			r := &repl{
				app:      a,
				src:      src,
				out:      a.out,
				color:    color,
				renderer: newReplyRenderer(terminalWidth(a.out), color),
			}
			// Deletion prompts go through the same line source.
			a.sessions.WithConfirmer(session.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
				answer, err := src.Prompt(prompt + " [y/N]: ")
				if err != nil {
					return false, nil
				}
				answer = strings.ToLower(strings.TrimSpace(answer))
				return answer == "y" || answer == "yes", nil
			}))
			return r.run(cmd.Context())
		},
	}
}

// repl is one line-mode chat.
type repl struct {
	app      *app
	src      lineSource
	out      io.Writer
	color    bool
	renderer *replyRenderer
	exchange int
}

func (r *repl) run(ctx context.Context) error {
	r.welcome()

	for {
		input, err := r.src.Prompt(r.prompt())
		if err != nil {
			// Ctrl+C, Ctrl+D and EOF all end the chat.
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				r.app.logger.Warn("read input", zap.Error(err))
			}
			fmt.Fprintln(r.out)
			r.goodbye()
			return nil
		}
		if ctx.Err() != nil {
			r.goodbye()
			return nil
		}

		input = strings.TrimSpace(input)
		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "exit"), strings.EqualFold(input, "quit"):
			r.goodbye()
			return nil
		case strings.HasPrefix(input, "/"):
			if !r.command(ctx, input) {
				r.goodbye()
				return nil
			}
			continue
		}
		r.send(ctx, input)
	}
}

func (r *repl) prompt() string {
	if r.color {
		return promptStyle.Render(chatPrompt)
	}
	return chatPrompt
}

func (r *repl) send(ctx context.Context, text string) {
	r.info("思考中…")
	out, err := r.app.dispatcher.Send(ctx, text, dispatch.Context{Style: r.app.state.Style()})
	if err != nil {
		r.fail(err.Error())
		return
	}
	switch {
	case out.Failed:
		r.fail(out.Reply.Content)
	case out.Discarded:
		r.info("對話已切換，略過這則回覆")
	default:
		r.exchange++
		fmt.Fprintln(r.out)
		r.renderer.Reply(r.out, out.Reply)
		fmt.Fprintln(r.out)
		if out.Adopted {
			r.info("已建立新對話 " + out.SessionID)
		}
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// command runs a slash command. It returns false when the chat should end.
func (r *repl) command(ctx context.Context, input string) bool {
	fields := strings.Fields(input)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/exit", "/quit", "/q":
		return false
	case "/help", "/?":
		r.help()
	case "/new":
		r.app.sessions.StartNew()
		r.info("已開啟新對話")
	case "/style":
		r.style(ctx, args)
	case "/sessions", "/ls":
		r.listSessions(ctx)
	case "/load":
		if id, ok := r.sessionArg(args); ok {
			r.load(ctx, id)
		}
	case "/delete", "/rm":
		if id, ok := r.sessionArg(args); ok {
			r.delete(ctx, id)
		}
	case "/topic", "/topics":
		r.topic(ctx, args)
	case "/history":
		r.renderer.Transcript(r.out, r.app.state.Messages())
	default:
		r.fail("未知的指令 " + name + "，輸入 /help 查看說明")
	}
	return true
}

func (r *repl) style(ctx context.Context, args []string) {
	st := r.app.state.Style().Next()
	if len(args) > 0 {
		parsed, err := model.ParseStyle(strings.ToLower(args[0]))
		if err != nil {
			r.fail("回答風格只能是 humor、professional 或 concise")
			return
		}
		st = parsed
	}
	r.app.state.SetStyle(st)
	if err := r.app.prefs.Set(ctx, storage.KeyStyle, string(st)); err != nil {
		r.app.logger.Warn("style not saved", zap.Error(err))
	}
	r.info("回答風格：" + st.Label())
}

func (r *repl) listSessions(ctx context.Context) {
	sessions, err := r.app.sessions.ListSessions(ctx)
	if err != nil {
		r.fail("無法取得歷史對話")
		return
	}
	if len(sessions) == 0 {
		r.info("還沒有歷史對話")
		return
	}
	active, _ := r.app.state.ActiveID()
	for i, s := range sessions {
		marker := " "
		if s.ID == active {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s %2d. %s %s\n", marker, i+1, s.DisplayTitle(), r.dim(s.ID))
	}
}

// sessionArg resolves a 1-based index into the last listed sessions, or passes an
// id through.
func (r *repl) sessionArg(args []string) (string, bool) {
	if len(args) == 0 {
		r.fail("請指定對話編號或 ID，例如 /load 1")
		return "", false
	}
	if n, err := strconv.Atoi(args[0]); err == nil {
		sessions := r.app.state.Sessions()
		if n < 1 || n > len(sessions) {
			r.fail("沒有這個編號的對話，先用 /sessions 列出")
			return "", false
		}
		return sessions[n-1].ID, true
	}
	return args[0], true
}

func (r *repl) load(ctx context.Context, id string) {
	if err := r.app.sessions.LoadSession(ctx, id); err != nil {
		r.fail("載入對話失敗，請稍後再試")
		return
	}
	fmt.Fprintln(r.out)
	r.renderer.Transcript(r.out, r.app.state.Messages())
	fmt.Fprintln(r.out)
}

func (r *repl) delete(ctx context.Context, id string) {
	err := r.app.sessions.DeleteSession(ctx, id)
	switch {
	case errors.Is(err, session.ErrCancelled):
		r.info("已取消")
	case err != nil:
		r.fail("刪除對話失敗")
	default:
		r.info("已刪除對話")
	}
}

func (r *repl) topic(ctx context.Context, args []string) {
	topics := r.app.cfg.Chat.QuickTopics
	if len(args) == 0 {
		for i, t := range topics {
			fmt.Fprintf(r.out, "  %d. %s\n", i+1, t)
		}
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(topics) {
		r.fail("沒有這個主題，輸入 /topics 查看")
		return
	}
	r.send(ctx, chat.QuickTopicQuestion(topics[n-1]))
}

// =============================================================================
// OUTPUT
// =============================================================================

func (r *repl) welcome() {
	title := "今日張三又犯法了嗎？ AI 法律助手"
	if r.color {
		title = titleStyle.Render(title)
	}
	fmt.Fprintln(r.out, title)
	fmt.Fprintln(r.out, r.dim("回答風格："+r.app.state.Style().Label()+"  ·  輸入 /help 查看指令，exit 離開"))
	fmt.Fprintln(r.out)
}

func (r *repl) help() {
	rows := [][2]string{
		{"/new", "開啟新對話"},
		{"/style [name]", "切換回答風格 (humor, professional, concise)"},
		{"/sessions", "列出歷史對話"},
		{"/load <n|id>", "載入對話"},
		{"/delete <n|id>", "刪除對話"},
		{"/topics", "列出快速主題"},
		{"/topic <n>", "詢問快速主題"},
		{"/history", "重新顯示目前的對話"},
		{"/exit", "離開"},
	}
	for _, row := range rows {
		if r.color {
			fmt.Fprintln(r.out, "  "+renderLabel(row[0], row[1]))
			continue
		}
		fmt.Fprintf(r.out, "  %-16s %s\n", row[0], row[1])
	}
}

func (r *repl) goodbye() {
	r.info(fmt.Sprintf("本次共 %d 則問答，下次見！", r.exchange))
}

func (r *repl) info(s string) {
	fmt.Fprintln(r.out, r.dim(s))
}

func (r *repl) fail(s string) {
	if r.color {
		s = styles.RenderError(s)
	} else {
		s = "[X] " + s
	}
	fmt.Fprintln(r.out, s)
}

func (r *repl) dim(s string) string {
	if r.color {
		return dimStyle.Render(s)
	}
	return s
}
