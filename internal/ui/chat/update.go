// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/lawassist-tui/internal/config"
	"github.com/jeranaias/lawassist-tui/internal/dispatch"
	"github.com/jeranaias/lawassist-tui/internal/logging"
	"github.com/jeranaias/lawassist-tui/internal/session"
	"github.com/jeranaias/lawassist-tui/internal/storage"
	"github.com/jeranaias/lawassist-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.hover.Dismiss()
		m.syncHover()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, cmd

	case tea.MouseMsg:
		cmd := m.handleMouse(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.state.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.status.SpinnerView = m.spinner.View()
		return m, cmd

	case dispatch.SentMsg:
		return m, m.onSent(msg.Outcome)

	case session.ListedMsg:
		m.sidebar.SetLoading(false)
		m.sidebar.SetSessions(m.state.Sessions())
		if msg.Err != nil {
			return m, m.setNotice("無法取得歷史對話", true)
		}
		return m, nil

	case session.LoadedMsg:
		m.sidebar.SetLoading(false)
		m.refresh()
		if msg.Err != nil {
			return m, m.setNotice("載入對話失敗，請稍後再試", true)
		}
		m.focus = focusInput
		return m, nil

	case session.DeletedMsg:
		m.sidebar.SetSessions(m.state.Sessions())
		m.refresh()
		if msg.Err != nil {
			return m, m.setNotice("刪除對話失敗", true)
		}
		return m, m.setNotice("已刪除對話", false)

	case hoverMsg:
		m.syncHover()
		return m, nil

	case speechMsg:
		m.onSpeech(msg)
		return m, nil

	case configReloadedMsg:
		if msg.err != nil {
			m.logger.Warn("config reload failed", zap.Error(msg.err))
			return m, m.setNotice("設定檔格式錯誤，沿用目前設定", true)
		}
		cmd := m.applyConfig(msg.cfg)
		return m, tea.Batch(cmd, m.setNotice("已重新載入設定", false))

	case copiedMsg:
		if msg.err != nil {
			m.logger.Warn("clipboard write failed", zap.Error(msg.err))
			return m, m.setNotice("無法寫入剪貼簿", true)
		}
		m.copied = true
		m.renderPanel()
		return m, m.setNotice("已複製引用條文", false)

	case prefSavedMsg:
		if msg.err != nil {
			m.logger.Warn("preference not saved", zap.String("key", msg.key), zap.Error(msg.err))
		}
		return m, nil

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.status.Notice = ""
			m.status.NoticeError = false
		}
		return m, nil
	}

	// Cursor blink and other input-owned messages.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYBOARD
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Dismiss):
		if m.panelOpen {
			m.hover.Dismiss()
			m.syncHover()
			return nil
		}
		m.focus = focusInput
		return nil

	case key.Matches(msg, m.keys.Copy):
		return m.copyCmd()

	case msg.String() == "c" && m.panelOpen && m.pointer == pointerPanel:
		return m.copyCmd()

	case key.Matches(msg, m.keys.Send):
		if m.focus == focusSidebar {
			return m.openSelected()
		}
		return m.sendInput()

	case key.Matches(msg, m.keys.NewChat):
		m.sessions.StartNew()
		m.focus = focusInput
		m.refresh()
		return nil

	case key.Matches(msg, m.keys.Reload):
		m.sidebar.SetLoading(true)
		return m.sessions.ListCmd()

	case key.Matches(msg, m.keys.Delete):
		sel, ok := m.sidebar.Selected()
		if !ok {
			return m.setNotice("沒有可刪除的對話", true)
		}
		m.confirm = components.NewConfirmDialog(m.theme, session.DeletePrompt(sel.DisplayTitle()), sel.ID)
		m.hover.Dismiss()
		m.syncHover()
		return nil

	case key.Matches(msg, m.keys.Up):
		m.focus = focusSidebar
		m.sidebar.MoveUp()
		return nil

	case key.Matches(msg, m.keys.Down):
		m.focus = focusSidebar
		m.sidebar.MoveDown()
		return nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		m.dismissOnScroll()
		return nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		m.dismissOnScroll()
		return nil

	case key.Matches(msg, m.keys.Style):
		return m.cycleStyle()

	case key.Matches(msg, m.keys.Speech):
		return m.toggleSpeech()

	case key.Matches(msg, m.keys.NextView):
		m.state.SetView(m.state.View().Next())
		m.refresh()
		return nil

	case key.Matches(msg, m.keys.QuickTopic):
		if i, ok := quickTopicIndex(msg.String()); ok && i < len(m.quickTopics) {
			return m.send(QuickTopicQuestion(m.quickTopics[i]), false)
		}
		return nil
	}

	// Everything else is typing.
	m.focus = focusInput
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.state.SetInput(m.input.Value())
	return cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		id := m.confirm.Payload
		m.confirm = nil
		return m.sessions.DeleteCmd(id)
	case key.Matches(msg, m.keys.Cancel):
		m.confirm = nil
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		m.quitting = true
		return tea.Quit
	}
	return nil
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m *Model) sendInput() tea.Cmd {
	m.state.SetInput(m.input.Value())
	return m.send("", true)
}

// send starts an exchange. With fromInput the dispatcher takes the input line (or
// the finalized voice transcript); otherwise text is sent as given.
func (m *Model) send(text string, fromInput bool) tea.Cmd {
	ctx := dispatch.Context{Style: m.state.Style()}
	var (
		p   *dispatch.Pending
		err error
	)
	if fromInput {
		p, err = m.dispatcher.BeginInput(ctx)
	} else {
		p, err = m.dispatcher.Begin(text, ctx)
	}
	switch {
	case errors.Is(err, dispatch.ErrEmptyMessage):
		return nil
	case errors.Is(err, dispatch.ErrSendInFlight):
		return m.setNotice("請稍候，上一個問題還在處理中", true)
	case err != nil:
		return m.setNotice(err.Error(), true)
	}

	// The dispatcher stopped any capture; its final value is already sent.
	m.listening = false
	m.input.Reset()
	m.focus = focusInput
	m.refresh()
	return tea.Batch(p.Cmd(), m.spinner.Tick)
}

func (m *Model) onSent(out dispatch.Outcome) tea.Cmd {
	m.sidebar.SetSessions(m.state.Sessions())
	m.refresh()
	switch {
	case out.Discarded:
		return nil
	case out.Failed:
		return m.setNotice("連線失敗，請稍後再試", true)
	case out.Adopted:
		m.sidebar.SetLoading(true)
		return tea.Batch(m.setNotice("已建立新對話", false), m.sessions.ListCmd())
	}
	return nil
}

func (m *Model) openSelected() tea.Cmd {
	sel, ok := m.sidebar.Selected()
	if !ok {
		return nil
	}
	m.sidebar.SetLoading(true)
	return m.sessions.LoadCmd(sel.ID)
}

func (m *Model) cycleStyle() tea.Cmd {
	next := m.state.Style().Next()
	m.state.SetStyle(next)
	m.refresh()

	notice := m.setNotice("回答風格："+next.Label(), false)
	if m.prefs == nil {
		return notice
	}
	prefs := m.prefs
	save := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), prefTimeout)
		defer cancel()
		return prefSavedMsg{key: storage.KeyStyle, err: prefs.Set(ctx, storage.KeyStyle, string(next))}
	}
	return tea.Batch(notice, save)
}

func (m *Model) toggleSpeech() tea.Cmd {
	if !m.speechAvailable() {
		return m.setNotice("此環境不支援語音輸入", true)
	}
	if m.capture.Listening() {
		value := m.capture.Stop()
		m.listening = false
		m.input.SetValue(value)
		m.input.CursorEnd()
		m.state.SetInput(value)
		m.refresh()
		return nil
	}
	if err := m.capture.Start(context.Background(), m.input.Value()); err != nil {
		return m.setNotice("無法啟動語音輸入", true)
	}
	m.listening = true
	m.refresh()
	return nil
}

// onSpeech mirrors the capture into the input line. A final value is applied only
// while this screen still considers capture active; after a send or a manual stop
// the input has already been settled.
func (m *Model) onSpeech(msg speechMsg) {
	if msg.listening {
		if !m.capture.Listening() {
			return
		}
		m.listening = true
	} else {
		if !m.listening {
			return
		}
		m.listening = false
	}
	m.input.SetValue(msg.value)
	m.input.CursorEnd()
	m.state.SetInput(msg.value)
	m.refresh()
}

// applyConfig applies the settings that can change while running.
func (m *Model) applyConfig(cfg *config.Config) tea.Cmd {
	m.hover.SetDelay(cfg.HoverCloseDelay())
	m.hyperlinks = cfg.UI.Hyperlinks
	m.sidebarPref = cfg.UI.SidebarWidth
	m.quickTopics = append([]string(nil), cfg.Chat.QuickTopics...)
	if m.logLevel != nil {
		if err := logging.SetLevel(*m.logLevel, cfg.Logging.Level); err != nil {
			m.logger.Warn("log level not changed", zap.Error(err))
		}
	}

	var cmd tea.Cmd
	if cfg.UI.Mouse != m.mouse {
		m.mouse = cfg.UI.Mouse
		if m.mouse {
			cmd = tea.EnableMouseAllMotion
		} else {
			cmd = tea.DisableMouse
			m.pointer = pointerNone
			m.hover.Dismiss()
		}
	}

	if m.ready {
		m.layout()
	}
	m.syncHover()
	m.refresh()
	return cmd
}

// shutdown releases background activity before the program exits.
func (m *Model) shutdown() {
	if m.capture != nil && m.capture.Listening() {
		m.capture.Stop()
	}
	m.listening = false
	m.hover.Dismiss()
}
