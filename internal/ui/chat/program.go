// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/lawassist-tui/internal/config"
)

// =============================================================================
// PROGRAM
// =============================================================================

// Run starts the full-screen interface and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, d Deps) error {
	m := New(d)
	logger := m.logger

	opts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}
	if m.mouse {
		opts = append(opts, tea.WithMouseAllMotion())
	}
	p := tea.NewProgram(m, opts...)

	go m.notify.run(p.Send)
	defer m.notify.close()

	if d.ConfigPath != "" {
		w, err := config.Watch(d.ConfigPath, func(cfg *config.Config, err error) {
			m.notify.post(configReloadedMsg{cfg: cfg, err: err})
		})
		if err != nil {
			logger.Warn("config watch disabled", zap.String("path", d.ConfigPath), zap.Error(err))
		} else {
			defer w.Close()
		}
	}

	logger.Info("tui started", zap.Bool("mouse", m.mouse), zap.String("capabilities", m.caps.String()))
	_, err := p.Run()
	m.shutdown()

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	logger.Info("tui stopped")
	return nil
}
