// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/lawassist-tui/internal/backend"
	"github.com/jeranaias/lawassist-tui/internal/capability"
	"github.com/jeranaias/lawassist-tui/internal/config"
	"github.com/jeranaias/lawassist-tui/internal/dispatch"
	"github.com/jeranaias/lawassist-tui/internal/identity"
	"github.com/jeranaias/lawassist-tui/internal/logging"
	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/session"
	"github.com/jeranaias/lawassist-tui/internal/speech"
	"github.com/jeranaias/lawassist-tui/internal/storage"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	jsonMode bool
	verbose  bool
	baseURL  string
	style    string
}

// =============================================================================
// APPLICATION BOOTSTRAP
// =============================================================================

// app is everything a backend-facing command needs, built in dependency order.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger
	level   zap.AtomicLevel

	prefs    *storage.Prefs
	clientID string
	client   *backend.Client

	state      *model.State
	sessions   *session.Store
	dispatcher *dispatch.Dispatcher

	caps    capability.Set
	capture *speech.Capture
}

// openOptions selects the optional parts of the bootstrap.
type openOptions struct {
	// speech builds the voice recognizer when the platform supports it.
	speech bool
}

// activeConfigPath returns the file config.Load would read: the TOML file when it
// exists, else the JSON file when that exists, else the TOML path.
func activeConfigPath() (string, error) {
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	if jsonPath, err := config.ConfigPathJSON(); err == nil {
		if _, err := os.Stat(jsonPath); err == nil {
			return jsonPath, nil
		}
	}
	return tomlPath, nil
}

// loadConfig reads the config file and applies the command-line overrides. A file
// that fails to parse is reported on errOut and the defaults are used.
func loadConfig(flags *globalFlags, errOut io.Writer) (*config.Config, string, error) {
	path, err := activeConfigPath()
	if err != nil {
		return nil, "", &ConfigError{Err: err}
	}

	cfg, err := config.Load()
	if cfg == nil {
		return nil, path, &ConfigError{Path: path, Err: err}
	}
	if err != nil {
		fmt.Fprintln(errOut, styles.RenderWarning(fmt.Sprintf("設定檔無法讀取，改用預設值：%v", err)))
	}

	if flags.baseURL != "" {
		cfg.API.BaseURL = flags.baseURL
	}
	if flags.verbose {
		cfg.Logging.Level = "debug"
	}
	if flags.style != "" {
		if _, err := model.ParseStyle(flags.style); err != nil {
			return nil, path, &ValidationError{Field: "style", Value: flags.style, Reason: err.Error(), Example: "--style concise"}
		}
	}
	return cfg, path, nil
}

// openApp runs the bootstrap for cmd. The caller must Close the result.
func openApp(ctx context.Context, cmd *cobra.Command, flags *globalFlags, opts openOptions) (*app, error) {
	a := &app{
		in:     cmd.InOrStdin(),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}

	cfg, path, err := loadConfig(flags, a.errOut)
	if err != nil {
		return nil, err
	}
	a.cfg, a.cfgPath = cfg, path

	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	a.logger, a.level, err = logging.New(logging.Options{Level: cfg.Logging.Level, Path: logPath})
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	dbPath, err := cfg.StoragePath()
	if err != nil {
		a.Close()
		return nil, &ConfigError{Err: err}
	}
	a.prefs, err = storage.Open(dbPath)
	if err != nil {
		a.Close()
		return nil, newCommandError(cmd.Name(), "start", "open preference store", err)
	}

	a.clientID, err = identity.ClientID(ctx, a.prefs)
	if err != nil {
		a.clientID = identity.Ephemeral()
		a.logger.Warn("client id not persisted, using an ephemeral one", zap.Error(err))
	}

	a.client = backend.NewClient(cfg.API.BaseURL).
		WithTimeout(cfg.Timeout()).
		WithLogger(a.logger.Named("backend"))
	if rps := cfg.API.RequestsPerSecond; rps > 0 {
		a.client.WithRateLimit(rate.NewLimiter(rate.Limit(rps), int(rps)+1))
	} else {
		a.client.WithRateLimit(nil)
	}

	a.state = model.NewState()
	a.state.SetStyle(a.initialStyle(ctx, flags))

	a.sessions = session.NewStore(a.client, a.state, a.clientID, a.logger.Named("session"))
	a.dispatcher = dispatch.New(a.client, a.state, a.clientID, a.logger.Named("dispatch")).
		WithTimeout(cfg.Timeout()).
		WithRefresher(a.sessions)

	if opts.speech {
		a.caps = capability.Detect(capability.Options{
			SpeechEnabled: cfg.Speech.Enabled,
			SpeechCommand: cfg.Speech.Command,
		})
		if a.caps.SpeechInput {
			rec, err := speech.NewCommandRecognizer(cfg.Speech.Command)
			if err != nil {
				a.logger.Warn("speech recognizer unavailable", zap.Error(err))
				a.caps.SpeechInput = false
			} else {
				a.capture = speech.NewCapture(rec, a.logger.Named("speech"))
				a.dispatcher.WithSpeech(a.capture)
			}
		}
	}

	a.logger.Debug("bootstrap complete",
		zap.String("command", cmd.CommandPath()),
		zap.String("base_url", a.client.BaseURL()),
		zap.String("style", string(a.state.Style())),
		zap.String("capabilities", a.caps.String()))
	return a, nil
}

// initialStyle resolves the response style: --style, then the stored preference,
// then the config file.
func (a *app) initialStyle(ctx context.Context, flags *globalFlags) model.Style {
	candidates := []string{flags.style}
	if a.prefs != nil {
		candidates = append(candidates, a.prefs.GetOr(ctx, storage.KeyStyle, ""))
	}
	candidates = append(candidates, a.cfg.Chat.Style)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if st, err := model.ParseStyle(c); err == nil {
			return st
		}
	}
	return model.StyleHumor
}

// Close releases what openApp acquired.
func (a *app) Close() {
	if a.capture != nil {
		a.capture.Stop()
	}
	if a.client != nil {
		a.client.CloseIdleConnections()
	}
	if a.prefs != nil {
		if err := a.prefs.Close(); err != nil && a.logger != nil {
			a.logger.Warn("close preference store", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
