// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LAWASSIST_HOME", dir)
	for _, k := range []string{
		"LAWASSIST_API_URL", "LAWASSIST_TIMEOUT", "LAWASSIST_STYLE", "LAWASSIST_STT_COMMAND",
		"LAWASSIST_NO_SPEECH", "LAWASSIST_THEME", "LAWASSIST_NO_MOUSE", "LAWASSIST_LOG_LEVEL",
		"LAWASSIST_LOG_FILE", "LAWASSIST_DB",
	} {
		t.Setenv(k, "")
	}
	return dir
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, "humor", cfg.Chat.Style)
	assert.Equal(t, []string{"租屋糾紛", "交通事故", "借貸糾紛", "網路誹謗"}, cfg.Chat.QuickTopics)
	assert.Equal(t, 400*time.Millisecond, cfg.HoverCloseDelay())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().API, cfg.API)

	p, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "state.db"), p)
	p, err = cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lawassist.log"), p)
}

func TestLoad_TOMLPartialKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[api]
base_url = "http://legal.example:9000/"

[chat]
style = "concise"
`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://legal.example:9000", cfg.API.BaseURL)
	assert.Equal(t, "concise", cfg.Chat.Style)
	assert.Equal(t, 90, cfg.API.TimeoutSecs)
	assert.True(t, cfg.UI.Mouse)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"ui":{"theme":"light"}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestLoad_InvalidFileReportsErrorWithDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`[chat]
style = "shouty"
`), 0600))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "humor", cfg.Chat.Style)
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("LAWASSIST_API_URL", "https://api.example")
	t.Setenv("LAWASSIST_STYLE", "professional")
	t.Setenv("LAWASSIST_NO_SPEECH", "true")
	t.Setenv("LAWASSIST_TIMEOUT", "15")
	t.Setenv("LAWASSIST_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example", cfg.API.BaseURL)
	assert.Equal(t, "professional", cfg.Chat.Style)
	assert.False(t, cfg.Speech.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Timeout())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.Chat.Style = "concise"
	cfg.UI.SidebarWidth = 40
	require.NoError(t, Save(cfg))

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "concise", loaded.Chat.Style)
	assert.Equal(t, 40, loaded.UI.SidebarWidth)

	jsonPath := filepath.Join(dir, "alt.json")
	require.NoError(t, SaveJSON(cfg, jsonPath))
	fromJSON, err := LoadFromPath(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 40, fromJSON.UI.SidebarWidth)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.API.BaseURL = "localhost:8000" }, "api.base_url"},
		{"bad timeout", func(c *Config) { c.API.TimeoutSecs = 0 }, "api.timeout_secs"},
		{"bad style", func(c *Config) { c.Chat.Style = "loud" }, "chat.style"},
		{"blank topic", func(c *Config) { c.Chat.QuickTopics = []string{" "} }, "chat.quick_topics[0]"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verrs ValidateErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

// =============================================================================
// GET / SET
// =============================================================================

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("api.base_url", "http://x:1"))
	require.NoError(t, cfg.Set("ui.sidebar_width", "30"))
	require.NoError(t, cfg.Set("ui.mouse", "false"))
	require.NoError(t, cfg.Set("api.requests_per_second", "2.5"))
	require.NoError(t, cfg.Set("chat.quick_topics", "車禍, 離婚"))

	v, err := cfg.Get("api.base_url")
	require.NoError(t, err)
	assert.Equal(t, "http://x:1", v)
	assert.Equal(t, 30, cfg.UI.SidebarWidth)
	assert.False(t, cfg.UI.Mouse)
	assert.Equal(t, 2.5, cfg.API.RequestsPerSecond)
	assert.Equal(t, []string{"車禍", "離婚"}, cfg.Chat.QuickTopics)

	_, err = cfg.Get("api.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("api.base_url.x", "y"))
	assert.Error(t, cfg.Set("ui.sidebar_width", "wide"))
}

func TestGetAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestClone_IsDeep(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Chat.QuickTopics[0] = "changed"
	assert.Equal(t, "租屋糾紛", cfg.Chat.QuickTopics[0])
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	reloaded := make(chan *Config, 4)
	w, err := WatchWithDebounce(path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})
	require.NoError(t, err)
	defer w.Close()

	cfg := Default()
	cfg.Chat.Style = "professional"
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-reloaded:
		assert.Equal(t, "professional", got.Chat.Style)
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	var mu sync.Mutex
	calls := 0
	w, err := WatchWithDebounce(path, 10*time.Millisecond, func(*Config, error) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}
