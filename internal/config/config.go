// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/util"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete lawassist configuration.
type Config struct {
	// Version is the config schema version.
	Version string `toml:"version" json:"version"`

	API     APIConfig     `toml:"api" json:"api"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
	Speech  SpeechConfig  `toml:"speech" json:"speech"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Storage StorageConfig `toml:"storage" json:"storage"`
}

// APIConfig locates the backend.
type APIConfig struct {
	// BaseURL is the backend root, e.g. http://localhost:8000
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs bounds one chat request.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RequestsPerSecond is the client-side rate limit; 0 disables it.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// ChatConfig holds conversation preferences.
type ChatConfig struct {
	// Style is the response style: "humor", "professional", "concise"
	Style string `toml:"style" json:"style"`
	// QuickTopics are the one-key starter topics.
	QuickTopics []string `toml:"quick_topics" json:"quick_topics"`
}

// SpeechConfig configures voice input.
type SpeechConfig struct {
	// Enabled turns voice input on when the command is available.
	Enabled bool `toml:"enabled" json:"enabled"`
	// Command is the recognizer command line. It must print one JSON result
	// object per line on stdout.
	Command string `toml:"command" json:"command"`
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// Mouse enables mouse reporting (needed for citation hover).
	Mouse bool `toml:"mouse" json:"mouse"`
	// Hyperlinks emits OSC 8 links for statute URLs.
	Hyperlinks bool `toml:"hyperlinks" json:"hyperlinks"`
	// SidebarWidth is the session list width in cells.
	SidebarWidth int `toml:"sidebar_width" json:"sidebar_width"`
	// HoverCloseDelayMs is how long a citation panel stays open after the pointer
	// leaves it.
	HoverCloseDelayMs int `toml:"hover_close_delay_ms" json:"hover_close_delay_ms"`
}

// LoggingConfig controls the diagnostic log.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level" json:"level"`
	// Path is the log file. Empty means <config dir>/lawassist.log.
	Path string `toml:"path" json:"path"`
}

// StorageConfig locates local persistent state.
type StorageConfig struct {
	// Path is the SQLite preference database. Empty means <config dir>/state.db.
	Path string `toml:"path" json:"path"`
}

// DefaultQuickTopics are the built-in starter topics.
var DefaultQuickTopics = []string{"租屋糾紛", "交通事故", "借貸糾紛", "網路誹謗"}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		API: APIConfig{
			BaseURL:           "http://localhost:8000",
			TimeoutSecs:       90,
			RequestsPerSecond: 5,
		},
		Chat: ChatConfig{
			Style:       string(model.StyleHumor),
			QuickTopics: append([]string(nil), DefaultQuickTopics...),
		},
		Speech: SpeechConfig{
			Enabled: true,
			Command: "lawassist-stt",
		},
		UI: UIConfig{
			Theme:             "auto",
			Mouse:             true,
			Hyperlinks:        true,
			SidebarWidth:      28,
			HoverCloseDelayMs: 400,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Timeout returns the chat request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// HoverCloseDelay returns the citation panel close delay.
func (c *Config) HoverCloseDelay() time.Duration {
	return time.Duration(c.UI.HoverCloseDelayMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the lawassist configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("LAWASSIST_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".lawassist"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// LogPath returns the effective log file path.
func (c *Config) LogPath() (string, error) {
	if c.Logging.Path != "" {
		return c.Logging.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lawassist.log"), nil
}

// StoragePath returns the effective preference database path.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last. A file that fails to parse is reported
// alongside a usable default configuration.
func Load() (*Config, error) {
	var loadErr error

	for _, locate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := locate()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err != nil {
			loadErr = err
			break
		}
		return cfg, nil
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
// Values absent from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SetDefaults fills zero values that would make the config unusable.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	c.API.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.Chat.Style == "" {
		c.Chat.Style = defaults.Chat.Style
	}
	if len(c.Chat.QuickTopics) == 0 {
		c.Chat.QuickTopics = defaults.Chat.QuickTopics
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = defaults.UI.SidebarWidth
	}
	if c.UI.HoverCloseDelayMs == 0 {
		c.UI.HoverCloseDelayMs = defaults.UI.HoverCloseDelayMs
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# lawassist configuration file\n")
	b.WriteString("# Environment variables LAWASSIST_* override these values.\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, []byte(b.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validThemes = map[string]bool{"dark": true, "light": true, "auto": true}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{"api.base_url", fmt.Sprintf("must be an http(s) URL, got %q", c.API.BaseURL)})
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{"api.timeout_secs", "must be between 1 and 600"})
	}
	if c.API.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{"api.requests_per_second", "must not be negative"})
	}
	if _, err := model.ParseStyle(c.Chat.Style); err != nil {
		errs = append(errs, ValidationError{"chat.style", err.Error()})
	}
	for i, topic := range c.Chat.QuickTopics {
		if strings.TrimSpace(topic) == "" {
			errs = append(errs, ValidationError{fmt.Sprintf("chat.quick_topics[%d]", i), "must not be blank"})
		}
	}
	if len(c.Chat.QuickTopics) > 9 {
		errs = append(errs, ValidationError{"chat.quick_topics", "at most 9 topics are supported"})
	}
	if !validThemes[c.UI.Theme] {
		errs = append(errs, ValidationError{"ui.theme", fmt.Sprintf("must be dark, light or auto, got %q", c.UI.Theme)})
	}
	if c.UI.SidebarWidth < 12 || c.UI.SidebarWidth > 80 {
		errs = append(errs, ValidationError{"ui.sidebar_width", "must be between 12 and 80"})
	}
	if c.UI.HoverCloseDelayMs < 0 || c.UI.HoverCloseDelayMs > 5000 {
		errs = append(errs, ValidationError{"ui.hover_close_delay_ms", "must be between 0 and 5000"})
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{"logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - LAWASSIST_API_URL: overrides api.base_url
//   - LAWASSIST_TIMEOUT: overrides api.timeout_secs
//   - LAWASSIST_STYLE: overrides chat.style
//   - LAWASSIST_STT_COMMAND: overrides speech.command
//   - LAWASSIST_NO_SPEECH: set to "1" or "true" to disable voice input
//   - LAWASSIST_THEME: overrides ui.theme
//   - LAWASSIST_NO_MOUSE: set to "1" or "true" to disable mouse reporting
//   - LAWASSIST_LOG_LEVEL: overrides logging.level
//   - LAWASSIST_LOG_FILE: overrides logging.path
//   - LAWASSIST_DB: overrides storage.path
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LAWASSIST_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("LAWASSIST_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.API.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("LAWASSIST_STYLE"); v != "" {
		c.Chat.Style = v
	}
	if v := os.Getenv("LAWASSIST_STT_COMMAND"); v != "" {
		c.Speech.Command = v
	}
	if v := os.Getenv("LAWASSIST_NO_SPEECH"); isTrue(v) {
		c.Speech.Enabled = false
	}
	if v := os.Getenv("LAWASSIST_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("LAWASSIST_NO_MOUSE"); isTrue(v) {
		c.UI.Mouse = false
	}
	if v := os.Getenv("LAWASSIST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LAWASSIST_LOG_FILE"); v != "" {
		c.Logging.Path = v
	}
	if v := os.Getenv("LAWASSIST_DB"); v != "" {
		c.Storage.Path = v
	}
}

func isTrue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "api.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "chat.style").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent. Known initialisms are matched case-insensitively by the caller.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			field.SetBool(isTrue(strVal))
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"api.base_url",
		"api.timeout_secs",
		"api.requests_per_second",
		"chat.style",
		"chat.quick_topics",
		"speech.enabled",
		"speech.command",
		"ui.theme",
		"ui.mouse",
		"ui.hyperlinks",
		"ui.sidebar_width",
		"ui.hover_close_delay_ms",
		"logging.level",
		"logging.path",
		"storage.path",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Chat.QuickTopics = append([]string(nil), c.Chat.QuickTopics...)
	return &clone
}

// String returns the config as indented JSON for display.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
