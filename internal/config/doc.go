// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for lawassist.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation and live reload.
//
// # Key Types
//
//   - Config: main configuration structure
//   - APIConfig: backend location and request limits
//   - ChatConfig: response style and quick topics
//   - SpeechConfig: external recognizer command
//   - UIConfig, LoggingConfig, StorageConfig
//   - Watcher: reloads the config file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (LAWASSIST_*)
//   - ~/.lawassist/config.toml
//   - ~/.lawassist/config.json
//   - Built-in defaults
//
// LAWASSIST_HOME relocates the ~/.lawassist directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := backend.NewClient(cfg.API.BaseURL)
package config
