// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/lawassist-tui/internal/config"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func newConfigCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit the configuration file",
		Long: `Show and edit ~/.lawassist/config.toml. LAWASSIST_HOME moves the whole
directory. Environment variables (LAWASSIST_API_URL, LAWASSIST_STYLE, ...) override
the file at run time but are never written back.`,
	}
	cmd.AddCommand(
		newConfigShowCommand(flags),
		newConfigPathCommand(flags),
		newConfigInitCommand(flags),
		newConfigGetCommand(flags),
		newConfigSetCommand(flags),
	)
	return cmd
}

func newConfigShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(cmd, flags, func() (*config.Config, error) {
				cfg, _, err := loadConfig(flags, cmd.ErrOrStderr())
				return cfg, err
			}, func(w io.Writer, cfg *config.Config) {
				_ = toml.NewEncoder(w).Encode(cfg)
			})
		},
	}
}

// pathResult is the --json payload of config path.
type pathResult struct {
	Dir    string `json:"dir"`
	Config string `json:"config"`
	Exists bool   `json:"exists"`
}

func newConfigPathCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(cmd, flags, func() (pathResult, error) {
				dir, err := config.ConfigDir()
				if err != nil {
					return pathResult{}, &ConfigError{Err: err}
				}
				path, err := activeConfigPath()
				if err != nil {
					return pathResult{}, &ConfigError{Err: err}
				}
				_, statErr := os.Stat(path)
				return pathResult{Dir: dir, Config: path, Exists: statErr == nil}, nil
			}, func(w io.Writer, res pathResult) {
				fmt.Fprintln(w, res.Config)
			})
		},
	}
}

func newConfigInitCommand(flags *globalFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(cmd, flags, func() (pathResult, error) {
				path, err := config.ConfigPathTOML()
				if err != nil {
					return pathResult{}, &ConfigError{Err: err}
				}
				if _, err := os.Stat(path); err == nil && !force {
					return pathResult{}, &ValidationError{
						Field:   "config",
						Value:   path,
						Reason:  "file already exists",
						Example: "lawassist config init --force",
					}
				}
				if err := config.SaveTOML(config.Default(), path); err != nil {
					return pathResult{}, &ConfigError{Path: path, Err: err}
				}
				dir, _ := config.ConfigDir()
				return pathResult{Dir: dir, Config: path, Exists: true}, nil
			}, func(w io.Writer, res pathResult) {
				fmt.Fprintln(w, styles.RenderSuccess("已建立設定檔 "+res.Config))
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// keyValue is the --json payload of config get and set.
type keyValue struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

func newConfigGetCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting (dot notation, e.g. ui.theme)",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return config.GetAllKeys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return emit(cmd, flags, func() (keyValue, error) {
				cfg, _, err := loadConfig(flags, cmd.ErrOrStderr())
				if err != nil {
					return keyValue{}, err
				}
				v, err := cfg.Get(key)
				if err != nil {
					return keyValue{}, &NotFoundError{Resource: "config key", ID: key}
				}
				return keyValue{Key: key, Value: v}, nil
			}, func(w io.Writer, kv keyValue) {
				fmt.Fprintln(w, formatValue(kv.Value))
			})
		},
	}
}

func newConfigSetCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting and save the file",
		Long: `Change one setting and save the file. List values are comma separated.
A running chat screen picks up UI changes without restarting.`,
		Example: `  lawassist config set chat.style concise
  lawassist config set chat.quick_topics 租屋糾紛,交通事故,車禍理賠`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.GetAllKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			return emit(cmd, flags, func() (keyValue, error) {
				path, cfg, err := loadFileOnly()
				if err != nil {
					return keyValue{}, err
				}
				if _, err := cfg.Get(key); err != nil {
					return keyValue{}, &NotFoundError{Resource: "config key", ID: key}
				}
				if err := cfg.Set(key, value); err != nil {
					return keyValue{}, &ValidationError{Field: key, Value: value, Reason: err.Error()}
				}
				if err := cfg.Validate(); err != nil {
					return keyValue{}, &ValidationError{Field: key, Value: value, Reason: err.Error()}
				}
				if strings.HasSuffix(path, ".json") {
					err = config.SaveJSON(cfg, path)
				} else {
					err = config.SaveTOML(cfg, path)
				}
				if err != nil {
					return keyValue{}, &ConfigError{Path: path, Err: err}
				}
				v, _ := cfg.Get(key)
				return keyValue{Key: key, Value: v}, nil
			}, func(w io.Writer, kv keyValue) {
				fmt.Fprintln(w, styles.RenderSuccess(kv.Key+" = "+formatValue(kv.Value)))
			})
		},
	}
}

// loadFileOnly reads the config file without environment overrides, so that a save
// writes back only what the file held plus the change.
func loadFileOnly() (string, *config.Config, error) {
	path, err := activeConfigPath()
	if err != nil {
		return "", nil, &ConfigError{Err: err}
	}
	cfg := config.Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path, cfg, nil
	}
	if strings.HasSuffix(path, ".json") {
		err = config.LoadJSON(cfg, path)
	} else {
		err = config.LoadTOML(cfg, path)
	}
	if err != nil {
		return path, nil, &ConfigError{Path: path, Err: err}
	}
	cfg.SetDefaults()
	return path, cfg, nil
}

func formatValue(v interface{}) string {
	if items, ok := v.([]string); ok {
		return strings.Join(items, ",")
	}
	return fmt.Sprint(v)
}
