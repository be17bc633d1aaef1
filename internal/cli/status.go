// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for lawassist.
//
// Command: status
// Short:   Show the configuration and whether the backend answers
// Aliases: info
//
// Examples:
//   lawassist status              Show status
//   lawassist status --json       Status in JSON format
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/lawassist-tui/internal/capability"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
)

// statusPingTimeout bounds the reachability check.
const statusPingTimeout = 3 * time.Second

// statusResult is the --json payload of status.
type statusResult struct {
	Config       string `json:"config"`
	APIURL       string `json:"api_url"`
	Reachable    bool   `json:"reachable"`
	PingError    string `json:"ping_error,omitempty"`
	ClientID     string `json:"client_id"`
	Style        string `json:"style"`
	Capabilities string `json:"capabilities"`
}

func newStatusCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"info"},
		Short:   "Show the configuration and whether the backend answers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, flags, openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			return emit(cmd, flags, func() (statusResult, error) {
				caps := capability.Detect(capability.Options{
					SpeechEnabled: a.cfg.Speech.Enabled,
					SpeechCommand: a.cfg.Speech.Command,
				})
				res := statusResult{
					Config:       a.cfgPath,
					APIURL:       a.client.BaseURL(),
					ClientID:     a.clientID,
					Style:        string(a.state.Style()),
					Capabilities: caps.String(),
				}

				ctx, cancel := context.WithTimeout(cmd.Context(), statusPingTimeout)
				defer cancel()
				if err := a.client.Ping(ctx); err != nil {
					res.PingError = err.Error()
				} else {
					res.Reachable = true
				}
				return res, nil
			}, printStatus)
		},
	}
}

func printStatus(w io.Writer, res statusResult) {
	backendState := styles.RenderSuccess("可連線")
	if !res.Reachable {
		backendState = styles.RenderError("無法連線：" + res.PingError)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "設定檔\t%s\n", res.Config)
	fmt.Fprintf(tw, "後端\t%s\n", res.APIURL)
	fmt.Fprintf(tw, "狀態\t%s\n", backendState)
	fmt.Fprintf(tw, "用戶端\t%s\n", res.ClientID)
	fmt.Fprintf(tw, "風格\t%s\n", res.Style)
	fmt.Fprintf(tw, "功能\t%s\n", res.Capabilities)
	_ = tw.Flush()
}
