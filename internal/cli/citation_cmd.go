// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/lawassist-tui/internal/citation"
)

// maxScanInput bounds the markdown read by citation scan.
const maxScanInput = 4 << 20

// =============================================================================
// CITATION COMMAND
// =============================================================================

func newCitationCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "citation",
		Aliases: []string{"cite"},
		Short:   "Inspect statute citations offline",
		Long: `Decode citation payloads, resolve statute names to database URLs and list
the citations in a markdown reply. These commands do not contact the backend.`,
	}
	cmd.AddCommand(
		newCitationDecodeCommand(flags),
		newCitationResolveCommand(flags),
		newCitationScanCommand(flags),
	)
	return cmd
}

// decodeResult is the --json payload of citation decode.
type decodeResult struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
	Decoded bool   `json:"decoded"`
}

func newCitationDecodeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <payload>",
		Short: "Decode a citation payload to statute text",
		Long: `Decode the base64 payload of a citation link. A whole link
(https://law.ai/view?data=...) is accepted too. Undecodable payloads print the
placeholder shown in the chat panel.`,
		Example: `  lawassist citation decode 5rCR5rOV56ysMTg05qKd
  lawassist citation decode "https://law.ai/view?data=5rCR5rOV56ysMTg05qKd"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(cmd, flags, func() (decodeResult, error) {
				payload := strings.TrimPrefix(strings.TrimSpace(args[0]), citation.SchemePrefix)
				text := citation.Decode(payload)
				return decodeResult{
					Payload: payload,
					Text:    text,
					Decoded: text != citation.DecodeFailedPlaceholder,
				}, nil
			}, func(w io.Writer, res decodeResult) {
				fmt.Fprintln(w, res.Text)
			})
		},
	}
}

// resolveResult is the --json payload of citation resolve.
type resolveResult struct {
	Text string `json:"text"`
	Law  string `json:"law,omitempty"`
	Code string `json:"code,omitempty"`
	URL  string `json:"url"`
}

func newCitationResolveCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <citation text>",
		Short: "Resolve a statute reference to its database URL",
		Example: `  lawassist citation resolve 民法第184條
  lawassist citation resolve 道路交通管理處罰條例`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return emit(cmd, flags, func() (resolveResult, error) {
				res := resolveResult{Text: text, URL: citation.ResolveURL(text)}
				if law, ok := citation.LookupLaw(text); ok {
					res.Law, res.Code = law.Name, law.Code
				}
				return res, nil
			}, func(w io.Writer, res resolveResult) {
				fmt.Fprintln(w, res.URL)
			})
		},
	}
}

func newCitationScanCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [file]",
		Short: "List the citations in a markdown reply",
		Long: `List every citation link in a markdown document with its decoded text and
URL. Reads stdin when no file is given or the file is "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readScanInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return emit(cmd, flags, func() ([]citationView, error) {
				views := citationViews(citation.ExtractCitations(src))
				if views == nil {
					views = []citationView{}
				}
				return views, nil
			}, func(w io.Writer, views []citationView) {
				if len(views) == 0 {
					fmt.Fprintln(w, "沒有找到引用條文")
					return
				}
				for _, v := range views {
					fmt.Fprintf(w, "%s\t%s\n\t%s\n", v.Label, v.URL, strings.Join(strings.Fields(v.Text), " "))
				}
			})
		},
	}
}

func readScanInput(stdin io.Reader, args []string) (string, error) {
	var r io.Reader = stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", &NotFoundError{Resource: "file", ID: args[0]}
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, maxScanInput))
	if err != nil {
		return "", fmt.Errorf("read markdown: %w", err)
	}
	return string(data), nil
}
