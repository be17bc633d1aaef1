// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/lawassist-tui/internal/session"
)

// =============================================================================
// CONFIRMATION PROMPTS
// =============================================================================

// ErrConfirmationRequired is returned when a destructive action cannot prompt.
var ErrConfirmationRequired = errors.New("confirmation required: pass --yes")

// ConfirmationOptions controls RequireConfirmation.
type ConfirmationOptions struct {
	// Yes is true when --yes was passed.
	Yes bool
	// JSONMode disables interactive prompts.
	JSONMode bool
}

// canPrompt reports whether in can answer a prompt. Real files must be terminals;
// anything else (a test buffer) is read as given.
func canPrompt(in io.Reader) bool {
	if f, ok := in.(*os.File); ok {
		return isTerminal(f)
	}
	return in != nil
}

// PromptYesNo writes question to out and reads a y/N answer from in. Anything but
// y or yes, including EOF, is a no.
func PromptYesNo(in io.Reader, out io.Writer, question string) bool {
	if !canPrompt(in) {
		return false
	}
	fmt.Fprintf(out, "%s [y/N]: ", question)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// RequireConfirmation asks before a destructive action. --yes skips the prompt; in
// JSON mode or without a terminal the prompt is refused with
// ErrConfirmationRequired.
func RequireConfirmation(in io.Reader, out io.Writer, question string, opts ConfirmationOptions) (bool, error) {
	if opts.Yes {
		return true, nil
	}
	if opts.JSONMode || !canPrompt(in) {
		return false, ErrConfirmationRequired
	}
	return PromptYesNo(in, out, question), nil
}

// sessionConfirmer adapts RequireConfirmation to the session store.
func sessionConfirmer(in io.Reader, out io.Writer, opts ConfirmationOptions) session.Confirmer {
	return session.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		return RequireConfirmation(in, out, prompt, opts)
	})
}
