// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package citation finds law citations embedded in assistant markdown, decodes their
// payloads and resolves a statute database URL for each one.
//
// The backend marks a citation as a markdown link whose destination starts with
// SchemePrefix; the remainder of the destination is base64 UTF-8 text holding the
// statute excerpt. Every other link is an ordinary external link and is left alone.
package citation

import (
	"strings"
)

// SchemePrefix identifies a citation link. It is matched exactly, case included.
const SchemePrefix = "https://law.ai/view?data="

// Citation is a decoded citation, ready for the preview panel.
type Citation struct {
	// Text is the decoded statute excerpt (or DecodeFailedPlaceholder).
	Text string
	// LinkText is the visible text of the link, used for URL resolution.
	LinkText string
	// URL is the resolved statute database page.
	URL string
	// Payload is the raw encoded data as it appeared in the link.
	Payload string
}

// IsCitationHref reports whether href is a citation marker.
func IsCitationHref(href string) bool {
	return strings.HasPrefix(href, SchemePrefix)
}

// Detect inspects a rendered link. It returns false for ordinary links, which callers
// must render unmodified.
//
// The link text is resolved independently of whether the payload decodes, so a broken
// payload still produces a working statute URL.
func Detect(href string, children Node) (Citation, bool) {
	if !IsCitationHref(href) {
		return Citation{}, false
	}

	payload := href[len(SchemePrefix):]
	linkText := strings.TrimSpace(Flatten(children))

	return Citation{
		Text:     Decode(payload),
		LinkText: linkText,
		URL:      ResolveURL(linkText),
		Payload:  payload,
	}, true
}
