// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package citation

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// DecodeFailedPlaceholder is shown in the citation panel when a payload cannot be decoded.
// The panel always renders something, so Decode never returns an error.
const DecodeFailedPlaceholder = "（無法解析條文內容）"

// Decode turns a citation payload (standard base64 over UTF-8 bytes) back into text.
//
// The bytes are decoded as a whole before being interpreted as UTF-8, so multi-byte
// sequences survive intact. Missing padding is tolerated because the backend does not
// always emit it. Anything that is not valid base64, or does not decode to valid UTF-8,
// yields DecodeFailedPlaceholder.
func Decode(payload string) string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return DecodeFailedPlaceholder
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return DecodeFailedPlaceholder
		}
	}

	if !utf8.Valid(raw) {
		return DecodeFailedPlaceholder
	}
	return string(raw)
}
