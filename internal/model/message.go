// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "你"
	case RoleAssistant:
		return "法律助手"
	default:
		return string(r)
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// AnalysisSummary is the backend's classification of a question.
type AnalysisSummary struct {
	Domain    string   `json:"domain" yaml:"domain"`
	RiskLevel string   `json:"risk_level" yaml:"risk_level"`
	Keywords  []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// UnmarshalJSON accepts the risk level as either risk_level or riskLevel.
func (a *AnalysisSummary) UnmarshalJSON(data []byte) error {
	type plain AnalysisSummary
	var v struct {
		plain
		RiskLevelCamel string `json:"riskLevel"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = AnalysisSummary(v.plain)
	if a.RiskLevel == "" {
		a.RiskLevel = v.RiskLevelCamel
	}
	return nil
}

// Message is one conversation turn. Messages are values and are never modified once
// appended to a conversation.
type Message struct {
	Role     Role             `json:"role" yaml:"role"`
	Content  string           `json:"content" yaml:"content"`
	Analysis *AnalysisSummary `json:"analysis,omitempty" yaml:"analysis,omitempty"`

	// Failed marks the synthetic assistant turn appended when the backend could not
	// be reached. It is never sent to or received from the backend.
	Failed bool `json:"-" yaml:"-"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message. analysis may be nil.
func NewAssistantMessage(content string, analysis *AnalysisSummary) Message {
	return Message{Role: RoleAssistant, Content: content, Analysis: analysis.Clone()}
}

// Clone returns a deep copy, or nil for a nil summary.
func (a *AnalysisSummary) Clone() *AnalysisSummary {
	if a == nil {
		return nil
	}
	c := *a
	c.Keywords = append([]string(nil), a.Keywords...)
	return &c
}

// Preview returns a truncated single-line preview of the message content.
// Uses rune-based truncation to handle CJK text correctly.
func (m Message) Preview(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	content := strings.Join(strings.Fields(m.Content), " ")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// IsEmpty returns true if the message has no content.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}

// TitleLength is the length in runes of a title derived from a question.
const TitleLength = 20

// FallbackTitle derives a session title from the first non-empty question in msgs,
// for sessions the list did not name. It returns "" when there is none.
func FallbackTitle(msgs []Message) string {
	for _, m := range msgs {
		if m.Role == RoleUser && !m.IsEmpty() {
			return m.Preview(TitleLength)
		}
	}
	return ""
}

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is a past conversation as listed by the session store.
type Session struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// DisplayTitle returns the title, or a placeholder for untitled sessions.
func (s Session) DisplayTitle() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return "（未命名對話）"
}
