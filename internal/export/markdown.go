// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/lawassist-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports sessions to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a document to Markdown. Citation links are kept as they are so the
// file can be re-rendered with previews.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	title := doc.Session.DisplayTitle()

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(title))
		if doc.Session.ID != "" {
			fmt.Fprintf(&sb, "session_id: %s\n", escapeYAML(doc.Session.ID))
		}
		fmt.Fprintf(&sb, "messages: %d\n", len(doc.Messages))
		fmt.Fprintf(&sb, "exported: %s\n", doc.ExportedAt.Format(time.RFC3339))
		sb.WriteString("generator: lawassist\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	for i, msg := range doc.Messages {
		fmt.Fprintf(&sb, "### %s\n\n", msg.Role.DisplayName())
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")

		if e.options.IncludeMetadata {
			if line := analysisLine(msg.Analysis); line != "" {
				sb.WriteString(line)
				sb.WriteString("\n\n")
			}
		}
		if i < len(doc.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	if e.options.IncludeCitations && len(doc.Citations) > 0 {
		sb.WriteString("\n## 引用法條\n\n")
		for _, c := range doc.Citations {
			fmt.Fprintf(&sb, "- [%s](%s)\n", escapeMarkdown(c.Label), c.URL)
			for _, line := range strings.Split(strings.TrimSpace(c.Text), "\n") {
				fmt.Fprintf(&sb, "  > %s\n", line)
			}
		}
	}

	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*匯出時間 %s*\n", formatTimestamp(doc.ExportedAt))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func analysisLine(a *model.AnalysisSummary) string {
	if a == nil || (a.Domain == "" && a.RiskLevel == "" && len(a.Keywords) == 0) {
		return ""
	}
	var parts []string
	if a.Domain != "" {
		parts = append(parts, "領域："+a.Domain)
	}
	if a.RiskLevel != "" {
		parts = append(parts, "風險："+a.RiskLevel)
	}
	if len(a.Keywords) > 0 {
		parts = append(parts, "關鍵字："+strings.Join(a.Keywords, "、"))
	}
	return "*" + strings.Join(parts, " ｜ ") + "*"
}

// escapeYAML quotes a frontmatter value when it could break the block.
func escapeYAML(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, ":#{}[]&*!|>'\"%@`\n\r") || strings.TrimSpace(s) != s {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, `"`, `\"`)
		s = strings.ReplaceAll(s, "\n", `\n`)
		s = strings.ReplaceAll(s, "\r", `\r`)
		return `"` + s + `"`
	}
	return s
}

// escapeMarkdown escapes characters that would change heading or link rendering.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"*", `\*`,
		"_", `\_`,
		"[", `\[`,
		"]", `\]`,
		"#", `\#`,
		"`", "\\`",
		"\n", " ",
	)
	return replacer.Replace(s)
}
