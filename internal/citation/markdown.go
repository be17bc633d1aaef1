// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package citation

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SpanOpen and SpanClose delimit an annotated citation in rewritten markdown.
const (
	SpanOpen  = "〔"
	SpanClose = "〕"
)

// Span is one citation found in a markdown document.
type Span struct {
	Citation
	// Label is the inert text that replaces the link, delimiters included.
	Label string
	// Start and End are the byte range of the original link in the source.
	// Both are -1 when the link could not be located (e.g. empty link text).
	Start, End int
}

var markdownParser = goldmark.New().Parser()

// ExtractCitations returns every citation link in src, in document order. Both inline
// links and autolinks ("<https://law.ai/view?data=...>") are recognised.
func ExtractCitations(src string) []Span {
	source := []byte(src)
	doc := markdownParser.Parse(text.NewReader(source))

	var spans []Span
	// cursor is the source offset reached so far; autolinks are searched from it.
	cursor := 0
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Text:
			if n.Segment.Stop > cursor {
				cursor = n.Segment.Stop
			}
		case *ast.Link:
			dest := string(n.Destination)
			c, ok := Detect(dest, FromMarkdownAST(n, source))
			if !ok {
				return ast.WalkContinue, nil
			}
			start, end := linkRange(n, source, dest)
			if end > cursor {
				cursor = end
			}
			spans = append(spans, Span{Citation: c, Label: label(c.LinkText), Start: start, End: end})
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			dest := string(n.URL(source))
			c, ok := Detect(dest, TextNode(""))
			if !ok {
				return ast.WalkContinue, nil
			}
			// An autolink has no link text; the decoded excerpt is the best search key.
			if c.Text != DecodeFailedPlaceholder {
				c.URL = ResolveURL(c.Text)
			}
			start, end := -1, -1
			if i := bytes.Index(source[cursor:], []byte("<"+dest+">")); i >= 0 {
				start = cursor + i
				end = start + len(dest) + 2
				cursor = end
			}
			spans = append(spans, Span{Citation: c, Label: label(c.LinkText), Start: start, End: end})
		}
		return ast.WalkContinue, nil
	})
	return spans
}

// Annotate replaces every locatable citation link in src with its inert Label, so the
// markdown renderer shows styled text instead of a navigable link. Ordinary links are
// untouched. The returned spans include citations that could not be rewritten.
func Annotate(src string) (string, []Span) {
	spans := ExtractCitations(src)
	if len(spans) == 0 {
		return src, nil
	}

	var sb strings.Builder
	last := 0
	for _, s := range spans {
		if s.Start < last || s.End <= s.Start {
			continue
		}
		sb.WriteString(src[last:s.Start])
		sb.WriteString(s.Label)
		last = s.End
	}
	sb.WriteString(src[last:])
	return sb.String(), spans
}

func label(linkText string) string {
	if linkText == "" {
		linkText = "引用"
	}
	return SpanOpen + linkText + SpanClose
}

// emphasisMarks may sit between a link's brackets and its first or last text segment.
const emphasisMarks = "*_~`"

// linkRange locates the inline link "[text](dest ...)" in source from the text
// segments of link. Reference links ("[text][ref]") and anything that does not read
// as an inline link with exactly dest as its destination yield -1, -1.
func linkRange(link *ast.Link, source []byte, dest string) (int, int) {
	first, last := -1, -1
	_ = ast.Walk(link, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			if first < 0 {
				first = t.Segment.Start
			}
			last = t.Segment.Stop
		}
		return ast.WalkContinue, nil
	})
	if first < 0 {
		return -1, -1
	}

	// "[" then only opening emphasis before the first text.
	start := first - 1
	for start >= 0 && strings.IndexByte(emphasisMarks, source[start]) >= 0 {
		start--
	}
	if start < 0 || source[start] != '[' {
		return -1, -1
	}

	// Only closing emphasis after the last text, then "](".
	i := last
	for i < len(source) && strings.IndexByte(emphasisMarks, source[i]) >= 0 {
		i++
	}
	if !bytes.HasPrefix(source[i:], []byte("](")) {
		return -1, -1
	}
	i = skipSpaces(source, i+2)

	angled := i < len(source) && source[i] == '<'
	if angled {
		i++
	}
	if !bytes.HasPrefix(source[i:], []byte(dest)) {
		return -1, -1
	}
	i += len(dest)
	if angled {
		if i >= len(source) || source[i] != '>' {
			return -1, -1
		}
		i++
	}
	i = skipSpaces(source, i)

	// Optional title: "t", 't' or (t).
	if i < len(source) && (source[i] == '"' || source[i] == '\'' || source[i] == '(') {
		closer := source[i]
		if closer == '(' {
			closer = ')'
		}
		rel := bytes.IndexByte(source[i+1:], closer)
		if rel < 0 {
			return -1, -1
		}
		i = skipSpaces(source, i+1+rel+1)
	}
	if i >= len(source) || source[i] != ')' {
		return -1, -1
	}
	return start, i + 1
}

func skipSpaces(source []byte, i int) int {
	for i < len(source) && (source[i] == ' ' || source[i] == '\t' || source[i] == '\n') {
		i++
	}
	return i
}
