// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/lawassist-tui/internal/backend"
	"github.com/jeranaias/lawassist-tui/internal/citation"
	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/util"
)

// =============================================================================
// DOCUMENT
// =============================================================================

// ErrEmptySession is returned when a session has no messages to export.
var ErrEmptySession = errors.New("session has no messages")

// CitedStatute is a statute referenced by an assistant reply.
type CitedStatute struct {
	Label string `json:"label" yaml:"label"`
	Text  string `json:"text" yaml:"text"`
	URL   string `json:"url" yaml:"url"`
}

// Document is the unit of export.
type Document struct {
	Session    model.Session   `json:"session" yaml:"session"`
	Messages   []model.Message `json:"messages" yaml:"messages"`
	Citations  []CitedStatute  `json:"citations,omitempty" yaml:"citations,omitempty"`
	ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
}

// NewDocument builds a Document and collects the distinct statutes cited by the
// assistant, in order of first appearance.
func NewDocument(sess model.Session, messages []model.Message) *Document {
	doc := &Document{
		Session:    sess,
		Messages:   append([]model.Message(nil), messages...),
		ExportedAt: time.Now(),
	}
	if strings.TrimSpace(doc.Session.Title) == "" {
		doc.Session.Title = model.FallbackTitle(messages)
	}
	seen := make(map[string]bool)
	for _, m := range messages {
		if m.Role != model.RoleAssistant {
			continue
		}
		for _, sp := range citation.ExtractCitations(m.Content) {
			key := sp.LinkText + "\x00" + sp.Payload
			if seen[key] {
				continue
			}
			seen[key] = true
			doc.Citations = append(doc.Citations, CitedStatute{
				Label: sp.LinkText,
				Text:  sp.Text,
				URL:   sp.URL,
			})
		}
	}
	return doc
}

func (d *Document) validate() error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	if len(d.Messages) == 0 {
		return ErrEmptySession
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for session exporters.
type Exporter interface {
	// Export converts a document to the target format and returns the content.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Formats lists the accepted format names.
var Formats = []string{"md", "json", "yaml"}

// ForFormat returns the exporter for a format name.
func ForFormat(name string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "yaml", "yml":
		return NewYAMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want one of %s)", name, strings.Join(Formats, ", "))
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// IncludeMetadata includes the frontmatter and analysis lines in Markdown.
	IncludeMetadata bool

	// IncludeCitations appends the cited statutes section in Markdown.
	IncludeCitations bool

	// Concurrency bounds parallel fetches in ExportAll.
	Concurrency int
}

// DefaultConcurrency is the number of sessions fetched at once by ExportAll.
const DefaultConcurrency = 4

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:        ".",
		IncludeMetadata:  true,
		IncludeCitations: true,
		Concurrency:      DefaultConcurrency,
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Filename returns the output file name for a document.
func Filename(doc *Document, exporter Exporter) string {
	id := doc.Session.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("session_%s_%s%s",
		sanitizeFilename(doc.Session.DisplayTitle()),
		sanitizeFilename(id),
		exporter.FileExtension(),
	)
}

// ExportToFile exports a document to a file using the specified exporter.
// Returns the output file path or an error.
func ExportToFile(doc *Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, Filename(doc, exporter))
	if err := util.AtomicWriteFileWithDir(outputPath, content, 0644, 0755); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// ExportAll fetches every session from the backend and exports it. Fetches run in
// parallel, bounded by opts.Concurrency. The first failure cancels the remaining
// fetches; paths holds the files written for sessions that completed, in input order.
func ExportAll(ctx context.Context, api backend.API, sessions []model.Session, exporter Exporter, opts *Options) ([]string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	paths := make([]string, len(sessions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, sess := range sessions {
		i, sess := i, sess
		g.Go(func() error {
			msgs, err := api.GetSession(gctx, sess.ID)
			if err != nil {
				return fmt.Errorf("fetch session %s: %w", sess.ID, err)
			}
			path, err := ExportToFile(NewDocument(sess, msgs), exporter, opts)
			if err != nil {
				return fmt.Errorf("session %s: %w", sess.ID, err)
			}
			paths[i] = path
			return nil
		})
	}
	err := g.Wait()

	written := paths[:0]
	for _, p := range paths {
		if p != "" {
			written = append(written, p)
		}
	}
	return written, err
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(s, 40)
	s = strings.TrimSuffix(s, util.Ellipsis)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
		'？':  '-',
		'：':  '-',
	}

	result := make([]rune, 0, len(s))
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "session"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
