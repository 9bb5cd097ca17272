// Package ingest turns an uploaded document into prompt-sized text chunks.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"careconnect/internal/pkg/logger"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 100
)

// Adapter persists an upload to a temp file, hands it to the parser for
// its extension and splits the text. The temp file never outlives Ingest.
type Adapter struct {
	parsers      map[string]Parser
	chunkSize    int
	chunkOverlap int
	tempDir      string
	logger       logger.ILogger
}

type Option func(*Adapter)

func WithChunking(size, overlap int) Option {
	return func(a *Adapter) {
		if size > 0 {
			a.chunkSize = size
		}
		if overlap >= 0 && overlap < a.chunkSize {
			a.chunkOverlap = overlap
		}
	}
}

func WithTempDir(dir string) Option {
	return func(a *Adapter) {
		a.tempDir = dir
	}
}

// WithParser registers p for every format it supports, replacing earlier
// registrations.
func WithParser(p Parser) Option {
	return func(a *Adapter) {
		for _, f := range p.SupportedFormats() {
			a.parsers[strings.ToLower(f)] = p
		}
	}
}

// WithTika routes all formats through a Tika server when url is set.
func WithTika(url string) Option {
	return func(a *Adapter) {
		if url == "" {
			return
		}
		WithParser(NewTikaParser(url))(a)
	}
}

func NewAdapter(log logger.ILogger, opts ...Option) *Adapter {
	a := &Adapter{
		parsers:      map[string]Parser{},
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		tempDir:      os.TempDir(),
		logger:       log,
	}
	WithParser(PDFParser{})(a)
	WithParser(DOCXParser{})(a)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Formats lists the accepted extensions without the dot.
func (a *Adapter) Formats() []string {
	out := make([]string, 0, len(a.parsers))
	for _, f := range []string{"pdf", "doc", "docx"} {
		if _, ok := a.parsers[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Ingest returns the chunks of the uploaded document. On any failure it
// returns an empty list and an *ExtractionError; it does not panic.
func (a *Adapter) Ingest(ctx context.Context, filename string, r io.Reader) (chunks []string, err error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	parser, ok := a.parsers[ext]
	if !ok {
		return []string{}, &ExtractionError{Filename: filename, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)}
	}

	tmp, err := os.CreateTemp(a.tempDir, "upload-*."+ext)
	if err != nil {
		return []string{}, &ExtractionError{Filename: filename, Err: fmt.Errorf("create temp file: %w", err)}
	}
	path := tmp.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			a.logger.Warn("INGEST", "Failed to remove temp file", map[string]interface{}{
				"path":  path,
				"error": rmErr.Error(),
			})
		}
	}()
	defer func() {
		if rec := recover(); rec != nil {
			chunks = []string{}
			err = &ExtractionError{Filename: filename, Err: fmt.Errorf("parser panic: %v", rec)}
		}
		if err != nil {
			a.logger.Error("INGEST", "Document extraction failed", map[string]interface{}{
				"file":  filename,
				"error": err.Error(),
			})
		}
	}()

	_, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil {
		return []string{}, &ExtractionError{Filename: filename, Err: fmt.Errorf("write temp file: %w", copyErr)}
	}
	if closeErr != nil {
		return []string{}, &ExtractionError{Filename: filename, Err: fmt.Errorf("write temp file: %w", closeErr)}
	}

	text, err := parser.Parse(ctx, path)
	if err != nil {
		return []string{}, &ExtractionError{Filename: filename, Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, &ExtractionError{Filename: filename, Err: ErrNoText}
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(a.chunkSize),
		textsplitter.WithChunkOverlap(a.chunkOverlap),
	)
	chunks, err = splitter.SplitText(text)
	if err != nil {
		return []string{}, &ExtractionError{Filename: filename, Err: fmt.Errorf("split text: %w", err)}
	}

	a.logger.Info("INGEST", "Document extracted", map[string]interface{}{
		"file":   filename,
		"chunks": len(chunks),
	})
	return chunks, nil
}
