package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
)

// Parser extracts plain text from a file on disk.
type Parser interface {
	Parse(ctx context.Context, path string) (string, error)
	SupportedFormats() []string
}

// PDFParser reads PDFs with langchaingo's loader, one document per page.
type PDFParser struct{}

func (PDFParser) Parse(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	docs, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load pdf: %w", err)
	}

	pages := make([]string, 0, len(docs))
	for _, d := range docs {
		pages = append(pages, d.PageContent)
	}
	return strings.Join(pages, "\n"), nil
}

func (PDFParser) SupportedFormats() []string {
	return []string{"pdf"}
}
