// Package extract turns resume files into plain text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxFileSize caps in-memory extraction.
const DefaultMaxFileSize = 50 << 20

// Extractor returns the plain text of one document.
// Failures are isolated per file: an error never affects other files.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// PDF extracts text from PDF files page by page.
type PDF struct {
	maxFileSize int64
}

// NewPDF creates a PDF extractor. maxFileSize <= 0 uses DefaultMaxFileSize.
func NewPDF(maxFileSize int64) *PDF {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &PDF{maxFileSize: maxFileSize}
}

// Extract reads the file and concatenates the text of every page, one page per line block.
// Pages that fail to decode are skipped. Panics from the PDF parser are returned as errors.
func (p *PDF) Extract(ctx context.Context, path string) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	if stat.Size() > p.maxFileSize {
		return "", fmt.Errorf("%s is too large (%d bytes, max %d)", filepath.Base(path), stat.Size(), p.maxFileSize)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parse %s: %v", filepath.Base(path), r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", filepath.Base(path), err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(make(map[string]*pdf.Font))
		if err != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pageText)
	}

	return b.String(), nil
}
