package document

import (
	"path/filepath"
	"strings"
	"time"
)

// Document is the extraction result for one resume file (immutable value object).
// Identity is the file path.
type Document struct {
	path     string
	text     string
	ok       bool
	duration time.Duration
}

// New creates a successfully extracted document.
func New(path, text string, duration time.Duration) Document {
	return Document{path: path, text: text, ok: true, duration: duration}
}

// Failed creates a document whose extraction did not complete.
func Failed(path string, duration time.Duration) Document {
	return Document{path: path, duration: duration}
}

// Path returns the source file path.
func (d Document) Path() string { return d.path }

// FileName returns the base name of the source file.
func (d Document) FileName() string { return filepath.Base(d.path) }

// Text returns the raw extracted text, possibly empty.
func (d Document) Text() string { return d.text }

// OK reports whether extraction succeeded.
func (d Document) OK() bool { return d.ok }

// Duration returns the time spent extracting.
func (d Document) Duration() time.Duration { return d.duration }

// Indexable reports whether the document has non-whitespace text and can enter the corpus.
func (d Document) Indexable() bool {
	return d.ok && strings.TrimSpace(d.text) != ""
}
