// Package catalog owns the corpus and its similarity index as one build-once unit.
package catalog

import (
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/domain/document"
	"github.com/kailas-cloud/shortlist/internal/index"
)

// Hit is one search result mapped back to its corpus entry.
type Hit struct {
	Row      int
	Score    float64
	Document document.Document
}

// Catalog is the immutable result of one successful ingestion.
// docs[i] and the index row i always refer to the same document.
type Catalog struct {
	docs    []document.Document
	index   *index.Flat
	builtAt time.Time
}

// New builds a catalog from aligned documents and normalized vectors.
func New(docs []document.Document, vectors [][]float32) (*Catalog, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("%d documents, %d vectors: %w",
			len(docs), len(vectors), domain.ErrCorpusMisaligned)
	}

	idx := index.NewFlat(0)
	if err := idx.Add(vectors); err != nil {
		return nil, fmt.Errorf("add vectors: %w", err)
	}

	owned := make([]document.Document, len(docs))
	copy(owned, docs)

	return &Catalog{docs: owned, index: idx, builtAt: time.Now()}, nil
}

// Len returns the number of indexed documents.
func (c *Catalog) Len() int { return len(c.docs) }

// Dim returns the vector dimension.
func (c *Catalog) Dim() int { return c.index.Dim() }

// BuiltAt returns the build time.
func (c *Catalog) BuiltAt() time.Time { return c.builtAt }

// Document returns the corpus entry at row.
func (c *Catalog) Document(row int) (document.Document, bool) {
	if row < 0 || row >= len(c.docs) {
		return document.Document{}, false
	}
	return c.docs[row], true
}

// Documents returns a copy of the corpus in row order.
func (c *Catalog) Documents() []document.Document {
	out := make([]document.Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Search returns up to k hits, best first. Rows outside the corpus are skipped.
func (c *Catalog) Search(q []float32, k int) ([]Hit, error) {
	scores, rows, err := c.index.Search(q, k)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}

	hits := make([]Hit, 0, len(rows))
	for i, row := range rows {
		doc, ok := c.Document(row)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Row: row, Score: scores[i], Document: doc})
	}
	return hits, nil
}

// Holder publishes the current catalog to concurrent readers.
// A failed ingestion never replaces the published catalog.
type Holder struct {
	mu      sync.RWMutex
	current *Catalog
}

// NewHolder creates an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Set publishes c as the current catalog.
func (h *Holder) Set(c *Catalog) {
	h.mu.Lock()
	h.current = c
	h.mu.Unlock()
}

// Current returns the published catalog, or nil before the first successful ingestion.
func (h *Holder) Current() *Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Count returns the number of documents in the current catalog.
func (h *Holder) Count() int {
	if c := h.Current(); c != nil {
		return c.Len()
	}
	return 0
}
