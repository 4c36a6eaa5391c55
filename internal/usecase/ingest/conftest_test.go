package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/shortlist/internal/domain"
)

// fileBehavior describes what the mock extractor does for one file name.
type fileBehavior struct {
	text  string
	err   error
	delay time.Duration
	block bool
	panic bool
}

type mockExtractor struct {
	files map[string]fileBehavior

	active    atomic.Int32
	maxActive atomic.Int32
}

func (m *mockExtractor) Extract(ctx context.Context, path string) (string, error) {
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		cur := m.maxActive.Load()
		if n <= cur || m.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}

	b, ok := m.files[filepath.Base(path)]
	if !ok {
		return "", fmt.Errorf("unexpected file %s", path)
	}
	if b.panic {
		panic("corrupt xref table")
	}
	if b.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	return b.text, b.err
}

// oneHotEmbedder maps "resume-NN" to the unit vector along axis NN.
type oneHotEmbedder struct {
	dim int
	err error

	mu         sync.Mutex
	batchSizes []int
}

func (e *oneHotEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dim)
	var n int
	if _, err := fmt.Sscanf(text, "resume-%d", &n); err == nil && n < e.dim {
		v[n] = 3 // normalization must bring this back to 1
	}
	return v
}

func (e *oneHotEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: e.vector(text), TotalTokens: 1}, nil
}

func (e *oneHotEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.mu.Lock()
	e.batchSizes = append(e.batchSizes, len(texts))
	e.mu.Unlock()

	if e.err != nil {
		return domain.BatchEmbeddingResult{}, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

// writeFiles creates empty placeholder files in a fresh temp dir.
func writeFiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func resumeName(i int) string { return fmt.Sprintf("resume-%02d.pdf", i) }

func resumeText(i int) string { return fmt.Sprintf("resume-%02d", i) }
