package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/catalog"
	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

func newTestService(ext Extractor, emb domain.Embedder, holder *catalog.Holder, opts Options) *Service {
	return New(ext, emb, holder, opts, zap.NewNop())
}

func oneHot(dim, axis int) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	return v
}

func TestIngest_FolderNotFound(t *testing.T) {
	holder := catalog.NewHolder()
	svc := newTestService(&mockExtractor{}, &oneHotEmbedder{dim: 4}, holder, Options{})

	_, err := svc.Ingest(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, domain.ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound, got %v", err)
	}
	if holder.Current() != nil {
		t.Error("failed ingest must not publish a catalog")
	}
}

func TestIngest_NoMatchingFiles(t *testing.T) {
	dir := writeFiles(t, "notes.txt", "photo.png")
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o700); err != nil {
		t.Fatal(err)
	}

	holder := catalog.NewHolder()
	svc := newTestService(&mockExtractor{}, &oneHotEmbedder{dim: 4}, holder, Options{})

	_, err := svc.Ingest(context.Background(), dir)
	if !errors.Is(err, domain.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
	if holder.Current() != nil {
		t.Error("failed ingest must not publish a catalog")
	}
}

func TestIngest_AlignsCorpusWithIndexRows(t *testing.T) {
	const n = 10
	names := make([]string, n)
	files := make(map[string]fileBehavior, n)
	for i := range n {
		names[i] = resumeName(i)
		// Earlier files finish last so completion order is reversed.
		files[names[i]] = fileBehavior{text: resumeText(i), delay: time.Duration(n-i) * 3 * time.Millisecond}
	}
	// Extension matching is case-insensitive.
	names = append(names, "resume-10.PDF")
	files["resume-10.PDF"] = fileBehavior{text: resumeText(10)}

	dir := writeFiles(t, names...)
	holder := catalog.NewHolder()
	svc := newTestService(&mockExtractor{files: files}, &oneHotEmbedder{dim: 16}, holder, Options{Workers: 4})

	report, err := svc.Ingest(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.FilesFound != 11 || report.Indexed != 11 {
		t.Fatalf("unexpected report %+v", report)
	}

	cat := holder.Current()
	if cat == nil {
		t.Fatal("expected a published catalog")
	}

	for i := 0; i <= 10; i++ {
		doc, ok := cat.Document(i)
		if !ok || doc.Text() != resumeText(i) {
			t.Fatalf("row %d holds %q, want %q", i, doc.Text(), resumeText(i))
		}

		hits, err := cat.Search(oneHot(16, i), 1)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(hits) != 1 || hits[0].Row != i || hits[0].Document.Text() != resumeText(i) {
			t.Fatalf("query for row %d returned %+v", i, hits)
		}
		if hits[0].Score < 0.999 || hits[0].Score > 1.001 {
			t.Errorf("expected normalized self-similarity 1, got %f", hits[0].Score)
		}
	}
}

func TestIngest_IsolatesFileFailures(t *testing.T) {
	files := map[string]fileBehavior{
		resumeName(0): {text: resumeText(0)},
		resumeName(1): {text: "   \n\t"},
		resumeName(2): {err: errors.New("encrypted document")},
		resumeName(3): {panic: true},
		resumeName(4): {text: resumeText(4)},
	}
	dir := writeFiles(t, resumeName(0), resumeName(1), resumeName(2), resumeName(3), resumeName(4))

	holder := catalog.NewHolder()
	svc := newTestService(&mockExtractor{files: files}, &oneHotEmbedder{dim: 8}, holder, Options{})

	report, err := svc.Ingest(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Indexed != 2 || report.SkippedEmpty != 1 || report.Failed != 2 || report.Extracted != 3 {
		t.Fatalf("unexpected report %+v", report)
	}

	docs := holder.Current().Documents()
	if docs[0].FileName() != resumeName(0) || docs[1].FileName() != resumeName(4) {
		t.Errorf("unexpected corpus order: %s, %s", docs[0].FileName(), docs[1].FileName())
	}
}

func TestIngest_FileTimeout(t *testing.T) {
	files := map[string]fileBehavior{
		resumeName(0): {text: resumeText(0)},
		resumeName(1): {block: true},
	}
	dir := writeFiles(t, resumeName(0), resumeName(1))

	holder := catalog.NewHolder()
	svc := newTestService(&mockExtractor{files: files}, &oneHotEmbedder{dim: 4}, holder,
		Options{FileTimeout: 30 * time.Millisecond})

	report, err := svc.Ingest(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TimedOut != 1 || report.Indexed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestIngest_NoValidDocuments(t *testing.T) {
	files := map[string]fileBehavior{
		resumeName(0): {text: ""},
		resumeName(1): {err: errors.New("broken")},
	}
	dir := writeFiles(t, resumeName(0), resumeName(1))

	holder := catalog.NewHolder()
	emb := &oneHotEmbedder{dim: 4}
	svc := newTestService(&mockExtractor{files: files}, emb, holder, Options{})

	_, err := svc.Ingest(context.Background(), dir)
	if !errors.Is(err, domain.ErrNoValidDocuments) {
		t.Fatalf("expected ErrNoValidDocuments, got %v", err)
	}
	if len(emb.batchSizes) != 0 {
		t.Error("embedder must not be called without documents")
	}
	if holder.Current() != nil {
		t.Error("failed ingest must not publish a catalog")
	}
}

func TestIngest_EmbedsInBatches(t *testing.T) {
	const n = 70
	names := make([]string, n)
	files := make(map[string]fileBehavior, n)
	for i := range n {
		names[i] = resumeName(i)
		files[names[i]] = fileBehavior{text: resumeText(i)}
	}
	dir := writeFiles(t, names...)

	emb := &oneHotEmbedder{dim: n}
	svc := newTestService(&mockExtractor{files: files}, emb, catalog.NewHolder(), Options{BatchSize: 32})

	report, err := svc.Ingest(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{32, 32, 6}
	if len(emb.batchSizes) != len(want) {
		t.Fatalf("batch sizes = %v, want %v", emb.batchSizes, want)
	}
	for i := range want {
		if emb.batchSizes[i] != want[i] {
			t.Fatalf("batch sizes = %v, want %v", emb.batchSizes, want)
		}
	}
	if report.EmbeddingTokens != n {
		t.Errorf("expected %d tokens, got %d", n, report.EmbeddingTokens)
	}
}

func TestIngest_EmbeddingFailureKeepsPreviousCatalog(t *testing.T) {
	files := map[string]fileBehavior{resumeName(0): {text: resumeText(0)}}
	dir := writeFiles(t, resumeName(0))

	holder := catalog.NewHolder()
	emb := &oneHotEmbedder{dim: 4}
	svc := newTestService(&mockExtractor{files: files}, emb, holder, Options{})

	if _, err := svc.Ingest(context.Background(), dir); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	first := holder.Current()

	emb.err = domain.ErrEmbeddingProviderError
	_, err := svc.Ingest(context.Background(), dir)
	if !errors.Is(err, domain.ErrIndexBuild) || !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrIndexBuild wrapping provider error, got %v", err)
	}
	if holder.Current() != first {
		t.Error("failed rebuild must keep the previous catalog")
	}
}

func TestIngest_BoundedConcurrency(t *testing.T) {
	const n = 12
	names := make([]string, n)
	files := make(map[string]fileBehavior, n)
	for i := range n {
		names[i] = resumeName(i)
		files[names[i]] = fileBehavior{text: resumeText(i), delay: 10 * time.Millisecond}
	}
	dir := writeFiles(t, names...)

	ext := &mockExtractor{files: files}
	svc := newTestService(ext, &oneHotEmbedder{dim: n}, catalog.NewHolder(), Options{Workers: 3})

	if _, err := svc.Ingest(context.Background(), dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ext.maxActive.Load(); got > 3 {
		t.Errorf("expected at most 3 concurrent extractions, saw %d", got)
	}
}

func TestIngest_Cancelled(t *testing.T) {
	files := map[string]fileBehavior{resumeName(0): {block: true}}
	dir := writeFiles(t, resumeName(0))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	holder := catalog.NewHolder()
	svc := newTestService(&mockExtractor{files: files}, &oneHotEmbedder{dim: 4}, holder, Options{})

	_, err := svc.Ingest(ctx, dir)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if holder.Current() != nil {
		t.Error("cancelled ingest must not publish a catalog")
	}
}
