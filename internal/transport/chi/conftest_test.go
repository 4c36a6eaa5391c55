package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
	"github.com/kailas-cloud/shortlist/internal/usecase/enrich"
	healthuc "github.com/kailas-cloud/shortlist/internal/usecase/health"
	"github.com/kailas-cloud/shortlist/internal/usecase/ingest"
	shortlistuc "github.com/kailas-cloud/shortlist/internal/usecase/shortlist"
)

// --- Mocks ---

type mockIngester struct {
	report ingest.Report
	err    error
}

func (m *mockIngester) Ingest(_ context.Context, folder string) (ingest.Report, error) {
	if m.err != nil {
		return ingest.Report{}, m.err
	}
	r := m.report
	r.Folder = folder
	return r, nil
}

type mockSearcher struct {
	cands  []candidate.Candidate
	err    error
	topK   int
	tokens int
}

func (m *mockSearcher) Search(ctx context.Context, _ string, topK int) ([]candidate.Candidate, error) {
	m.topK = topK
	if m.tokens > 0 {
		domain.UsageFromContext(ctx).AddTokens(m.tokens)
	}
	return m.cands, m.err
}

type mockEnricher struct {
	got []candidate.Candidate
}

func (m *mockEnricher) Enrich(_ context.Context, _ string, cands []candidate.Candidate) ([]candidate.Summary, enrich.Stats) {
	m.got = cands
	out := make([]candidate.Summary, len(cands))
	for i, c := range cands {
		out[i] = candidate.Summary{
			Candidate: c,
			Profile:   candidate.Profile{Name: "Ada", Skills: []string{"Go"}, Reasons: []string{"fit"}},
			Status:    candidate.StatusSuccess,
		}
	}
	return out, enrich.Stats{Total: len(out), Succeeded: len(out)}
}

type mockShortlister struct {
	report shortlistuc.Report
	err    error
	req    shortlistuc.Request
}

func (m *mockShortlister) Run(_ context.Context, req shortlistuc.Request) (shortlistuc.Report, error) {
	m.req = req
	return m.report, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

type deps struct {
	ingest    *mockIngester
	search    *mockSearcher
	enrich    *mockEnricher
	shortlist *mockShortlister
	health    *mockHealth
}

func newDeps() *deps {
	return &deps{
		ingest:    &mockIngester{},
		search:    &mockSearcher{},
		enrich:    &mockEnricher{},
		shortlist: &mockShortlister{},
		health:    &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
}

func (d *deps) router() http.Handler {
	r := chi.NewRouter()
	NewServer(d.ingest, d.search, d.enrich, d.shortlist, d.health, zap.NewNop()).Register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
