package shortlist

import (
	"context"
	"sort"

	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
	"github.com/kailas-cloud/shortlist/internal/usecase/enrich"
	"github.com/kailas-cloud/shortlist/internal/usecase/ingest"
)

type mockIngester struct {
	report ingest.Report
	err    error
	folder string
}

func (m *mockIngester) Ingest(_ context.Context, folder string) (ingest.Report, error) {
	m.folder = folder
	return m.report, m.err
}

type mockRetriever struct {
	cands []candidate.Candidate
	err   error
	query string
	topK  int
}

func (m *mockRetriever) Search(_ context.Context, query string, topK int) ([]candidate.Candidate, error) {
	m.query, m.topK = query, topK
	if m.err != nil {
		return nil, m.err
	}
	return m.cands, nil
}

// mockEnricher succeeds for every candidate except those named in fail.
type mockEnricher struct {
	fail    map[string]bool
	project string
	got     int
}

func (m *mockEnricher) Enrich(_ context.Context, project string, cands []candidate.Candidate) ([]candidate.Summary, enrich.Stats) {
	m.project = project
	m.got = len(cands)
	out := make([]candidate.Summary, len(cands))
	for i, c := range cands {
		out[i] = candidate.Summary{
			Candidate: c,
			Profile:   candidate.Profile{Name: "Person " + c.FileName(), Skills: []string{"Go"}, Reasons: []string{"fit"}},
			Status:    candidate.StatusSuccess,
		}
		if m.fail[c.FileName()] {
			out[i].Status = candidate.StatusFailed
			out[i].Profile = candidate.Profile{Name: "API Error", Skills: []string{}, Reasons: []string{"API call failed: boom..."}}
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score() > out[b].Score() })
	return out, enrich.Stats{Total: len(out)}
}

func cand(name string, score float64) candidate.Candidate {
	return candidate.New(name, "/resumes/"+name, score, "text of "+name, 0, 0)
}
