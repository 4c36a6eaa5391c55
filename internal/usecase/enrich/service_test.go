package enrich

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
	"github.com/kailas-cloud/shortlist/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

func parsed(name string) Result {
	return Result{
		Profile: candidate.Profile{Name: name, Skills: []string{"Go"}, Reasons: []string{"fit"}},
		Outcome: OutcomeParsed,
	}
}

func TestEnrich_Empty(t *testing.T) {
	svc := New(summarizerFunc(func(context.Context, string, candidate.Candidate) Result {
		t.Fatal("summarizer must not be called")
		return Result{}
	}), Options{}, zap.NewNop())

	out, stats := svc.Enrich(context.Background(), "p", nil)
	if out == nil || len(out) != 0 || stats.Total != 0 {
		t.Fatalf("unexpected output %v %+v", out, stats)
	}
}

func TestEnrich_SortsByScoreDescending(t *testing.T) {
	sum := summarizerFunc(func(_ context.Context, _ string, c candidate.Candidate) Result {
		return parsed(strings.TrimSuffix(c.FileName(), ".pdf"))
	})
	cands := []candidate.Candidate{
		newCandidate("a.pdf", 0.9, "x"),
		newCandidate("b.pdf", 0.5, "x"),
		newCandidate("c.pdf", 0.7, "x"),
	}

	out, stats := New(sum, Options{MaxWorkers: 3}, zap.NewNop()).Enrich(context.Background(), "p", cands)

	want := []float64{0.9, 0.7, 0.5}
	for i, s := range out {
		if s.Score() != want[i] {
			t.Fatalf("position %d has score %f, want %f", i, s.Score(), want[i])
		}
		if s.Status != candidate.StatusSuccess || s.Name != strings.TrimSuffix(s.FileName(), ".pdf") {
			t.Errorf("profile mismatch for %s: %+v", s.FileName(), s.Profile)
		}
	}
	if stats.Total != 3 || stats.Succeeded != 3 || stats.Failed != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestEnrich_EqualScoresKeepInputOrder(t *testing.T) {
	sum := summarizerFunc(func(context.Context, string, candidate.Candidate) Result { return parsed("x") })
	cands := []candidate.Candidate{
		newCandidate("first.pdf", 0.5, "x"),
		newCandidate("second.pdf", 0.5, "x"),
		newCandidate("third.pdf", 0.5, "x"),
	}

	out, _ := New(sum, Options{}, zap.NewNop()).Enrich(context.Background(), "p", cands)
	for i, c := range cands {
		if out[i].FileName() != c.FileName() {
			t.Fatalf("position %d is %s, want %s", i, out[i].FileName(), c.FileName())
		}
	}
}

func TestEnrich_Timeout(t *testing.T) {
	sum := summarizerFunc(func(ctx context.Context, _ string, c candidate.Candidate) Result {
		if c.FileName() == "slow.pdf" {
			<-ctx.Done()
			time.Sleep(20 * time.Millisecond)
		}
		return parsed("ok")
	})
	cands := []candidate.Candidate{
		newCandidate("slow.pdf", 0.8, "x"),
		newCandidate("fast.pdf", 0.6, "x"),
	}
	timeout := 30 * time.Millisecond

	out, stats := New(sum, Options{Timeout: timeout}, zap.NewNop()).Enrich(context.Background(), "p", cands)

	slow := out[0]
	if slow.FileName() != "slow.pdf" || slow.Status != candidate.StatusTimeout {
		t.Fatalf("expected slow.pdf to time out, got %s %s", slow.FileName(), slow.Status)
	}
	if slow.ProcessingTime != timeout {
		t.Errorf("processing time = %v, want %v", slow.ProcessingTime, timeout)
	}
	if slow.Name != "Timeout Error" || len(slow.Skills) != 0 {
		t.Errorf("unexpected profile %+v", slow.Profile)
	}
	if out[1].Status != candidate.StatusSuccess {
		t.Errorf("fast candidate must still succeed, got %s", out[1].Status)
	}
	if stats.Succeeded != 1 || stats.Failed != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestEnrich_TimeoutReason(t *testing.T) {
	if got := humanDuration(2 * time.Minute); got != "2 minutes" {
		t.Errorf("humanDuration(2m) = %q", got)
	}
	if got := humanDuration(time.Second); got != "1 second" {
		t.Errorf("humanDuration(1s) = %q", got)
	}
	if got := humanDuration(1500 * time.Millisecond); got != "1.5s" {
		t.Errorf("humanDuration(1.5s) = %q", got)
	}
}

func TestEnrich_PanicBecomesException(t *testing.T) {
	sum := summarizerFunc(func(_ context.Context, _ string, c candidate.Candidate) Result {
		if c.FileName() == "bad.pdf" {
			panic("nil map write")
		}
		return parsed("ok")
	})
	cands := []candidate.Candidate{
		newCandidate("bad.pdf", 0.4, "x"),
		newCandidate("good.pdf", 0.3, "x"),
	}

	out, stats := New(sum, Options{}, zap.NewNop()).Enrich(context.Background(), "p", cands)

	bad := out[0]
	if bad.Status != candidate.StatusException || bad.Name != "Exception Error" {
		t.Fatalf("unexpected summary %+v", bad)
	}
	if bad.Reasons[0] != "Unexpected error: nil map write..." {
		t.Errorf("unexpected reason %q", bad.Reasons[0])
	}
	if out[1].Status != candidate.StatusSuccess {
		t.Errorf("panic must not affect other candidates, got %s", out[1].Status)
	}
	if stats.Failed != 1 || stats.Succeeded != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestEnrich_FallbackProfileCountsAsFailure(t *testing.T) {
	sum := summarizerFunc(func(context.Context, string, candidate.Candidate) Result {
		return apiErrorResult(errors.New("quota exceeded"), 3)
	})

	out, stats := New(sum, Options{}, zap.NewNop()).
		Enrich(context.Background(), "p", []candidate.Candidate{newCandidate("a.pdf", 0.9, "x")})

	if out[0].Status != candidate.StatusFailed || out[0].Name != "API Error" {
		t.Fatalf("unexpected summary %+v", out[0])
	}
	if out[0].Err != "quota exceeded" {
		t.Errorf("expected error detail, got %q", out[0].Err)
	}
	if stats.Failed != 1 || stats.Succeeded != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestEnrich_NoTextIsSuccess(t *testing.T) {
	llm := &scriptedCompleter{replies: []reply{{text: validReply}}}
	sum := NewSummarizer(llm, DefaultSummarizerOptions(), zap.NewNop())

	out, _ := New(sum, Options{}, zap.NewNop()).
		Enrich(context.Background(), "p", []candidate.Candidate{newCandidate("blank.pdf", 0.2, "")})

	if out[0].Status != candidate.StatusSuccess || out[0].Name != "Unknown" {
		t.Fatalf("unexpected summary %+v", out[0])
	}
}

func TestEnrich_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	sum := summarizerFunc(func(context.Context, string, candidate.Candidate) Result {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return parsed("x")
	})

	cands := make([]candidate.Candidate, 12)
	for i := range cands {
		cands[i] = newCandidate("c.pdf", float64(i)/12, "x")
	}

	svc := New(sum, Options{MaxWorkers: 16}, zap.NewNop())
	if svc.Workers() != MaxConcurrency {
		t.Fatalf("expected workers capped at %d, got %d", MaxConcurrency, svc.Workers())
	}

	out, _ := svc.Enrich(context.Background(), "p", cands)
	if len(out) != 12 {
		t.Fatalf("expected 12 summaries, got %d", len(out))
	}
	if peak.Load() > MaxConcurrency {
		t.Errorf("expected at most %d in flight, saw %d", MaxConcurrency, peak.Load())
	}
}

func TestEnrich_WorkersBelowCap(t *testing.T) {
	if w := New(nil, Options{MaxWorkers: 2}, zap.NewNop()).Workers(); w != 2 {
		t.Errorf("expected 2 workers, got %d", w)
	}
}

func TestEnrich_Stats(t *testing.T) {
	st := computeStats([]candidate.Summary{
		{Status: candidate.StatusSuccess, ProcessingTime: 2 * time.Second},
		{Status: candidate.StatusFailed, ProcessingTime: 4 * time.Second},
	})
	if st.Total != 2 || st.Succeeded != 1 || st.Failed != 1 {
		t.Fatalf("unexpected counts %+v", st)
	}
	if st.TotalTime != 6*time.Second || st.AverageTime != 3*time.Second {
		t.Errorf("unexpected times %+v", st)
	}
}
