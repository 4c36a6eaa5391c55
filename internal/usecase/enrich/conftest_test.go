package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
)

// reply is one scripted LLM answer.
type reply struct {
	text string
	err  error
}

// scriptedCompleter returns replies in order; the last one repeats.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies []reply
	calls   int
	reqs    []domain.ChatRequest
}

func (s *scriptedCompleter) Complete(_ context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	r := s.replies[min(s.calls, len(s.replies)-1)]
	s.calls++
	if r.err != nil {
		return domain.ChatResponse{}, r.err
	}
	return domain.ChatResponse{Text: r.text}, nil
}

// recordingSleeper records requested delays without sleeping.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

// summarizerFunc adapts a function to the Summarizer interface.
type summarizerFunc func(ctx context.Context, project string, c candidate.Candidate) Result

func (f summarizerFunc) Summarize(ctx context.Context, project string, c candidate.Candidate) Result {
	return f(ctx, project, c)
}

func newCandidate(name string, score float64, text string) candidate.Candidate {
	return candidate.New(name, "/resumes/"+name, score, text, 0, 0)
}

const validReply = `{"name": "Ada Lovelace", "skills": ["Go", "Kafka", "gRPC"], "reasons": ["Built streaming systems", "Led a platform team"]}`
