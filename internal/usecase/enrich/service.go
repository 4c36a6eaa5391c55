// Package enrich asks an LLM to justify each retrieved candidate.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
	"github.com/kailas-cloud/shortlist/internal/metrics"
	"github.com/kailas-cloud/shortlist/internal/workerpool"
)

// Enricher defaults.
const (
	// MaxConcurrency caps simultaneous LLM calls regardless of configuration.
	MaxConcurrency = 4
	DefaultTimeout = 120 * time.Second

	panicDetailChars = 100
)

// Summarizer produces a profile for one candidate. Implementations must not return early on error;
// failures are encoded in the Result.
type Summarizer interface {
	Summarize(ctx context.Context, project string, c candidate.Candidate) Result
}

// Options configure the enricher.
type Options struct {
	MaxWorkers int
	Timeout    time.Duration
}

// Stats aggregate one enrichment run.
type Stats struct {
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	TotalTime   time.Duration `json:"total_time"`
	AverageTime time.Duration `json:"average_time"`
}

// Service enriches candidates concurrently with a hard per-candidate deadline.
type Service struct {
	summarizer Summarizer
	workers    int
	timeout    time.Duration
	logger     *zap.Logger
}

// New creates an enricher. Concurrency is min(MaxWorkers, MaxConcurrency).
func New(summarizer Summarizer, opts Options, logger *zap.Logger) *Service {
	workers := opts.MaxWorkers
	if workers <= 0 || workers > MaxConcurrency {
		workers = MaxConcurrency
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{summarizer: summarizer, workers: workers, timeout: timeout, logger: logger}
}

// Workers returns the effective concurrency bound.
func (s *Service) Workers() int { return s.workers }

// Enrich summarizes every candidate. It never fails: each candidate ends with a terminal
// status. Output is ordered by descending score; equal scores keep input order.
func (s *Service) Enrich(
	ctx context.Context, project string, cands []candidate.Candidate,
) ([]candidate.Summary, Stats) {
	if len(cands) == 0 {
		return []candidate.Summary{}, Stats{}
	}

	s.logger.Info("Starting candidate analysis",
		zap.Int("candidates", len(cands)),
		zap.Int("workers", s.workers),
		zap.Duration("timeout", s.timeout),
	)

	results := make([]candidate.Summary, len(cands))

	pool := workerpool.New(s.workers).OnPanic(func(i int, err *workerpool.PanicError) {
		results[i] = exceptionSummary(cands[i], err, 0)
	})

	pool.Run(ctx, len(cands), func(ctx context.Context, i int) {
		s.logger.Debug("Processing candidate",
			zap.Int("index", i+1),
			zap.Int("total", len(cands)),
			zap.String("file", cands[i].FileName()),
		)
		results[i] = s.enrichOne(ctx, project, cands[i])
	})

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score() > results[b].Score()
	})

	stats := computeStats(results)
	s.logger.Info("Candidate analysis completed",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Duration("average", stats.AverageTime),
		zap.Duration("total", stats.TotalTime),
	)

	return results, stats
}

func (s *Service) enrichOne(ctx context.Context, project string, c candidate.Candidate) candidate.Summary {
	start := time.Now()

	res, err := workerpool.WithTimeout(ctx, s.timeout, func(ctx context.Context) (Result, error) {
		return s.summarizer.Summarize(ctx, project, c), nil
	})

	elapsed := time.Since(start)

	var summary candidate.Summary
	var panicErr *workerpool.PanicError

	switch {
	case errors.Is(err, workerpool.ErrTimeout):
		s.logger.Warn("Candidate analysis timed out", zap.String("file", c.FileName()), zap.Duration("timeout", s.timeout))
		summary = candidate.Summary{
			Candidate: c,
			Profile: candidate.Profile{
				Name:    "Timeout Error",
				Skills:  []string{},
				Reasons: []string{"AI analysis timed out after " + humanDuration(s.timeout)},
			},
			Status:         candidate.StatusTimeout,
			ProcessingTime: s.timeout,
		}
	case errors.As(err, &panicErr):
		s.logger.Error("Candidate analysis panicked", zap.String("file", c.FileName()), zap.Error(err))
		summary = exceptionSummary(c, panicErr, elapsed)
	case err != nil:
		// Parent context cancelled before the summarizer returned.
		r := apiErrorResult(err, 0)
		summary = candidate.Summary{
			Candidate:      c,
			Profile:        r.Profile,
			Status:         candidate.StatusFailed,
			ProcessingTime: elapsed,
			Err:            err.Error(),
		}
	default:
		summary = candidate.Summary{
			Candidate:      c,
			Profile:        res.Profile,
			Status:         candidate.StatusSuccess,
			ProcessingTime: elapsed,
		}
		if res.Outcome.Fallback() {
			summary.Status = candidate.StatusFailed
			if res.Err != nil {
				summary.Err = res.Err.Error()
			}
		}
		s.logger.Debug("Candidate analysis finished",
			zap.String("file", c.FileName()),
			zap.Stringer("outcome", res.Outcome),
			zap.Int("attempts", res.Attempts),
			zap.Duration("duration", elapsed),
		)
	}

	metrics.EnrichCandidatesTotal.WithLabelValues(string(summary.Status)).Inc()
	metrics.EnrichDuration.Observe(summary.ProcessingTime.Seconds())

	return summary
}

func exceptionSummary(c candidate.Candidate, err *workerpool.PanicError, elapsed time.Duration) candidate.Summary {
	detail, _ := truncateRunes(fmt.Sprint(err.Value), panicDetailChars)
	return candidate.Summary{
		Candidate: c,
		Profile: candidate.Profile{
			Name:    "Exception Error",
			Skills:  []string{},
			Reasons: []string{fmt.Sprintf("Unexpected error: %s...", detail)},
		},
		Status:         candidate.StatusException,
		ProcessingTime: elapsed,
		Err:            err.Error(),
	}
}

func computeStats(results []candidate.Summary) Stats {
	st := Stats{Total: len(results)}
	for _, r := range results {
		if r.OK() {
			st.Succeeded++
		} else {
			st.Failed++
		}
		st.TotalTime += r.ProcessingTime
	}
	if st.Total > 0 {
		st.AverageTime = st.TotalTime / time.Duration(st.Total)
	}
	return st
}

// humanDuration renders whole minutes and seconds the way people write them ("2 minutes").
func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	case d >= time.Second && d%time.Second == 0:
		return plural(int(d/time.Second), "second")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
