package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
	"github.com/kailas-cloud/shortlist/internal/logger"
)

// Summarizer defaults.
const (
	DefaultMaxRetries  = 2
	DefaultBaseDelay   = time.Second
	DefaultMaxTokens   = 400
	DefaultTemperature = float32(0.3)

	errDetailChars = 50
)

// Outcome is the terminal state of one summarization.
type Outcome int

const (
	// OutcomeNoText means the candidate had no resume text; the LLM was not called.
	OutcomeNoText Outcome = iota
	// OutcomeParsed means a reply was decoded into a profile.
	OutcomeParsed
	// OutcomeAPIError means the final attempt failed at the provider.
	OutcomeAPIError
	// OutcomeJSONError means the final attempt returned an unparseable reply.
	OutcomeJSONError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoText:
		return "no_text"
	case OutcomeParsed:
		return "parsed"
	case OutcomeAPIError:
		return "api_error"
	case OutcomeJSONError:
		return "json_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Fallback reports whether the outcome carries a synthetic profile instead of a model judgement.
func (o Outcome) Fallback() bool {
	return o == OutcomeAPIError || o == OutcomeJSONError
}

// Result is what Summarize produces. Err holds the last error for fallback outcomes.
type Result struct {
	Profile  candidate.Profile
	Outcome  Outcome
	Attempts int
	Err      error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SummarizerOptions tune prompts, retries and sampling.
type SummarizerOptions struct {
	// MaxRetries is the number of attempts after the first; negative selects DefaultMaxRetries.
	MaxRetries   int
	BaseDelay    time.Duration
	ProjectChars int
	ResumeChars  int
	MaxTokens    int
	Temperature  float32
}

// DefaultSummarizerOptions returns the stock settings.
func DefaultSummarizerOptions() SummarizerOptions {
	return SummarizerOptions{
		MaxRetries:   DefaultMaxRetries,
		BaseDelay:    DefaultBaseDelay,
		ProjectChars: DefaultProjectChars,
		ResumeChars:  DefaultResumeChars,
		MaxTokens:    DefaultMaxTokens,
		Temperature:  DefaultTemperature,
	}
}

// LLMSummarizer asks a chat model for a structured profile, retrying with exponential backoff.
type LLMSummarizer struct {
	llm    domain.ChatCompleter
	opts   SummarizerOptions
	sleep  Sleeper
	logger *zap.Logger
}

// NewSummarizer creates a summarizer. Zero durations and lengths fall back to defaults.
func NewSummarizer(llm domain.ChatCompleter, opts SummarizerOptions, logger *zap.Logger) *LLMSummarizer {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.ProjectChars <= 0 {
		opts.ProjectChars = DefaultProjectChars
	}
	if opts.ResumeChars <= 0 {
		opts.ResumeChars = DefaultResumeChars
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &LLMSummarizer{llm: llm, opts: opts, sleep: sleepContext, logger: logger}
}

// WithSleeper replaces the backoff sleeper.
func (s *LLMSummarizer) WithSleeper(fn Sleeper) *LLMSummarizer {
	s.sleep = fn
	return s
}

// Summarize runs up to MaxRetries+1 attempts. It never returns an error: failures end in a
// fallback profile with OutcomeAPIError or OutcomeJSONError.
func (s *LLMSummarizer) Summarize(ctx context.Context, project string, c candidate.Candidate) Result {
	if strings.TrimSpace(c.Text()) == "" {
		return Result{
			Profile: candidate.Profile{Name: unknownName, Skills: []string{}, Reasons: []string{"No resume text available"}},
			Outcome: OutcomeNoText,
		}
	}

	req := domain.ChatRequest{
		Prompt:      buildPrompt(project, c.Text(), s.opts.ProjectChars, s.opts.ResumeChars),
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	}
	log := s.logger.With(zap.String("file", c.FileName()))

	for attempt := 0; ; attempt++ {
		last := attempt == s.opts.MaxRetries

		if attempt > 0 {
			delay := s.opts.BaseDelay << (attempt - 1)
			log.Debug("Retrying candidate analysis", zap.Int("attempt", attempt), zap.Duration("delay", delay))
			if err := s.sleep(ctx, delay); err != nil {
				return apiErrorResult(fmt.Errorf("backoff interrupted: %w", err), attempt)
			}
		}

		resp, err := s.llm.Complete(ctx, req)
		if err != nil {
			if last || ctx.Err() != nil {
				log.Warn("Candidate analysis failed", zap.Int("attempts", attempt+1), zap.Error(err))
				return apiErrorResult(err, attempt+1)
			}
			log.Warn("LLM call failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		profile, err := parseProfile(resp.Text)
		if err != nil {
			if last {
				log.Warn("Could not parse model reply",
					zap.Int("attempts", attempt+1),
					zap.String("reply", logger.Truncate(resp.Text, 200)),
					zap.Error(err),
				)
				return jsonErrorResult(err, attempt+1)
			}
			log.Warn("Model reply is not JSON, retrying", zap.Int("attempt", attempt))
			continue
		}

		return Result{Profile: profile, Outcome: OutcomeParsed, Attempts: attempt + 1}
	}
}

func apiErrorResult(err error, attempts int) Result {
	return Result{
		Profile: candidate.Profile{
			Name:    "API Error",
			Skills:  []string{},
			Reasons: []string{fmt.Sprintf("API call failed: %s...", errDetail(err))},
		},
		Outcome:  OutcomeAPIError,
		Attempts: attempts,
		Err:      err,
	}
}

func jsonErrorResult(err error, attempts int) Result {
	return Result{
		Profile: candidate.Profile{
			Name:    "JSON Parse Error",
			Skills:  []string{"Could not parse AI response"},
			Reasons: []string{fmt.Sprintf("JSON parsing failed: %s...", errDetail(err))},
		},
		Outcome:  OutcomeJSONError,
		Attempts: attempts,
		Err:      err,
	}
}

func errDetail(err error) string {
	s, _ := truncateRunes(err.Error(), errDetailChars)
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // caller wraps
	case <-t.C:
		return nil
	}
}
