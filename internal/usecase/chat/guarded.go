// Package chat guards an LLM provider with a rate limiter and a circuit breaker.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/metrics"
)

// Options configure the guard.
type Options struct {
	Provider string
	Model    string
	// RequestsPerMinute caps outgoing calls; 0 disables limiting.
	RequestsPerMinute int
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of trial requests allowed while half-open.
	HalfOpenRequests uint32
}

// GuardedCompleter wraps a domain.ChatCompleter.
type GuardedCompleter struct {
	inner    domain.ChatCompleter
	breaker  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	provider string
	model    string
	logger   *zap.Logger
}

// NewGuardedCompleter builds the guard. Zero options fall back to 5 failures, 30s and 1 trial request.
func NewGuardedCompleter(inner domain.ChatCompleter, opts Options, logger *zap.Logger) *GuardedCompleter {
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	if opts.HalfOpenRequests == 0 {
		opts.HalfOpenRequests = 1
	}

	g := &GuardedCompleter{
		inner:    inner,
		provider: opts.Provider,
		model:    opts.Model,
		logger:   logger,
	}

	if opts.RequestsPerMinute > 0 {
		burst := max(opts.RequestsPerMinute/10, 1)
		g.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), burst)
	}

	name := "llm-" + opts.Provider
	metrics.LLMBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	maxFailures := opts.MaxFailures
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: opts.HalfOpenRequests,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Caller cancellation says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.LLMBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("LLM circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return g
}

// State returns the current breaker state.
func (g *GuardedCompleter) State() gobreaker.State { return g.breaker.State() }

// Complete waits for the limiter, then calls the provider through the breaker.
func (g *GuardedCompleter) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			metrics.LLMRequestsTotal.WithLabelValues(g.provider, g.model, "rate_limited").Inc()
			return domain.ChatResponse{}, fmt.Errorf("wait for rate limiter: %w: %w", domain.ErrRateLimited, err)
		}
	}

	start := time.Now()

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Complete(ctx, req)
	})

	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.LLMRequestsTotal.WithLabelValues(g.provider, g.model, "circuit_open").Inc()
			return domain.ChatResponse{}, fmt.Errorf("%s: %w", err.Error(), domain.ErrCircuitOpen)
		}

		metrics.LLMRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		g.logger.Debug("LLM request failed",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.ChatResponse{}, err
	}

	metrics.LLMRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())

	resp, _ := out.(domain.ChatResponse)
	return resp, nil
}
