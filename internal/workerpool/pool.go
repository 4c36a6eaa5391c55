// Package workerpool provides the bounded executor shared by extraction and enrichment.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrTimeout is returned by WithTimeout when the task deadline fires first.
var ErrTimeout = errors.New("task timed out")

// PanicError carries a recovered panic out of a task goroutine.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Pool runs tasks with at most limit in flight. Pools are independent: sizing one
// never affects another.
type Pool struct {
	limit   int
	onPanic func(i int, err *PanicError)
}

// New creates a pool. limit <= 0 means one worker.
func New(limit int) *Pool {
	if limit <= 0 {
		limit = 1
	}
	return &Pool{limit: limit}
}

// OnPanic sets a hook called when a task panics outside of WithTimeout.
func (p *Pool) OnPanic(fn func(i int, err *PanicError)) *Pool {
	p.onPanic = fn
	return p
}

// Limit returns the concurrency bound.
func (p *Pool) Limit() int { return p.limit }

// Run calls task(ctx, i) for every i in [0, n) and blocks until all calls return.
// Tasks report failures through their own results; a panic in one task never stops the others.
func (p *Pool) Run(ctx context.Context, n int, task func(ctx context.Context, i int)) {
	var g errgroup.Group
	g.SetLimit(p.limit)

	for i := range n {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil && p.onPanic != nil {
					p.onPanic(i, &PanicError{Value: r, Stack: debug.Stack()})
				}
			}()
			task(ctx, i)
			return nil
		})
	}

	_ = g.Wait()
}

type outcome[T any] struct {
	val T
	err error
}

// WithTimeout runs fn in its own goroutine with a deadline of d.
// If the deadline fires first it returns ErrTimeout and the late result is discarded.
// A panic inside fn is returned as *PanicError.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ch := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome[T]{err: &PanicError{Value: r, Stack: debug.Stack()}}
			}
		}()
		v, err := fn(tctx)
		ch <- outcome[T]{val: v, err: err}
	}()

	var zero T
	select {
	case out := <-ch:
		return out.val, out.err
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("task cancelled: %w", err)
		}
		return zero, ErrTimeout
	}
}
