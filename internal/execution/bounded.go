// Package execution bounds model-provider calls with a timeout and a typed
// fallback so upstream failure never reaches a caller.
package execution

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single provider invocation.
const DefaultTimeout = 30 * time.Second

// Runner holds the shared timeout, logger, and fallback hook for bounded
// calls. One Runner is constructed at startup and used for every provider
// operation.
type Runner struct {
	timeout    time.Duration
	log        *zap.Logger
	onFallback func(label string)
}

func NewRunner(timeout time.Duration, log *zap.Logger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{timeout: timeout, log: log}
}

// SetFallbackHook registers a callback invoked with the operation label each
// time a call degrades to its fallback value.
func (r *Runner) SetFallbackHook(hook func(label string)) {
	r.onFallback = hook
}

func (r *Runner) Timeout() time.Duration { return r.timeout }

type outcome[T any] struct {
	value T
	err   error
}

// Run invokes op and always returns a value of its result type: the
// operation's result on success, fallback on error or timeout. One attempt
// only; retries are a caller-level decision. When the timeout elapses the
// in-flight call's result is discarded, not aborted.
func Run[T any](r *Runner, ctx context.Context, label string, fallback T, op func(context.Context) (T, error)) T {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		value, err := op(ctx)
		done <- outcome[T]{value: value, err: err}
	}()

	select {
	case out := <-done:
		if out.err == nil {
			return out.value
		}
		r.fallback(label, out.err)
	case <-ctx.Done():
		r.fallback(label, ctx.Err())
	}
	return fallback
}

func (r *Runner) fallback(label string, err error) {
	r.log.Warn("provider call degraded to fallback",
		zap.String("label", label),
		zap.Duration("timeout", r.timeout),
		zap.Error(err),
	)
	if r.onFallback != nil {
		r.onFallback(label)
	}
}
