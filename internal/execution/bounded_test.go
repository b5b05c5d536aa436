package execution

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunReturnsValueUnmodified(t *testing.T) {
	r := NewRunner(time.Second, nil)
	got := Run(r, context.Background(), "op", "fallback", func(context.Context) (string, error) {
		return "exact value", nil
	})
	if got != "exact value" {
		t.Fatalf("Run() = %q, want %q", got, "exact value")
	}
}

func TestRunReturnsFallbackOnError(t *testing.T) {
	r := NewRunner(time.Second, nil)
	var calls []string
	r.SetFallbackHook(func(label string) { calls = append(calls, label) })

	got := Run(r, context.Background(), "scoring", 42, func(context.Context) (int, error) {
		return 7, errors.New("upstream exploded")
	})
	if got != 42 {
		t.Fatalf("Run() = %d, want fallback 42", got)
	}
	if len(calls) != 1 || calls[0] != "scoring" {
		t.Fatalf("fallback hook calls = %v, want [scoring]", calls)
	}
}

func TestRunTimesOut(t *testing.T) {
	r := NewRunner(50*time.Millisecond, nil)

	start := time.Now()
	got := Run(r, context.Background(), "hang", "fallback", func(ctx context.Context) (string, error) {
		<-make(chan struct{}) // never completes
		return "", nil
	})
	elapsed := time.Since(start)

	if got != "fallback" {
		t.Fatalf("Run() = %q, want fallback", got)
	}
	if elapsed > 500*time.Millisecond {
		t.Fatalf("Run() took %v, want ~50ms timeout", elapsed)
	}
}

func TestRunHonorsCallerContext(t *testing.T) {
	r := NewRunner(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := Run(r, ctx, "op", -1, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if got != -1 {
		t.Fatalf("Run() = %d, want fallback on cancelled context", got)
	}
}

func TestRunTypedFallbackZeroValues(t *testing.T) {
	r := NewRunner(time.Second, nil)
	type result struct {
		Raw string
		OK  bool
	}
	got := Run(r, context.Background(), "op", result{}, func(context.Context) (result, error) {
		return result{Raw: "{}", OK: true}, errors.New("discard me")
	})
	if got != (result{}) {
		t.Fatalf("Run() = %+v, want zero fallback when op errors", got)
	}
}
