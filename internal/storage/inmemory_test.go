package storage

import (
	"context"
	"testing"

	"interviewd/internal/metrics"
)

func TestRecorderRoundTrip(t *testing.T) {
	r := NewInMemoryRecorder()
	ctx := context.Background()

	score := 7
	m := metrics.Sanitize(`{"overall": 7.2, "technical_correctness": 8}`)
	if err := r.RecordTurn(ctx, TurnRecord{
		SessionID: "s1",
		Index:     0,
		Question:  "q0",
		Answer:    "a0",
		Feedback:  "f0",
		Score:     &score,
		Metrics:   &m,
	}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}
	if err := r.RecordTurn(ctx, TurnRecord{SessionID: "s1", Index: 1, Question: "q1", Answer: "a1", Feedback: "f1"}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}

	turns, err := r.SessionTurns(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionTurns() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Index != 0 || turns[1].Index != 1 {
		t.Fatalf("turns out of index order: %d, %d", turns[0].Index, turns[1].Index)
	}
	if turns[0].Score == nil || *turns[0].Score != 7 {
		t.Fatalf("turns[0].Score = %v, want 7", turns[0].Score)
	}
	if turns[0].Metrics == nil || turns[0].Metrics.Overall != 7.2 {
		t.Fatalf("turns[0].Metrics = %+v, want overall 7.2", turns[0].Metrics)
	}
	if turns[1].Score != nil {
		t.Fatalf("turns[1].Score = %v, want nil for unscored turn", turns[1].Score)
	}
	if turns[0].CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be stamped on record")
	}
}

func TestRecorderUnknownSessionIsEmpty(t *testing.T) {
	r := NewInMemoryRecorder()
	turns, err := r.SessionTurns(context.Background(), "missing")
	if err != nil {
		t.Fatalf("SessionTurns() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("len(turns) = %d, want 0", len(turns))
	}
}

func TestNewRecorderDefaultsToInMemory(t *testing.T) {
	r, err := NewRecorder(context.Background(), "  ")
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	if _, ok := r.(*InMemoryRecorder); !ok {
		t.Fatalf("NewRecorder(empty url) = %T, want *InMemoryRecorder", r)
	}
}
