package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRecorder is a simple in-process recorder for local/dev use.
type InMemoryRecorder struct {
	mu      sync.RWMutex
	records map[string][]TurnRecord
}

func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{records: make(map[string][]TurnRecord)}
}

func (r *InMemoryRecorder) RecordTurn(_ context.Context, record TurnRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	r.records[record.SessionID] = append(r.records[record.SessionID], record)
	return nil
}

func (r *InMemoryRecorder) SessionTurns(_ context.Context, sessionID string) ([]TurnRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	arr := r.records[sessionID]
	out := make([]TurnRecord, len(arr))
	copy(out, arr)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (r *InMemoryRecorder) Close() error { return nil }
