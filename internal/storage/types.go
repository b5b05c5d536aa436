package storage

import (
	"context"
	"time"

	"interviewd/internal/metrics"
)

// TurnRecord stores one completed answer cycle of an interview session.
// Score and Metrics are nil when the scoring call fell back.
type TurnRecord struct {
	SessionID string           `json:"session_id"`
	Index     int              `json:"index"`
	Question  string           `json:"question"`
	Answer    string           `json:"answer"`
	Feedback  string           `json:"feedback"`
	Score     *int             `json:"score"`
	Metrics   *metrics.Metrics `json:"metrics,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Recorder persists and retrieves interview turns. The orchestrator treats
// its failures as non-fatal: the in-memory session already reflects the
// ongoing conversation.
type Recorder interface {
	RecordTurn(ctx context.Context, record TurnRecord) error
	SessionTurns(ctx context.Context, sessionID string) ([]TurnRecord, error)
	Close() error
}
