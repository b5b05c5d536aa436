package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"interviewd/internal/metrics"
)

// PostgresRecorder persists interview turns in PostgreSQL.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

func NewPostgresRecorder(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRecorder{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interview_turns (
			session_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			feedback TEXT NOT NULL,
			score INTEGER,
			metrics JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (session_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_interview_turns_session_created ON interview_turns (session_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (r *PostgresRecorder) RecordTurn(ctx context.Context, record TurnRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	var metricsJSON []byte
	if record.Metrics != nil {
		encoded, err := json.Marshal(record.Metrics)
		if err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
		metricsJSON = encoded
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO interview_turns (session_id, idx, question, answer, feedback, score, metrics, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.SessionID,
		record.Index,
		record.Question,
		record.Answer,
		record.Feedback,
		record.Score,
		metricsJSON,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) SessionTurns(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, idx, question, answer, feedback, score, metrics, created_at
		 FROM interview_turns WHERE session_id=$1 ORDER BY idx`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session turns: %w", err)
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var metricsJSON []byte
		if err := rows.Scan(&rec.SessionID, &rec.Index, &rec.Question, &rec.Answer, &rec.Feedback, &rec.Score, &metricsJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		if len(metricsJSON) > 0 {
			var m metrics.Metrics
			if err := json.Unmarshal(metricsJSON, &m); err != nil {
				return nil, fmt.Errorf("decode metrics for %s/%d: %w", rec.SessionID, rec.Index, err)
			}
			rec.Metrics = &m
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}
	return records, nil
}

func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}
