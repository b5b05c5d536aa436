// Package interview sequences the start/answer state machine per session:
// store mutation first, bounded provider calls next, durable persistence
// last. Callers always receive a complete response, even under total
// upstream failure.
package interview

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"interviewd/internal/execution"
	"interviewd/internal/metrics"
	"interviewd/internal/observability"
	"interviewd/internal/provider"
	"interviewd/internal/retrieval"
	"interviewd/internal/session"
	"interviewd/internal/storage"
)

// Fallbacks returned when a bounded provider call fails or times out.
const (
	fallbackFirstQuestion = "Tell me about a recent project you're proud of."
	fallbackFeedback      = "Good attempt. Try adding more detail next time."
	fallbackNextQuestion  = "What is your favorite data quality check?"
)

// Operation labels used for fallback warnings and latency metrics.
const (
	labelFirstQuestion = "first_question"
	labelEvaluate      = "feedback+next"
	labelMetrics       = "metrics"
)

type StartRequest struct {
	SessionID string
	Meta      provider.InterviewMeta
}

type StartResult struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// AnswerResult is the caller-visible outcome of one answer cycle. Score is
// nil when the scoring call fell back.
type AnswerResult struct {
	Feedback     string `json:"feedback"`
	NextQuestion string `json:"question"`
	Score        *int   `json:"score"`
}

// TurnPublisher receives appended turns for live transcript observers.
// Implementations must not block.
type TurnPublisher interface {
	PublishTurn(sessionID string, turn session.Turn)
}

type Orchestrator struct {
	sessions session.Store
	client   provider.Client
	runner   *execution.Runner
	recorder storage.Recorder
	source   retrieval.Source
	metrics  *observability.Metrics
	events   TurnPublisher
	log      *zap.Logger
}

func NewOrchestrator(
	sessions session.Store,
	client provider.Client,
	runner *execution.Runner,
	recorder storage.Recorder,
	source retrieval.Source,
	m *observability.Metrics,
	log *zap.Logger,
) *Orchestrator {
	if source == nil {
		source = retrieval.NopSource{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		sessions: sessions,
		client:   client,
		runner:   runner,
		recorder: recorder,
		source:   source,
		metrics:  m,
		log:      log,
	}
}

// SetTurnPublisher wires the live transcript feed. Optional.
func (o *Orchestrator) SetTurnPublisher(p TurnPublisher) {
	o.events = p
}

// Start initializes a session with empty history, obtains the first question
// within the bounded executor, appends it as an assistant turn, and returns
// it. Provider failure degrades to a generic opener, never an error.
func (o *Orchestrator) Start(ctx context.Context, req StartRequest) (StartResult, error) {
	sid := strings.TrimSpace(req.SessionID)
	if sid == "" {
		sid = uuid.NewString()
	}

	_, readErr := o.sessions.Read(sid)
	fresh := errors.Is(readErr, session.ErrNotFound)

	if err := o.sessions.Create(sid, nil); err != nil {
		return StartResult{}, err
	}

	refs, err := o.source.Fetch(ctx, req.Meta.Company, req.Meta.Role, req.Meta.Seniority)
	if err != nil {
		// Retrieval is guidance only; the interview proceeds without it.
		o.log.Warn("reference retrieval failed", zap.String("session_id", sid), zap.Error(err))
		refs = nil
	}

	history, err := o.sessions.Read(sid)
	if err != nil {
		return StartResult{}, err
	}

	started := time.Now()
	question := execution.Run(o.runner, ctx, labelFirstQuestion, fallbackFirstQuestion, func(ctx context.Context) (string, error) {
		q, err := o.client.GenerateFirstQuestion(ctx, req.Meta, history, refs)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(q) == "" {
			return "", errors.New("provider returned empty question")
		}
		return q, nil
	})
	o.observe(labelFirstQuestion, time.Since(started))

	if err := o.appendTurn(sid, session.Turn{Role: session.RoleAssistant, Content: question}); err != nil {
		return StartResult{}, err
	}

	if o.metrics != nil {
		o.metrics.InterviewEvents.WithLabelValues("started").Inc()
		if fresh {
			o.metrics.ActiveSessions.Inc()
		}
	}
	o.log.Info("interview started",
		zap.String("session_id", sid),
		zap.String("company", req.Meta.Company),
		zap.String("role", req.Meta.Role),
	)

	return StartResult{SessionID: sid, Question: question}, nil
}

// Answer runs one answer cycle: append the user turn, evaluate, append
// feedback and the follow-up question, score independently, persist. The
// only caller-visible error is an unknown session id.
func (o *Orchestrator) Answer(ctx context.Context, sid, text string) (AnswerResult, error) {
	history, err := o.sessions.Read(sid)
	if err != nil {
		return AnswerResult{}, err
	}

	question := lastAssistantContent(history)

	if err := o.appendTurn(sid, session.Turn{Role: session.RoleUser, Content: text}); err != nil {
		return AnswerResult{}, err
	}

	started := time.Now()
	eval := execution.Run(o.runner, ctx, labelEvaluate,
		provider.Evaluation{Feedback: fallbackFeedback, NextQuestion: fallbackNextQuestion},
		func(ctx context.Context) (provider.Evaluation, error) {
			ev, err := o.client.EvaluateAnswer(ctx, question, text, history)
			if err != nil {
				return provider.Evaluation{}, err
			}
			if strings.TrimSpace(ev.Feedback) == "" || strings.TrimSpace(ev.NextQuestion) == "" {
				return provider.Evaluation{}, errors.New("provider returned incomplete evaluation")
			}
			return ev, nil
		})
	o.observe(labelEvaluate, time.Since(started))

	// Feedback first, then the new question.
	if err := o.appendTurn(sid, session.Turn{Role: session.RoleAssistant, Content: eval.Feedback}); err != nil {
		return AnswerResult{}, err
	}
	if err := o.appendTurn(sid, session.Turn{Role: session.RoleAssistant, Content: eval.NextQuestion}); err != nil {
		return AnswerResult{}, err
	}

	score, sanitized := o.scoreAnswer(ctx, question, text)

	o.persistTurn(ctx, storage.TurnRecord{
		SessionID: sid,
		Index:     countRole(history, session.RoleUser),
		Question:  question,
		Answer:    text,
		Feedback:  eval.Feedback,
		Score:     score,
		Metrics:   sanitized,
		CreatedAt: time.Now().UTC(),
	})

	if o.metrics != nil {
		o.metrics.InterviewEvents.WithLabelValues("answered").Inc()
	}

	return AnswerResult{Feedback: eval.Feedback, NextQuestion: eval.NextQuestion, Score: score}, nil
}

// Reset clears a session's history, keeping the id.
func (o *Orchestrator) Reset(sid string) error {
	if err := o.sessions.Reset(sid); err != nil {
		return err
	}
	if o.metrics != nil {
		o.metrics.InterviewEvents.WithLabelValues("reset").Inc()
	}
	o.log.Info("session reset", zap.String("session_id", sid))
	return nil
}

// Delete discards a session entirely.
func (o *Orchestrator) Delete(sid string) error {
	if err := o.sessions.Delete(sid); err != nil {
		return err
	}
	if o.metrics != nil {
		o.metrics.InterviewEvents.WithLabelValues("deleted").Inc()
		o.metrics.ActiveSessions.Dec()
	}
	return nil
}

// Transcript returns the session's in-memory turns in append order.
func (o *Orchestrator) Transcript(sid string) ([]session.Turn, error) {
	return o.sessions.Read(sid)
}

// Summary returns the session's durably recorded turns.
func (o *Orchestrator) Summary(ctx context.Context, sid string) ([]storage.TurnRecord, error) {
	return o.recorder.SessionTurns(ctx, sid)
}

// scoreAnswer requests raw scoring output within the bounded executor and
// sanitizes it. A failed call yields a nil score, not a zero one: absence is
// distinguishable from a hard-capped 0.
func (o *Orchestrator) scoreAnswer(ctx context.Context, question, answer string) (*int, *metrics.Metrics) {
	type scored struct {
		raw string
		ok  bool
	}

	started := time.Now()
	res := execution.Run(o.runner, ctx, labelMetrics, scored{}, func(ctx context.Context) (scored, error) {
		raw, err := o.client.ScoreWithMetrics(ctx, question, answer)
		if err != nil {
			return scored{}, err
		}
		return scored{raw: raw, ok: true}, nil
	})
	o.observe(labelMetrics, time.Since(started))

	if !res.ok {
		return nil, nil
	}

	m := metrics.Sanitize(res.raw)
	score := int(math.Round(m.Overall))
	return &score, &m
}

func (o *Orchestrator) persistTurn(ctx context.Context, record storage.TurnRecord) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordTurn(ctx, record); err != nil {
		// The in-memory session already reflects the conversation; a lost
		// record must not fail the caller's answer.
		o.log.Warn("turn persistence failed",
			zap.String("session_id", record.SessionID),
			zap.Int("index", record.Index),
			zap.Error(err),
		)
		if o.metrics != nil {
			o.metrics.PersistFailures.Inc()
		}
	}
}

func (o *Orchestrator) appendTurn(sid string, turn session.Turn) error {
	if err := o.sessions.Append(sid, turn); err != nil {
		return err
	}
	if o.events != nil {
		o.events.PublishTurn(sid, turn)
	}
	return nil
}

func (o *Orchestrator) observe(label string, d time.Duration) {
	if o.metrics != nil {
		o.metrics.ObserveProviderCall(label, d)
	}
}

// lastAssistantContent finds the question being answered: the most recent
// assistant turn, or empty when none exists yet.
func lastAssistantContent(turns []session.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == session.RoleAssistant {
			return turns[i].Content
		}
	}
	return ""
}

func countRole(turns []session.Turn, role session.Role) int {
	n := 0
	for _, t := range turns {
		if t.Role == role {
			n++
		}
	}
	return n
}
