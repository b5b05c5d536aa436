package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"interviewd/internal/config"
	"interviewd/internal/interview"
	"interviewd/internal/observability"
	"interviewd/internal/provider"
	"interviewd/internal/session"
	"interviewd/internal/storage"
)

type Orchestrator interface {
	Start(ctx context.Context, req interview.StartRequest) (interview.StartResult, error)
	Answer(ctx context.Context, sessionID, answer string) (interview.AnswerResult, error)
	Reset(sessionID string) error
	Delete(sessionID string) error
	Transcript(sessionID string) ([]session.Turn, error)
	Summary(ctx context.Context, sessionID string) ([]storage.TurnRecord, error)
}

type Server struct {
	cfg          config.Config
	orchestrator Orchestrator
	metrics      *observability.Metrics
	hub          *watchHub
	upgrader     websocket.Upgrader
	log          *zap.Logger
}

func New(cfg config.Config, orchestrator Orchestrator, metrics *observability.Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		metrics:      metrics,
		hub:          newWatchHub(metrics),
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up. This prevents other
				// websites from watching a candidate's transcript if the
				// server is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

// Hub exposes the transcript fan-out so it can be wired as the
// orchestrator's turn publisher.
func (s *Server) Hub() interview.TurnPublisher {
	return s.hub
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/interview/start", s.handleStart)
	r.Post("/v1/interview/answer", s.handleAnswer)
	r.Post("/v1/interview/session/{id}/reset", s.handleReset)
	r.Delete("/v1/interview/session/{id}", s.handleDelete)
	r.Get("/v1/interview/session/{id}/transcript", s.handleTranscript)
	r.Get("/v1/interview/session/{id}/summary", s.handleSummary)
	r.Get("/v1/interview/session/{id}/ws", s.handleWatchWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"provider": s.cfg.Provider,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"provider": s.cfg.Provider,
	})
}

type startRequest struct {
	SessionID string `json:"session_id"`
	Company   string `json:"company"`
	Role      string `json:"role"`
	Seniority string `json:"seniority"`
	Context   string `json:"context"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := s.orchestrator.Start(r.Context(), interview.StartRequest{
		SessionID: req.SessionID,
		Meta: provider.InterviewMeta{
			Company:   strings.TrimSpace(req.Company),
			Role:      strings.TrimSpace(req.Role),
			Seniority: strings.TrimSpace(req.Seniority),
			Context:   strings.TrimSpace(req.Context),
		},
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "start_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

type answerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session_id is required")
		return
	}

	res, err := s.orchestrator.Answer(r.Context(), req.SessionID, req.Answer)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "answer_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	if err := s.orchestrator.Reset(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "reset_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "reset"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.orchestrator.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "delete_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "deleted"})
}

type transcriptResponse struct {
	SessionID string         `json:"session_id"`
	Turns     []session.Turn `json:"turns"`
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	turns, err := s.orchestrator.Transcript(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "transcript_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, transcriptResponse{SessionID: id, Turns: turns})
}

type summaryResponse struct {
	SessionID string               `json:"session_id"`
	Turns     []storage.TurnRecord `json:"turns"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	records, err := s.orchestrator.Summary(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "summary_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, summaryResponse{SessionID: id, Turns: records})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
