package httpapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"interviewd/internal/observability"
	"interviewd/internal/session"
)

const (
	watchWriteTimeout = 10 * time.Second
	watchReadTimeout  = 120 * time.Second
	watchQueueSize    = 64
)

// turnEvent is the wire shape pushed to transcript watchers.
type turnEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
}

type watcher struct {
	events chan turnEvent
}

// watchHub fans appended turns out to connected watchers, one queue per
// connection. Slow watchers get dropped events rather than blocking the
// interview path.
type watchHub struct {
	mu       sync.RWMutex
	watchers map[string]map[*watcher]struct{}
	metrics  *observability.Metrics
}

func newWatchHub(m *observability.Metrics) *watchHub {
	return &watchHub{
		watchers: make(map[string]map[*watcher]struct{}),
		metrics:  m,
	}
}

// PublishTurn implements interview.TurnPublisher. Never blocks.
func (h *watchHub) PublishTurn(sessionID string, turn session.Turn) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for w := range h.watchers[sessionID] {
		select {
		case w.events <- turnEvent{
			Type:      "turn",
			SessionID: sessionID,
			Role:      string(turn.Role),
			Content:   turn.Content,
		}:
		default:
			// Queue full. Drop instead of stalling Answer.
		}
	}
}

func (h *watchHub) add(sessionID string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[sessionID] == nil {
		h.watchers[sessionID] = make(map[*watcher]struct{})
	}
	h.watchers[sessionID][w] = struct{}{}
	if h.metrics != nil {
		h.metrics.TranscriptWatchers.Inc()
	}
}

func (h *watchHub) remove(sessionID string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers[sessionID], w)
	if len(h.watchers[sessionID]) == 0 {
		delete(h.watchers, sessionID)
	}
	if h.metrics != nil {
		h.metrics.TranscriptWatchers.Dec()
	}
}

// handleWatchWS streams a session's transcript: the current turns as a
// snapshot, then every appended turn live until the client disconnects.
func (s *Server) handleWatchWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	turns, err := s.orchestrator.Transcript(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	watch := &watcher{events: make(chan turnEvent, watchQueueSize)}
	s.hub.add(id, watch)
	defer s.hub.remove(id, watch)

	// Snapshot before live events so the watcher never misses the turns
	// that predate the connection.
	for _, t := range turns {
		_ = conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
		if err := conn.WriteJSON(turnEvent{
			Type:      "turn",
			SessionID: id,
			Role:      string(t.Role),
			Content:   t.Content,
		}); err != nil {
			return
		}
		s.countWS("outbound", "turn")
	}

	done := make(chan struct{})

	go func() {
		defer close(done)
		conn.SetReadLimit(1 << 16)
		_ = conn.SetReadDeadline(time.Now().Add(watchReadTimeout))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(watchReadTimeout))
			return nil
		})
		// Watchers are read-only. Drain until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			s.countWS("inbound", "ignored")
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev := <-watch.events:
			_ = conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug("transcript watch write failed",
					zap.String("session_id", id), zap.Error(err))
				return
			}
			s.countWS("outbound", ev.Type)
		}
	}
}

func (s *Server) countWS(direction, msgType string) {
	if s.metrics != nil {
		s.metrics.WSMessages.WithLabelValues(direction, msgType).Inc()
	}
}
