package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"interviewd/internal/config"
	"interviewd/internal/execution"
	"interviewd/internal/interview"
	"interviewd/internal/provider"
	"interviewd/internal/retrieval"
	"interviewd/internal/session"
	"interviewd/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Config{Provider: "mock"}
	orch := interview.NewOrchestrator(
		session.NewInMemoryStore(),
		provider.NewMockClient(),
		execution.NewRunner(2*time.Second, zap.NewNop()),
		storage.NewInMemoryRecorder(),
		retrieval.NopSource{},
		nil,
		zap.NewNop(),
	)
	srv := New(cfg, orch, nil, zap.NewNop())
	orch.SetTurnPublisher(srv.Hub())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	res, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return res
}

func TestStartAnswerRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)

	res := postJSON(t, ts.URL+"/v1/interview/start", map[string]string{
		"company": "Acme",
		"role":    "Data Scientist",
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var started map[string]any
	if err := json.NewDecoder(res.Body).Decode(&started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	sessionID, _ := started["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("missing session_id in start response: %+v", started)
	}
	if q, _ := started["question"].(string); q == "" {
		t.Fatalf("missing question in start response: %+v", started)
	}

	ansRes := postJSON(t, ts.URL+"/v1/interview/answer", map[string]string{
		"session_id": sessionID,
		"answer":     "I would start with a holdout validation set.",
	})
	defer ansRes.Body.Close()
	if ansRes.StatusCode != http.StatusOK {
		t.Fatalf("answer status = %d, want %d", ansRes.StatusCode, http.StatusOK)
	}

	var answered map[string]any
	if err := json.NewDecoder(ansRes.Body).Decode(&answered); err != nil {
		t.Fatalf("decode answer response: %v", err)
	}
	if fb, _ := answered["feedback"].(string); fb == "" {
		t.Fatalf("missing feedback: %+v", answered)
	}
	if q, _ := answered["question"].(string); q == "" {
		t.Fatalf("missing follow-up question: %+v", answered)
	}
	if _, ok := answered["score"]; !ok {
		t.Fatalf("missing score field: %+v", answered)
	}
}

func TestAnswerUnknownSessionIs404(t *testing.T) {
	_, ts := newTestServer(t)

	res := postJSON(t, ts.URL+"/v1/interview/answer", map[string]string{
		"session_id": "does-not-exist",
		"answer":     "hello",
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}

	var body errorResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if body.Code != "session_not_found" {
		t.Fatalf("code = %q, want session_not_found", body.Code)
	}
}

func TestAnswerMissingSessionIDIs400(t *testing.T) {
	_, ts := newTestServer(t)

	res := postJSON(t, ts.URL+"/v1/interview/answer", map[string]string{"answer": "hi"})
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestResetAndTranscript(t *testing.T) {
	_, ts := newTestServer(t)

	res := postJSON(t, ts.URL+"/v1/interview/start", map[string]string{"company": "Acme"})
	var started map[string]any
	_ = json.NewDecoder(res.Body).Decode(&started)
	res.Body.Close()
	sessionID := started["session_id"].(string)

	trRes, err := http.Get(ts.URL + "/v1/interview/session/" + sessionID + "/transcript")
	if err != nil {
		t.Fatalf("GET transcript: %v", err)
	}
	defer trRes.Body.Close()
	var tr transcriptResponse
	if err := json.NewDecoder(trRes.Body).Decode(&tr); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(tr.Turns) != 1 {
		t.Fatalf("got %d turns before reset, want 1", len(tr.Turns))
	}

	rsRes := postJSON(t, ts.URL+"/v1/interview/session/"+sessionID+"/reset", nil)
	rsRes.Body.Close()
	if rsRes.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d, want %d", rsRes.StatusCode, http.StatusOK)
	}

	trRes2, err := http.Get(ts.URL + "/v1/interview/session/" + sessionID + "/transcript")
	if err != nil {
		t.Fatalf("GET transcript: %v", err)
	}
	defer trRes2.Body.Close()
	var tr2 transcriptResponse
	_ = json.NewDecoder(trRes2.Body).Decode(&tr2)
	if len(tr2.Turns) != 0 {
		t.Fatalf("got %d turns after reset, want 0", len(tr2.Turns))
	}
}

func TestSummaryReturnsRecordedTurns(t *testing.T) {
	_, ts := newTestServer(t)

	res := postJSON(t, ts.URL+"/v1/interview/start", map[string]string{"role": "Engineer"})
	var started map[string]any
	_ = json.NewDecoder(res.Body).Decode(&started)
	res.Body.Close()
	sessionID := started["session_id"].(string)

	ansRes := postJSON(t, ts.URL+"/v1/interview/answer", map[string]string{
		"session_id": sessionID,
		"answer":     "an answer",
	})
	ansRes.Body.Close()

	sumRes, err := http.Get(ts.URL + "/v1/interview/session/" + sessionID + "/summary")
	if err != nil {
		t.Fatalf("GET summary: %v", err)
	}
	defer sumRes.Body.Close()
	var sum summaryResponse
	if err := json.NewDecoder(sumRes.Body).Decode(&sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(sum.Turns) != 1 {
		t.Fatalf("got %d recorded turns, want 1", len(sum.Turns))
	}
	if sum.Turns[0].Answer != "an answer" {
		t.Fatalf("recorded answer = %q", sum.Turns[0].Answer)
	}
}

func TestWatchWSStreamsSnapshotAndLiveTurns(t *testing.T) {
	_, ts := newTestServer(t)

	res := postJSON(t, ts.URL+"/v1/interview/start", map[string]string{"company": "Acme"})
	var started map[string]any
	_ = json.NewDecoder(res.Body).Decode(&started)
	res.Body.Close()
	sessionID := started["session_id"].(string)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/interview/session/" + sessionID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	// Snapshot: the opening question.
	var first turnEvent
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read snapshot turn: %v", err)
	}
	if first.Role != string(session.RoleAssistant) {
		t.Fatalf("snapshot role = %q, want assistant", first.Role)
	}

	ansRes := postJSON(t, ts.URL+"/v1/interview/answer", map[string]string{
		"session_id": sessionID,
		"answer":     "a live answer",
	})
	ansRes.Body.Close()

	// Live: the user turn arrives next.
	var live turnEvent
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&live); err != nil {
		t.Fatalf("read live turn: %v", err)
	}
	if live.Role != string(session.RoleUser) || live.Content != "a live answer" {
		t.Fatalf("live turn = %+v", live)
	}
}

func TestWatchWSUnknownSessionIs404(t *testing.T) {
	_, ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/v1/interview/session/nope/ws")
	if err != nil {
		t.Fatalf("GET ws: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestHealthEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
	}
}
