// Package provider hides the differences between model backends behind a
// three-operation capability interface. Exactly one backend is active per
// process, selected by name from the registry at startup; no raw chat is
// exposed outside this package.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"interviewd/internal/retrieval"
	"interviewd/internal/session"
)

// InterviewMeta is the immutable per-session configuration captured at
// session creation, consumed only when phrasing the first question.
type InterviewMeta struct {
	Company   string `json:"company"`
	Role      string `json:"role"`
	Seniority string `json:"seniority"`
	Context   string `json:"context"`
}

// Evaluation pairs answer feedback with the follow-up question.
type Evaluation struct {
	Feedback     string `json:"feedback"`
	NextQuestion string `json:"next_question"`
}

// Client is the model backend capability set. Each backend turns these
// high-level operations into one or more text-generation calls and owns all
// backend-specific prompt construction and output cleanup.
type Client interface {
	// GenerateFirstQuestion produces the opening interview question,
	// optionally guided by retrieved reference questions.
	GenerateFirstQuestion(ctx context.Context, meta InterviewMeta, history []session.Turn, refs []retrieval.Reference) (string, error)
	// EvaluateAnswer produces feedback on the answer plus the next question.
	EvaluateAnswer(ctx context.Context, question, answer string, history []session.Turn) (Evaluation, error)
	// ScoreWithMetrics returns the backend's raw scoring output, a text blob
	// purportedly containing the metrics JSON object. Sanitization is the
	// caller's job.
	ScoreWithMetrics(ctx context.Context, question, answer string) (string, error)
}

// Config carries backend credentials and endpoints, resolved once at process
// start.
type Config struct {
	Name string

	OpenAIAPIKey string
	OpenAIModel  string

	QwenEndpoint string
	QwenAPIKey   string

	GeminiAPIKey string
	GeminiModel  string
}

// Factory constructs a backend from its configuration. Missing credentials
// are a construction error, which callers treat as fatal.
type Factory func(ctx context.Context, cfg Config) (Client, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a backend under the given name. New backends are added by
// registering, not by editing a dispatch function.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// New builds the backend named in cfg. Unknown names fail here, at startup,
// never per request.
func New(ctx context.Context, cfg Config) (Client, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))

	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown model provider %q (registered: %s)", cfg.Name, strings.Join(Names(), ", "))
	}
	return factory(ctx, cfg)
}

// Names lists the registered backend names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
