package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"interviewd/internal/retrieval"
	"interviewd/internal/session"
)

func init() {
	Register("qwen", func(_ context.Context, cfg Config) (Client, error) {
		return newQwenClient(cfg)
	})
}

// Stop sequences trim the rambling tail of raw text generation. Most
// specific first: the first match wins.
var qwenQuestionStops = []string{"Answer:", "\n\nAnswer", "\nAnswer:", "\n\n", "\nQuestion", "\n1.", "\n2.", "\nContext:"}

type qwenRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters qwenParameters `json:"parameters"`
}

type qwenParameters struct {
	Temperature  float64 `json:"temperature"`
	MaxNewTokens int     `json:"max_new_tokens"`
	TopP         float64 `json:"top_p"`
}

type qwenGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// QwenClient speaks the Hugging Face text-generation inference API. The
// endpoint returns one raw text blob per call; all structure (single
// question, FEEDBACK/NEXT split, JSON metrics) is recovered here.
type QwenClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func newQwenClient(cfg Config) (*QwenClient, error) {
	if strings.TrimSpace(cfg.QwenEndpoint) == "" {
		return nil, errors.New("QWEN_ENDPOINT is not set")
	}
	if strings.TrimSpace(cfg.QwenAPIKey) == "" {
		return nil, errors.New("QWEN_API_KEY is not set")
	}
	return &QwenClient{
		endpoint:   cfg.QwenEndpoint,
		apiKey:     cfg.QwenAPIKey,
		httpClient: &http.Client{},
	}, nil
}

func (c *QwenClient) GenerateFirstQuestion(ctx context.Context, meta InterviewMeta, _ []session.Turn, refs []retrieval.Reference) (string, error) {
	// Short token budget keeps the model from emitting several questions.
	raw, err := c.generate(ctx, firstQuestionPrompt(meta, refs), 100, qwenQuestionStops)
	if err != nil {
		return "", err
	}
	return firstAnswerLine(raw), nil
}

func (c *QwenClient) EvaluateAnswer(ctx context.Context, question, answer string, _ []session.Turn) (Evaluation, error) {
	raw, err := c.generate(ctx, evaluatePrompt(question, answer), 600, []string{"\n\n\n"})
	if err != nil {
		return Evaluation{}, err
	}
	return splitFeedbackNext(raw), nil
}

func (c *QwenClient) ScoreWithMetrics(ctx context.Context, question, answer string) (string, error) {
	// No stop sequences: the JSON object must be allowed to complete.
	return c.generate(ctx, scoringPrompt(question, answer), 1500, nil)
}

func (c *QwenClient) generate(ctx context.Context, prompt string, maxTokens int, stops []string) (string, error) {
	payload, err := json.Marshal(qwenRequest{
		Inputs: prompt,
		Parameters: qwenParameters{
			Temperature:  0.7,
			MaxNewTokens: maxTokens,
			TopP:         0.9,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("text generation HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	generated, err := parseGeneration(body)
	if err != nil {
		return "", err
	}

	generated = stripPromptEcho(generated, prompt)
	return applyStopSequences(generated, stops), nil
}

// parseGeneration accepts both response shapes the inference API uses: a
// single object or a one-element array of generations.
func parseGeneration(body []byte) (string, error) {
	var list []qwenGeneration
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0].GeneratedText), nil
	}

	var single qwenGeneration
	if err := json.Unmarshal(body, &single); err == nil {
		return strings.TrimSpace(single.GeneratedText), nil
	}
	return "", fmt.Errorf("unexpected generation payload: %s", strings.TrimSpace(string(body)))
}
