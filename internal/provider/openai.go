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

const openaiChatURL = "https://api.openai.com/v1/chat/completions"

func init() {
	Register("openai", func(_ context.Context, cfg Config) (Client, error) {
		return newOpenAIClient(cfg)
	})
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIClient speaks the chat-completions API directly.
type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func newOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	model := strings.TrimSpace(cfg.OpenAIModel)
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{
		apiKey:     cfg.OpenAIAPIKey,
		model:      model,
		baseURL:    openaiChatURL,
		httpClient: &http.Client{},
	}, nil
}

func (c *OpenAIClient) GenerateFirstQuestion(ctx context.Context, meta InterviewMeta, _ []session.Turn, refs []retrieval.Reference) (string, error) {
	raw, err := c.chat(ctx, []openaiMessage{
		{Role: "user", Content: firstQuestionPrompt(meta, refs)},
	}, 0.7)
	if err != nil {
		return "", err
	}
	return firstAnswerLine(raw), nil
}

func (c *OpenAIClient) EvaluateAnswer(ctx context.Context, question, answer string, _ []session.Turn) (Evaluation, error) {
	raw, err := c.chat(ctx, []openaiMessage{
		{Role: "user", Content: evaluatePrompt(question, answer)},
	}, 0.7)
	if err != nil {
		return Evaluation{}, err
	}
	return splitFeedbackNext(raw), nil
}

func (c *OpenAIClient) ScoreWithMetrics(ctx context.Context, question, answer string) (string, error) {
	user := fmt.Sprintf("Question: %s\n\nAnswer: %s\nReturn ONLY JSON.", question, answer)
	return c.chat(ctx, []openaiMessage{
		{Role: "system", Content: scorerSystemPrompt},
		{Role: "user", Content: user},
	}, 0)
}

func (c *OpenAIClient) chat(ctx context.Context, messages []openaiMessage, temperature float64) (string, error) {
	payload, err := json.Marshal(openaiRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed openaiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat completions API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("chat completions returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
