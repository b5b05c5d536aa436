package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"interviewd/internal/retrieval"
	"interviewd/internal/session"
)

const defaultGeminiModel = "gemini-2.5-flash"

func init() {
	Register("gemini", newGeminiClient)
}

// GeminiClient wraps the Google GenAI SDK.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	apiKey := strings.TrimSpace(cfg.GeminiAPIKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.GeminiModel)
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, modelName: model}, nil
}

func (c *GeminiClient) GenerateFirstQuestion(ctx context.Context, meta InterviewMeta, _ []session.Turn, refs []retrieval.Reference) (string, error) {
	raw, err := c.generateContent(ctx, firstQuestionPrompt(meta, refs), nil)
	if err != nil {
		return "", err
	}
	return firstAnswerLine(raw), nil
}

func (c *GeminiClient) EvaluateAnswer(ctx context.Context, question, answer string, _ []session.Turn) (Evaluation, error) {
	raw, err := c.generateContent(ctx, evaluatePrompt(question, answer), nil)
	if err != nil {
		return Evaluation{}, err
	}
	return splitFeedbackNext(raw), nil
}

func (c *GeminiClient) ScoreWithMetrics(ctx context.Context, question, answer string) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)}
	return c.generateContent(ctx, scoringPrompt(question, answer), cfg)
}

func (c *GeminiClient) generateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}
