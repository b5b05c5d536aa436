package provider

import (
	"context"
	"fmt"
	"strings"

	"interviewd/internal/retrieval"
	"interviewd/internal/session"
)

func init() {
	Register("mock", func(context.Context, Config) (Client, error) {
		return NewMockClient(), nil
	})
}

// MockClient provides deterministic local replies for development and tests.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) GenerateFirstQuestion(ctx context.Context, meta InterviewMeta, _ []session.Turn, refs []retrieval.Reference) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(refs) > 0 && strings.TrimSpace(refs[0].Question) != "" {
		return strings.TrimSpace(refs[0].Question), nil
	}

	role := strings.TrimSpace(meta.Role)
	if role == "" {
		role = "candidate"
	}
	company := strings.TrimSpace(meta.Company)
	if company == "" {
		return fmt.Sprintf("What does a typical day look like for you as a %s?", role), nil
	}
	return fmt.Sprintf("Why do you want to work at %s as a %s?", company, role), nil
}

func (c *MockClient) EvaluateAnswer(ctx context.Context, _, answer string, _ []session.Turn) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	feedback := "Thanks for the answer. Structure it as situation, action, result next time."
	if len(strings.Fields(answer)) < 5 {
		feedback = "That answer is very short. Walk me through your reasoning in more depth."
	}
	return Evaluation{
		Feedback:     feedback,
		NextQuestion: "How would you validate the quality of a dataset you have never seen before?",
	}, nil
}

func (c *MockClient) ScoreWithMetrics(ctx context.Context, _, answer string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dontKnow := strings.Contains(strings.ToLower(answer), "don't know")
	return fmt.Sprintf(`{
		"technical_correctness": 6, "clarity": 6, "completeness": 5, "tone": 7, "overall": 5.8,
		"flags": {"gibberish": false, "off_topic": false, "dont_know": %t, "policy_violation": false},
		"notes": "canned mock scoring"
	}`, dontKnow), nil
}
