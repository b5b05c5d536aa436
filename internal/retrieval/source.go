// Package retrieval defines the boundary to the question-retrieval
// collaborator. The service only consumes its output as optional guidance
// for the first interview question; an empty result is always acceptable.
package retrieval

import "context"

// Reference is one retrieved interview question with its topic tags.
type Reference struct {
	Question string `json:"question"`
	Tags     string `json:"tags"`
}

// Source fetches reference questions for an interview setup.
type Source interface {
	Fetch(ctx context.Context, company, role, seniority string) ([]Reference, error)
}

// NopSource returns no references. Used when no question bank is configured.
type NopSource struct{}

func (NopSource) Fetch(context.Context, string, string, string) ([]Reference, error) {
	return nil, nil
}
