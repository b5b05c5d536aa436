package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type bankEntry struct {
	Question string `json:"question"`
	Tags     string `json:"tags"`
	Company  string `json:"company,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Bank is a file-backed question bank. It stands in for the external vector
// retrieval service in single-node deployments: exact company/role matching
// first, the whole bank when the strict filter yields nothing.
type Bank struct {
	entries []bankEntry
}

func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	var entries []bankEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	return &Bank{entries: entries}, nil
}

func (b *Bank) Fetch(_ context.Context, company, role, _ string) ([]Reference, error) {
	matched := b.filter(company, role)
	if len(matched) == 0 {
		matched = b.entries
	}

	refs := make([]Reference, 0, len(matched))
	for _, e := range matched {
		if strings.TrimSpace(e.Question) == "" {
			continue
		}
		refs = append(refs, Reference{Question: e.Question, Tags: e.Tags})
	}
	return refs, nil
}

func (b *Bank) filter(company, role string) []bankEntry {
	var out []bankEntry
	for _, e := range b.entries {
		if company != "" && e.Company != "" && !strings.EqualFold(e.Company, company) {
			continue
		}
		if role != "" && e.Role != "" && !strings.EqualFold(e.Role, role) {
			continue
		}
		if e.Company == "" && e.Role == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}
