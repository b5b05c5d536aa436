package provider

import (
	"context"
	"strings"
	"testing"
)

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Name: "llama-on-a-toaster"})
	if err == nil {
		t.Fatalf("New() should fail for unregistered provider")
	}
	if !strings.Contains(err.Error(), "llama-on-a-toaster") {
		t.Fatalf("error %q should name the unknown provider", err)
	}
}

func TestNewIsCaseInsensitive(t *testing.T) {
	client, err := New(context.Background(), Config{Name: "MOCK"})
	if err != nil {
		t.Fatalf("New(MOCK) error = %v", err)
	}
	if _, ok := client.(*MockClient); !ok {
		t.Fatalf("New(MOCK) = %T, want *MockClient", client)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"openai", Config{Name: "openai"}},
		{"qwen missing endpoint", Config{Name: "qwen", QwenAPIKey: "k"}},
		{"qwen missing key", Config{Name: "qwen", QwenEndpoint: "http://x"}},
		{"gemini", Config{Name: "gemini"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(context.Background(), tc.cfg); err == nil {
				t.Fatalf("New(%+v) should fail without credentials", tc.cfg)
			}
		})
	}
}

func TestNamesIncludesAllBackends(t *testing.T) {
	names := Names()
	for _, want := range []string{"gemini", "mock", "openai", "qwen"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("Names() = %v, missing %q", names, want)
		}
	}
}
