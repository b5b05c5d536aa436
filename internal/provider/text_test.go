package provider

import (
	"strings"
	"testing"

	"interviewd/internal/retrieval"
)

func TestFirstAnswerLine(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"What is a p-value?", "What is a p-value?"},
		{"\n\n  1. What is a p-value?\nSecond line", "What is a p-value?"},
		{"Question 3: Explain joins.", "Explain joins."},
		{"Q2. Explain joins.", "Explain joins."},
		{"2) Explain joins.", "Explain joins."},
		{"   \n\t\n", ""},
	}
	for _, tc := range cases {
		if got := firstAnswerLine(tc.in); got != tc.want {
			t.Fatalf("firstAnswerLine(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestApplyStopSequencesFirstMatchWins(t *testing.T) {
	got := applyStopSequences("the question Answer: spoiler \n\n extra", []string{"Answer:", "\n\n"})
	if got != "the question" {
		t.Fatalf("applyStopSequences() = %q, want %q", got, "the question")
	}
}

func TestStripPromptEcho(t *testing.T) {
	got := stripPromptEcho("PROMPT TEXT generated tail", "PROMPT TEXT")
	if got != "generated tail" {
		t.Fatalf("stripPromptEcho() = %q, want %q", got, "generated tail")
	}
	if got := stripPromptEcho("untouched", "missing prompt"); got != "untouched" {
		t.Fatalf("stripPromptEcho() = %q, want untouched", got)
	}
}

func TestSplitFeedbackNext(t *testing.T) {
	ev := splitFeedbackNext("FEEDBACK: Good depth. NEXT: What about indexing?")
	if ev.Feedback != "Good depth." {
		t.Fatalf("Feedback = %q, want %q", ev.Feedback, "Good depth.")
	}
	if ev.NextQuestion != "What about indexing?" {
		t.Fatalf("NextQuestion = %q, want %q", ev.NextQuestion, "What about indexing?")
	}
}

func TestSplitFeedbackNextMissingDelimiter(t *testing.T) {
	ev := splitFeedbackNext("FEEDBACK: Decent answer overall.")
	if ev.Feedback != "Decent answer overall." {
		t.Fatalf("Feedback = %q", ev.Feedback)
	}
	if ev.NextQuestion != interviewFinished {
		t.Fatalf("NextQuestion = %q, want sentinel %q", ev.NextQuestion, interviewFinished)
	}
}

func TestSplitFeedbackNextEmptyNext(t *testing.T) {
	ev := splitFeedbackNext("solid NEXT:   ")
	if ev.NextQuestion != interviewFinished {
		t.Fatalf("NextQuestion = %q, want sentinel for empty follow-up", ev.NextQuestion)
	}
}

func TestReferenceContextCapsAtFive(t *testing.T) {
	refs := make([]retrieval.Reference, 8)
	for i := range refs {
		refs[i] = retrieval.Reference{Question: "q", Tags: "t"}
	}
	ctx := referenceContext(refs)
	for _, marker := range []string{"1. ", "5. "} {
		if !strings.Contains(ctx, marker) {
			t.Fatalf("referenceContext missing %q", marker)
		}
	}
	if strings.Contains(ctx, "6. ") {
		t.Fatalf("referenceContext should cap at %d references", maxPromptReferences)
	}
}

func TestReferenceContextEmpty(t *testing.T) {
	if got := referenceContext(nil); got != "" {
		t.Fatalf("referenceContext(nil) = %q, want empty", got)
	}
	if got := referenceContext([]retrieval.Reference{{Question: "   "}}); got != "" {
		t.Fatalf("referenceContext(blank) = %q, want empty", got)
	}
}
