package provider

import (
	"fmt"
	"strings"

	"interviewd/internal/retrieval"
)

const maxPromptReferences = 5

// scorerSystemPrompt instructs the backend to emit the metrics JSON object.
// The weighted overall formula lives here, in the prompt: the sanitizer
// clamps the returned value but never recomputes it.
const scorerSystemPrompt = `You are a strict interviewer for data roles (Data Scientist, Data Engineer,
Machine Learning Engineer, Data Analyst). You must return ONLY a single JSON object.
Never add prose.

Scoring rubric (each 0-10):
- technical_correctness: factual accuracy, correct methods/terms, mistake-free reasoning.
- clarity: structure, concise explanations, easy to follow.
- completeness: covers key points the question expects (depth over fluff).
- tone: professional and confident (neutral English).

Overall:
- overall = round((0.5*technical_correctness + 0.25*completeness + 0.2*clarity + 0.05*tone), 1)
- Clamp each metric to [0,10].

Flags (booleans):
- gibberish: true if the answer is incoherent, meaningless, or spammy.
- off_topic: true if answer ignores the question's technical subject.
- dont_know: true if the answer explicitly admits not knowing OR gives no info.
- policy_violation: true if unsafe or disallowed content.

Hard caps:
- If gibberish OR off_topic OR dont_know -> set overall=0.
- If policy_violation -> set overall=0.

Return JSON with:
{
  "technical_correctness": <0-10>,
  "clarity": <0-10>,
  "completeness": <0-10>,
  "tone": <0-10>,
  "overall": <0-10>,
  "flags": { "gibberish": <bool>, "off_topic": <bool>, "dont_know": <bool>, "policy_violation": <bool> },
  "notes": "<one short sentence explaining the main reason for the score>"
}`

func firstQuestionPrompt(meta InterviewMeta, refs []retrieval.Reference) string {
	return fmt.Sprintf(`%sYou are an expert interviewer.

Generate ONE interview question based on:
Company: %s
Role: %s
Seniority: %s
Context: %s

Rules:
- Output ONLY the question
- No numbering
- No explanation
- No multiple questions
- No answers

Question:`, referenceContext(refs), meta.Company, meta.Role, meta.Seniority, meta.Context)
}

// referenceContext renders retrieved questions as guidance. Empty when there
// is nothing to show, otherwise ends with a blank line so it can be prepended
// to any prompt.
func referenceContext(refs []retrieval.Reference) string {
	if len(refs) > maxPromptReferences {
		refs = refs[:maxPromptReferences]
	}

	var lines []string
	for i, ref := range refs {
		q := strings.TrimSpace(ref.Question)
		if q == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s  (Tags: %s)", i+1, q, strings.TrimSpace(ref.Tags)))
	}
	if len(lines) == 0 {
		return ""
	}

	return "Here are reference interview questions retrieved from your knowledge base. " +
		"Use them ONLY to guide theme, difficulty, and style. DO NOT repeat them verbatim:\n" +
		strings.Join(lines, "\n") + "\n\n"
}

func evaluatePrompt(question, answer string) string {
	return fmt.Sprintf(`Evaluate this interview answer in 2-3 sentences, then generate the next question.

Question: %s
Answer: %s

Format:
FEEDBACK: <your evaluation>
NEXT: <next question>

Output:
FEEDBACK:`, question, answer)
}

func scoringPrompt(question, answer string) string {
	return fmt.Sprintf("%s\n\nQuestion: %s\n\nAnswer: %s\n\nReturn ONLY JSON.", scorerSystemPrompt, question, answer)
}
