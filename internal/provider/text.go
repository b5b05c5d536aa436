package provider

import (
	"regexp"
	"strings"
)

// interviewFinished is the follow-up sentinel used when a backend's combined
// feedback/next-question blob carries no NEXT: delimiter.
const interviewFinished = "Interview finished."

const nextDelimiter = "NEXT:"

var (
	numberingPattern     = regexp.MustCompile(`^\d+[.)]\s*`)
	questionLabelPattern = regexp.MustCompile(`(?i)^question\s*\d*[.:)]*\s*`)
	qLabelPattern        = regexp.MustCompile(`(?i)^q\d*[.:)]\s*`)
)

// firstAnswerLine extracts the first meaningful line from noisy generation
// output and strips leading enumeration markers and question labels.
func firstAnswerLine(generated string) string {
	for _, line := range strings.Split(generated, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = numberingPattern.ReplaceAllString(line, "")
		line = questionLabelPattern.ReplaceAllString(line, "")
		line = qLabelPattern.ReplaceAllString(line, "")
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(generated)
}

// stripPromptEcho removes the prompt when the backend returns it verbatim at
// the head of the generation.
func stripPromptEcho(generated, prompt string) string {
	if prompt != "" && strings.Contains(generated, prompt) {
		generated = strings.Replace(generated, prompt, "", 1)
	}
	return strings.TrimSpace(generated)
}

// applyStopSequences truncates the generation at the first stop sequence
// found. Order matters: the first matching sequence wins.
func applyStopSequences(generated string, stops []string) string {
	for _, stop := range stops {
		if idx := strings.Index(generated, stop); idx >= 0 {
			return strings.TrimSpace(generated[:idx])
		}
	}
	return strings.TrimSpace(generated)
}

// splitFeedbackNext separates a combined feedback/next-question blob on the
// NEXT: delimiter, defaulting the follow-up when the delimiter is absent.
func splitFeedbackNext(raw string) Evaluation {
	feedback := raw
	next := interviewFinished

	if idx := strings.Index(raw, nextDelimiter); idx >= 0 {
		feedback = raw[:idx]
		next = strings.TrimSpace(raw[idx+len(nextDelimiter):])
		if next == "" {
			next = interviewFinished
		}
	}

	feedback = strings.TrimSpace(strings.ReplaceAll(feedback, "FEEDBACK:", ""))
	return Evaluation{Feedback: feedback, NextQuestion: next}
}
