package metrics

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const maxNotesLen = 300

// Flags mark disqualifying answer conditions. Any true flag zeroes the
// overall score.
type Flags struct {
	Gibberish       bool `json:"gibberish"`
	OffTopic        bool `json:"off_topic"`
	DontKnow        bool `json:"dont_know"`
	PolicyViolation bool `json:"policy_violation"`
}

// Any reports whether at least one flag is set.
func (f Flags) Any() bool {
	return f.Gibberish || f.OffTopic || f.DontKnow || f.PolicyViolation
}

// Metrics is the fixed-shape scoring record. All numeric fields are in
// [0, 10] and rounded to one decimal place after sanitization.
type Metrics struct {
	TechnicalCorrectness float64 `json:"technical_correctness"`
	Clarity              float64 `json:"clarity"`
	Completeness         float64 `json:"completeness"`
	Tone                 float64 `json:"tone"`
	Overall              float64 `json:"overall"`
	Flags                Flags   `json:"flags"`
	Notes                string  `json:"notes"`
}

// Sanitize converts arbitrary text purportedly containing a JSON scoring
// object into a structurally guaranteed Metrics record. It is total: any
// input, including garbage, yields a valid record; the worst case is
// all-zero, all-false, empty notes. Overall is only clamped, never
// recomputed from the sub-metrics. Re-sanitizing the JSON encoding of a
// sanitized record is a no-op.
func Sanitize(raw string) Metrics {
	obj := parseObject(raw)

	m := Metrics{
		TechnicalCorrectness: clampScore(obj["technical_correctness"]),
		Clarity:              clampScore(obj["clarity"]),
		Completeness:         clampScore(obj["completeness"]),
		Tone:                 clampScore(obj["tone"]),
		Overall:              clampScore(obj["overall"]),
	}

	if flags, ok := obj["flags"].(map[string]any); ok {
		m.Flags = Flags{
			Gibberish:       asBool(flags["gibberish"]),
			OffTopic:        asBool(flags["off_topic"]),
			DontKnow:        asBool(flags["dont_know"]),
			PolicyViolation: asBool(flags["policy_violation"]),
		}
	}

	if notes, ok := obj["notes"].(string); ok {
		m.Notes = truncate(strings.TrimSpace(notes), maxNotesLen)
	}

	// Hard cap: a disqualifying flag always overrides the numeric score.
	if m.Flags.Any() {
		m.Overall = 0
	}

	m.TechnicalCorrectness = round1(m.TechnicalCorrectness)
	m.Clarity = round1(m.Clarity)
	m.Completeness = round1(m.Completeness)
	m.Tone = round1(m.Tone)
	m.Overall = round1(m.Overall)

	return m
}

// parseObject tries a direct parse first, then a second-chance parse of the
// first-{ to last-} substring for models that wrap JSON in prose. Failures
// yield an empty object.
func parseObject(raw string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return obj
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err == nil {
			return obj
		}
	}
	return map[string]any{}
}

func clampScore(v any) float64 {
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		x = parsed
	case bool:
		if n {
			x = 1
		}
	default:
		return 0
	}
	if math.IsNaN(x) {
		return 0
	}
	return math.Min(10, math.Max(0, x))
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	default:
		return false
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
