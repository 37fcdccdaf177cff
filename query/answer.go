package query

import (
	"encoding/json"
	"strconv"
	"strings"
)

// answer is the model's structured reply.
type answer struct {
	Summary    string
	Confidence string
	Citations  []int // 1-based evidence numbers
}

type rawAnswer struct {
	Summary    string            `json:"summary"`
	Confidence json.RawMessage   `json:"confidence"`
	Citations  []json.RawMessage `json:"citations"`
}

// parseAnswer decodes a JSON reply. Replies that are not JSON objects with a
// summary become the summary verbatim.
func parseAnswer(reply string) answer {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = repairJSON(cleaned)

	var raw rawAnswer
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil || strings.TrimSpace(raw.Summary) == "" {
		return answer{Summary: strings.TrimSpace(reply)}
	}

	a := answer{
		Summary:    strings.TrimSpace(raw.Summary),
		Confidence: confidenceLevel(raw.Confidence),
	}
	for _, c := range raw.Citations {
		if n, ok := citationNumber(c); ok {
			a.Citations = append(a.Citations, n)
		}
	}
	return a
}

// confidenceLevel maps a textual or numeric confidence to high, medium or low.
func confidenceLevel(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case "high", "medium", "low":
			return s
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ""
		}
		return bucket(f)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return bucket(f)
	}
	return ""
}

func bucket(f float64) string {
	switch {
	case f >= 0.75:
		return "high"
	case f >= 0.4:
		return "medium"
	default:
		return "low"
	}
}

// citationNumber accepts 2, "2" or "[2]".
func citationNumber(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.Trim(s, "[] "))
	if err != nil {
		return 0, false
	}
	return n, true
}
