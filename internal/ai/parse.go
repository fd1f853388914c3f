package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAssessment coerces oracle output into an Assessment. Output that is not
// a JSON object yields a degraded assessment carrying the raw text; it never
// fails.
func ParseAssessment(raw string) *Assessment {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil || data == nil {
		return &Assessment{
			Score:         0,
			Justification: raw,
			Matches:       []string{},
			Degraded:      true,
			Raw:           raw,
		}
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = 0
	}

	return &Assessment{
		Score:          score,
		Justification:  coerceString(data["justification"]),
		Matches:        coerceStrings(data["matches"]),
		Recommendation: coerceString(data["recommendation"]),
		Raw:            raw,
	}
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStrings(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
		return []string{}
	default:
		return []string{}
	}
}
