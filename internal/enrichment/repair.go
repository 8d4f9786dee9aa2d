package enrichment

import (
	"encoding/json"
	"regexp"
	"strings"

	"bike-curation/internal/domain"
)

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// ParsePayload decodes a normalization response into a record and
// confidence. Malformed input goes through a bounded repair ladder
// first: strip markdown code fences, trim to the outermost brace pair,
// strip trailing commas. Input that survives none of the stages returns
// ErrUnparseable.
func ParsePayload(raw string) (*domain.EnrichedRecord, float64, error) {
	stage := raw
	for _, repair := range []func(string) string{
		func(s string) string { return s },
		stripFences,
		trimToBraces,
		stripTrailingCommas,
	} {
		stage = repair(stage)
		if rec, conf, ok := decode(stage); ok {
			return rec, conf, nil
		}
	}
	return nil, 0, ErrUnparseable
}

func decode(s string) (*domain.EnrichedRecord, float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, 0, false
	}
	// Confidence defaults to full when the field is absent; a record the
	// model returned without hedging should not be gated out.
	p := payload{Confidence: 1}
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, 0, false
	}
	rec := p.EnrichedRecord
	if rec.Grade != domain.GradeA && rec.Grade != domain.GradeB && rec.Grade != domain.GradeC {
		rec.Grade = domain.GradeC
	}
	return &rec, clampConfidence(p.Confidence), true
}

// stripFences drops markdown code-fence lines wrapping the payload,
// including a leading language tag like ```json.
func stripFences(s string) string {
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			// A fence opener can carry the payload on the same line, as
			// in "```json {...}".
			rest := strings.TrimPrefix(trimmed, "```")
			rest = strings.TrimSpace(strings.TrimPrefix(rest, "json"))
			if rest != "" {
				kept = append(kept, rest)
			}
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// trimToBraces cuts the input down to the outermost brace pair,
// discarding any prose the model wrapped around the JSON object. Input
// without a complete pair is returned unchanged for the next stage.
func trimToBraces(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return s
	}
	return s[start : end+1]
}

func stripTrailingCommas(s string) string {
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
