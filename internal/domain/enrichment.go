package domain

// ComponentValue is a tagged enrichment field. Replaced marks values the
// normalizer substituted for unreadable or missing source text, so
// downstream consumers can tell original data from repairs.
type ComponentValue struct {
	Raw      string `json:"raw"`
	Replaced bool   `json:"replaced"`
}

// EnrichedRecord is the structured output of the enrichment gateway for
// one candidate. Component fields use ComponentValue rather than bare
// strings so that replacement is explicit instead of duck-typed.
type EnrichedRecord struct {
	Brand    ComponentValue `json:"brand"`
	Model    ComponentValue `json:"model"`
	Year     *int           `json:"year,omitempty"`
	Size     ComponentValue `json:"size"`
	Grade    Grade          `json:"grade"`
	Category Category       `json:"category"`

	// Fallback marks records synthesized locally after the gateway
	// returned an unparseable response.
	Fallback bool `json:"fallback,omitempty"`
}
