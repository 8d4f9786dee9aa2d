// Package enrichment normalizes raw marketplace candidates into
// structured catalog records. The actual normalization model sits behind
// the TextClient boundary; this package owns payload parsing, bounded
// repair of malformed responses and the synthesized fallback record.
package enrichment

import (
	"context"
	"errors"
	"fmt"

	"bike-curation/internal/domain"
)

// ErrUnparseable is returned when a normalization response could not be
// decoded even after the repair ladder. Callers degrade to Synthesize
// instead of dropping the candidate.
var ErrUnparseable = errors.New("enrichment: unparseable response")

// Gateway normalizes one candidate into a structured record with a
// confidence estimate in [0, 1].
type Gateway interface {
	Enrich(ctx context.Context, c *domain.Candidate) (*domain.EnrichedRecord, float64, error)
}

// TextClient is the raw normalization call. Implementations wrap a
// remote model endpoint and return its response text verbatim.
type TextClient interface {
	Normalize(ctx context.Context, c *domain.Candidate) (string, error)
}

// payload is the wire shape of a normalization response.
type payload struct {
	domain.EnrichedRecord
	Confidence float64 `json:"confidence"`
}

// Service is the Gateway implementation over a TextClient.
type Service struct {
	client TextClient
}

// NewService creates a Service over the given client.
func NewService(client TextClient) *Service {
	return &Service{client: client}
}

// Enrich requests normalization and decodes the response, repairing
// malformed payloads where possible. Transport errors come back wrapped;
// undecodable responses come back as ErrUnparseable.
func (s *Service) Enrich(ctx context.Context, c *domain.Candidate) (*domain.EnrichedRecord, float64, error) {
	raw, err := s.client.Normalize(ctx, c)
	if err != nil {
		return nil, 0, fmt.Errorf("normalize %s: %w", c.SourceURL, err)
	}
	return ParsePayload(raw)
}

var _ Gateway = (*Service)(nil)

// Synthesize builds the minimal fallback record for a candidate whose
// normalization response stayed unparseable. Every field the candidate
// itself could not supply is marked replaced, the grade is pessimistic
// and the record carries the fallback flag so quality reviews can find
// it later.
func Synthesize(c *domain.Candidate, cat domain.Category) *domain.EnrichedRecord {
	return &domain.EnrichedRecord{
		Brand:    componentFrom(c.Brand),
		Model:    componentFrom(c.Model),
		Year:     c.Year,
		Size:     domain.ComponentValue{Raw: "unknown", Replaced: true},
		Grade:    domain.GradeC,
		Category: cat,
		Fallback: true,
	}
}

func componentFrom(raw string) domain.ComponentValue {
	if raw == "" {
		return domain.ComponentValue{Raw: "unknown", Replaced: true}
	}
	return domain.ComponentValue{Raw: raw}
}
