package supplygap

import (
	"strings"

	"bike-curation/internal/domain"
)

// Listing is the bounty-matching view of a bike. Both fresh candidates
// and owned inventory reduce to this shape; nil fields mean the source
// had no data for that attribute.
type Listing struct {
	Category domain.Category
	Brand    string
	Model    string
	Size     *string
	Price    *float64
	Grade    *domain.Grade
}

// ListingFromEntry builds the matching view of an owned catalog entry.
func ListingFromEntry(e *domain.CatalogEntry) Listing {
	price := e.Price
	grade := e.Grade
	return Listing{
		Category: e.Category,
		Brand:    e.Brand,
		Model:    e.Model,
		Price:    &price,
		Grade:    &grade,
	}
}

// ListingFromCandidate builds the matching view of a fresh candidate.
// Candidates carry no grade or size yet; those constraints cannot block
// a match before enrichment.
func ListingFromCandidate(c *domain.Candidate, cat domain.Category) Listing {
	price := c.Price
	return Listing{
		Category: cat,
		Brand:    c.Brand,
		Model:    c.Model,
		Price:    &price,
	}
}

// MatchesBounty reports whether the listing satisfies every constraint
// the bounty sets. Category must agree; every other constraint applies
// only when both the bounty sets it and the listing has data for it, so
// missing listing data never blocks a match.
func MatchesBounty(b *domain.Bounty, l Listing) bool {
	if b.Category != l.Category {
		return false
	}
	if b.Brand != nil && l.Brand != "" && !containsFold(l.Brand, *b.Brand) {
		return false
	}
	if b.Model != nil && l.Model != "" && !containsFold(l.Model, *b.Model) {
		return false
	}
	if b.Size != nil && l.Size != nil && !strings.EqualFold(*l.Size, *b.Size) {
		return false
	}
	if b.MaxPrice != nil && l.Price != nil && *l.Price > *b.MaxPrice {
		return false
	}
	if b.MinGrade != nil && l.Grade != nil && !l.Grade.AtLeast(*b.MinGrade) {
		return false
	}
	return true
}

// MatchOpen filters the given bounties down to those the listing
// satisfies.
func MatchOpen(bounties []*domain.Bounty, l Listing) []*domain.Bounty {
	var matched []*domain.Bounty
	for _, b := range bounties {
		if MatchesBounty(b, l) {
			matched = append(matched, b)
		}
	}
	return matched
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
