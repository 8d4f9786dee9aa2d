// Package diversity selects a category-balanced acquisition batch from a
// scored candidate pool. A pure greedy pick would fill the batch with
// whatever category happens to be cheap that week; fixed ratios keep the
// catalog sellable across disciplines.
package diversity

import (
	"sort"

	"bike-curation/internal/classify"
	"bike-curation/internal/domain"
)

// DefaultRatios is the target catalog mix.
var DefaultRatios = map[domain.Category]float64{
	domain.CategoryMTB:    0.45,
	domain.CategoryGravel: 0.25,
	domain.CategoryRoad:   0.20,
	domain.CategoryEMTB:   0.08,
	domain.CategoryKids:   0.02,
}

// Pick is one selected candidate with its assigned category.
type Pick struct {
	Candidate *domain.Candidate
	Category  domain.Category

	// Overflow marks picks made outside the quota table because some
	// category lacked eligible candidates and the slot was backfilled
	// by score.
	Overflow bool
}

// Manager selects bounded category-balanced batches.
type Manager struct {
	classifier classify.Classifier
	ratios     map[domain.Category]float64
}

// NewManager creates a Manager with the given classifier and ratio
// table. Nil ratios fall back to DefaultRatios.
func NewManager(classifier classify.Classifier, ratios map[domain.Category]float64) *Manager {
	if ratios == nil {
		ratios = DefaultRatios
	}
	return &Manager{classifier: classifier, ratios: ratios}
}

// SelectBatch picks up to n candidates from the desirability-sorted pool
// (best first). Quotas come from largest-remainder apportionment of the
// ratio table; one pass assigns candidates to unfilled category buckets,
// then leftover slots are backfilled with the best remaining candidates
// regardless of category. Always returns exactly min(n, len(pool))
// picks.
func (m *Manager) SelectBatch(pool []*domain.Candidate, n int) []Pick {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}

	quotas := Apportion(m.ratios, n)

	picks := make([]Pick, 0, n)
	taken := make(map[int]bool, n)

	// Pass 1: fill category quotas in score order.
	for i, c := range pool {
		if len(picks) == n {
			break
		}
		var catText string
		if c.Category != nil {
			catText = *c.Category
		}
		cat := m.classifier.Classify(c.Title, catText)
		if quotas[cat] <= 0 {
			continue
		}
		quotas[cat]--
		taken[i] = true
		picks = append(picks, Pick{Candidate: c, Category: cat})
	}

	// Pass 2: backfill unfilled slots with the next best candidates.
	for i, c := range pool {
		if len(picks) == n {
			break
		}
		if taken[i] {
			continue
		}
		var catText string
		if c.Category != nil {
			catText = *c.Category
		}
		picks = append(picks, Pick{
			Candidate: c,
			Category:  m.classifier.Classify(c.Title, catText),
			Overflow:  true,
		})
	}

	return picks
}

// Apportion converts fractional ratios into integer quotas summing
// exactly to n using the largest-remainder method. Floors are assigned
// first; the leftover slots go to the largest fractional remainders,
// ties broken by category name for determinism.
func Apportion(ratios map[domain.Category]float64, n int) map[domain.Category]int {
	type share struct {
		cat       domain.Category
		floor     int
		remainder float64
	}

	shares := make([]share, 0, len(ratios))
	assigned := 0
	for cat, ratio := range ratios {
		exact := ratio * float64(n)
		floor := int(exact)
		shares = append(shares, share{cat: cat, floor: floor, remainder: exact - float64(floor)})
		assigned += floor
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].remainder != shares[j].remainder {
			return shares[i].remainder > shares[j].remainder
		}
		return shares[i].cat < shares[j].cat
	})

	quotas := make(map[domain.Category]int, len(shares))
	for _, s := range shares {
		quotas[s.cat] = s.floor
	}
	for i := 0; assigned < n && i < len(shares); i++ {
		quotas[shares[i].cat]++
		assigned++
	}

	return quotas
}
