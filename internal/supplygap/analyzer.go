// Package supplygap computes per-category demand/supply pressure used to
// re-rank acquisition priority, and matches listings against open buyer
// bounties.
package supplygap

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// Config holds the supply-gap tunables.
type Config struct {
	// BountyBoost is added to a category's gap score once per open
	// bounty. It is sized to dominate any achievable base score:
	// bounties are confirmed buyer demand, not a statistical signal.
	BountyBoost float64

	// UrgentThreshold flags a category urgent above this score.
	UrgentThreshold float64

	// DemandWindow bounds how far back demand events count.
	DemandWindow time.Duration

	// ProfitFactors multiplies the base score for categories known to
	// carry higher margin. Unlisted categories use 1.
	ProfitFactors map[domain.Category]float64
}

// CategoryGap is the computed pressure for one category.
type CategoryGap struct {
	Category     domain.Category
	Demand       int // search-abandoned events in the window
	Supply       int // active inventory count
	OpenBounties int
	Score        float64
	Urgent       bool
}

// Analyzer computes supply gaps from the catalog, demand events and
// bounties.
type Analyzer struct {
	catalog  storage.CatalogStore
	demand   storage.DemandEventStore
	bounties storage.BountyStore
	cfg      Config
	now      func() time.Time
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(catalog storage.CatalogStore, demand storage.DemandEventStore, bounties storage.BountyStore, cfg Config) *Analyzer {
	return &Analyzer{
		catalog:  catalog,
		demand:   demand,
		bounties: bounties,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock overrides the time source for deterministic tests.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze computes gap scores for every taxonomy category, highest
// first. Score = ((demand+1)/(supply+1)) * profitFactor * 10, plus the
// bounty boost per open bounty in the category.
func (a *Analyzer) Analyze(ctx context.Context) ([]CategoryGap, error) {
	since := a.now().Add(-a.cfg.DemandWindow).UnixMilli()
	demand, err := a.demand.CountByCategorySince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count demand events: %w", err)
	}

	supply, err := a.catalog.CountActiveByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count inventory: %w", err)
	}

	open, err := a.bounties.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bounties: %w", err)
	}
	bountyCount := make(map[domain.Category]int)
	for _, b := range open {
		bountyCount[b.Category]++
	}

	gaps := make([]CategoryGap, 0, len(domain.AllCategories()))
	for _, cat := range domain.AllCategories() {
		g := CategoryGap{
			Category:     cat,
			Demand:       demand[cat],
			Supply:       supply[cat],
			OpenBounties: bountyCount[cat],
		}
		g.Score = a.GapScore(cat, g.Demand, g.Supply) + float64(g.OpenBounties)*a.cfg.BountyBoost
		g.Urgent = g.Score >= a.cfg.UrgentThreshold
		gaps = append(gaps, g)
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Score != gaps[j].Score {
			return gaps[i].Score > gaps[j].Score
		}
		return gaps[i].Category < gaps[j].Category
	})

	return gaps, nil
}

// GapScore computes the bounty-free base score for one category.
// The +1 smoothing keeps empty categories finite and still ranks an
// empty-supply category above a stocked one.
func (a *Analyzer) GapScore(cat domain.Category, demand, supply int) float64 {
	factor := 1.0
	if f, ok := a.cfg.ProfitFactors[cat]; ok && f > 0 {
		factor = f
	}
	return float64(demand+1) / float64(supply+1) * factor * 10
}
