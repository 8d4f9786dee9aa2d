package acquisition

import (
	"context"
	"fmt"
	"math/rand"

	"bike-curation/internal/diversity"
	"bike-curation/internal/domain"
	"bike-curation/internal/supplygap"
)

// categorySearchKeywords maps each taxonomy category to the marketplace
// search terms its strategies query with.
var categorySearchKeywords = map[domain.Category][]string{
	domain.CategoryMTB:    {"mtb", "mountainbike", "hardtail", "fully", "enduro"},
	domain.CategoryGravel: {"gravel", "cyclocross", "allroad"},
	domain.CategoryRoad:   {"road bike", "rennrad", "racefiets", "aero"},
	domain.CategoryEMTB:   {"e-mtb", "e-bike", "pedelec"},
	domain.CategoryKids:   {"kids", "kinder", "junior"},
}

// CuratedBrands is the default brand allow-list: brands with proven
// resale demand. Candidates outside it are rejected at the curating
// stage.
var CuratedBrands = []string{
	"specialized", "trek", "canyon", "santa cruz", "yeti", "cube", "scott",
	"orbea", "giant", "cannondale", "ghost", "focus", "merida", "radon",
	"rose", "bianchi",
}

// PlannerConfig holds strategy-derivation tunables.
type PlannerConfig struct {
	// Price bounds applied to every derived strategy.
	PriceMin float64
	PriceMax float64

	// StrategyQuota caps acquisitions per brand-targeted strategy.
	StrategyQuota int

	// BrandsPerCategory is how many randomly sampled brand-targeted
	// strategies each category gets next to its catch-all.
	BrandsPerCategory int

	// Ratios is the target catalog mix driving per-category quotas.
	// Nil falls back to diversity.DefaultRatios.
	Ratios map[domain.Category]float64
}

// Planner derives the strategy queue for one acquisition run. Category
// quotas come from apportioning the run target over the catalog mix;
// priorities come from supply-gap pressure, jittered so consecutive runs
// vary their acquisition order.
type Planner struct {
	analyzer *supplygap.Analyzer
	cfg      PlannerConfig
	rng      *rand.Rand
}

// NewPlanner creates a Planner. A zero seed derives one from the global
// source.
func NewPlanner(analyzer *supplygap.Analyzer, cfg PlannerConfig, seed int64) *Planner {
	if cfg.StrategyQuota <= 0 {
		cfg.StrategyQuota = 2
	}
	if cfg.BrandsPerCategory <= 0 {
		cfg.BrandsPerCategory = 2
	}
	if cfg.Ratios == nil {
		cfg.Ratios = diversity.DefaultRatios
	}
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Planner{analyzer: analyzer, cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Plan builds the priority-ordered strategy queue for a run targeting
// target acquisitions.
func (p *Planner) Plan(ctx context.Context, target int) (*StrategyQueue, error) {
	gaps, err := p.analyzer.Analyze(ctx)
	if err != nil {
		return nil, fmt.Errorf("supply gap analysis: %w", err)
	}

	quotas := diversity.Apportion(p.cfg.Ratios, target)

	var strategies []*domain.Strategy
	for _, gap := range gaps {
		quota := quotas[gap.Category]
		if quota == 0 {
			if !gap.Urgent {
				continue
			}
			// An urgent category gets a slot even when the mix table
			// rounded it out of the run.
			quota = 1
		}

		priority := int(gap.Score)
		if priority < domain.MinStrategyPriority {
			priority = domain.MinStrategyPriority
		}

		for _, brand := range p.sampleBrands() {
			strategies = append(strategies, &domain.Strategy{
				Category: gap.Category,
				Brand:    brand,
				PriceMin: p.cfg.PriceMin,
				PriceMax: p.cfg.PriceMax,
				Priority: priority + p.rng.Intn(5),
				Quota:    min(p.cfg.StrategyQuota, quota),
			})
		}

		// Catch-all strategy carries the full category quota at slightly
		// lower priority than the brand-targeted ones.
		strategies = append(strategies, &domain.Strategy{
			Category: gap.Category,
			PriceMin: p.cfg.PriceMin,
			PriceMax: p.cfg.PriceMax,
			Priority: priority,
			Quota:    quota,
		})
	}

	return NewStrategyQueue(strategies), nil
}

func (p *Planner) sampleBrands() []string {
	n := p.cfg.BrandsPerCategory
	if n > len(CuratedBrands) {
		n = len(CuratedBrands)
	}
	picks := p.rng.Perm(len(CuratedBrands))[:n]
	brands := make([]string, 0, n)
	for _, i := range picks {
		brands = append(brands, CuratedBrands[i])
	}
	return brands
}
