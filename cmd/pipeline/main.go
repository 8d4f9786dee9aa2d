// Package main provides a one-shot pipeline run against in-memory
// stores with fixture data: supply-gap analysis → strategy planning →
// acquisition → catalog summary. Enrichment is served by a local
// normalizer so the run needs no network.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bike-curation/internal/acquisition"
	"bike-curation/internal/classify"
	"bike-curation/internal/diversity"
	"bike-curation/internal/domain"
	"bike-curation/internal/enrichment"
	"bike-curation/internal/profit"
	"bike-curation/internal/scoring"
	"bike-curation/internal/storage"
	"bike-curation/internal/storage/memory"
	"bike-curation/internal/supplygap"
)

func main() {
	target := flag.Int("target", 5, "Number of catalog entries to acquire")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling pipeline...\n", sig)
		cancel()
	}()

	stores := createAllMemoryStores()
	if err := loadFixtureData(ctx, stores); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
		os.Exit(1)
	}

	classifier := classify.NewKeywordClassifier()
	calculator := profit.NewCalculator(stores.comparableStore, profit.Config{
		NegotiationPremium: 50,
		FlatMarginRate:     0.20,
		MinComparables:     3,
	})
	scorer := scoring.NewService(scoring.Config{
		SweetSpotLow:         800,
		SweetSpotHigh:        2500,
		SweetSpotFloorLow:    300,
		SweetSpotCeilHigh:    5000,
		FreshnessGraceDays:   14,
		FreshnessMaxPenalty:  2,
		FreshnessDaysPerStep: 30,
	})
	analyzer := supplygap.NewAnalyzer(stores.catalogStore, stores.demandStore, stores.bountyStore, supplygap.Config{
		BountyBoost:     50,
		UrgentThreshold: 25,
		DemandWindow:    7 * 24 * time.Hour,
		ProfitFactors:   map[domain.Category]float64{domain.CategoryEMTB: 1.4},
	})

	// Phase 1: Supply-gap report
	fmt.Println("=== Supply Gaps ===")
	gaps, err := analyzer.Analyze(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analyzer error: %v\n", err)
		os.Exit(1)
	}
	for _, g := range gaps {
		urgency := ""
		if g.Urgent {
			urgency = "  URGENT"
		}
		fmt.Printf("  %-7s demand=%d supply=%d bounties=%d score=%.1f%s\n",
			g.Category, g.Demand, g.Supply, g.OpenBounties, g.Score, urgency)
	}

	// Phase 2: Diversity preview of the raw candidate pool
	fmt.Println("\n=== Balanced Batch Preview ===")
	pool, err := stores.candidateStore.Query(ctx, storage.CandidateFilter{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query error: %v\n", err)
		os.Exit(1)
	}
	picks := diversity.NewManager(classifier, nil).SelectBatch(pool, *target)
	for _, p := range picks {
		overflow := ""
		if p.Overflow {
			overflow = " (overflow)"
		}
		fmt.Printf("  %-7s %s%s\n", p.Category, p.Candidate.Title, overflow)
	}

	// Phase 3: Acquisition run
	fmt.Println("\n=== Acquisition ===")
	orch := acquisition.New(acquisition.Options{
		CandidateStore: stores.candidateStore,
		CatalogStore:   stores.catalogStore,
		BountyStore:    stores.bountyStore,
		Planner: acquisition.NewPlanner(analyzer, acquisition.PlannerConfig{
			PriceMin:      300,
			PriceMax:      5000,
			StrategyQuota: 2,
		}, 0),
		Calculator:    calculator,
		Scorer:        scorer,
		Classifier:    classifier,
		Gateway:       enrichment.NewService(localNormalizer{}),
		MinConfidence: 0.6,
		MinYear:       2015,
		Verbose:       *verbose,
	})

	result, err := orch.Run(ctx, *target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Orchestrator error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Acquisition completed:\n")
	fmt.Printf("  Strategies: %d planned, %d run\n", result.StrategiesPlanned, result.StrategiesRun)
	fmt.Printf("  Candidates fetched: %d\n", result.CandidatesFetched)
	fmt.Printf("  Committed: %d (%d fallback)\n", result.Committed, result.FallbackCommits)
	fmt.Printf("  Bounty matches: %d\n", result.BountyMatches)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	// Phase 4: Catalog summary
	fmt.Println("\n=== Catalog ===")
	entries, err := stores.catalogStore.ListStaleActive(ctx, nil, *target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catalog error: %v\n", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Printf("  %-7s %s %s  %.0f %s  grade=%s score=%.1f tier=%s\n",
			e.Category, e.Brand, e.Model, e.Price, e.Currency, e.Grade, e.Score, e.Tier)
	}
}

// localNormalizer structures listings from fields already present on
// the candidate, standing in for the model endpoint.
type localNormalizer struct{}

func (localNormalizer) Normalize(_ context.Context, cand *domain.Candidate) (string, error) {
	year := ""
	if cand.Year != nil {
		year = fmt.Sprintf(`"year": %d, `, *cand.Year)
	}
	return fmt.Sprintf(
		`{"brand": {"raw": %q}, "model": {"raw": %q}, %s"size": {"raw": "M"}, "grade": "B", "confidence": 0.9}`,
		cand.Brand, cand.Model, year), nil
}

// allStores holds all memory stores.
type allStores struct {
	candidateStore  storage.CandidateStore
	catalogStore    storage.CatalogStore
	comparableStore storage.ComparableStore
	bountyStore     storage.BountyStore
	demandStore     storage.DemandEventStore
}

// createAllMemoryStores creates all required memory stores.
func createAllMemoryStores() *allStores {
	catalog := memory.NewCatalogStore()
	return &allStores{
		candidateStore:  memory.NewCandidateStore(catalog),
		catalogStore:    catalog,
		comparableStore: memory.NewComparableStore(),
		bountyStore:     memory.NewBountyStore(),
		demandStore:     memory.NewDemandEventStore(),
	}
}

// loadFixtureData seeds a small marketplace snapshot: candidates across
// categories, sale comparables for FMV, one open bounty and a burst of
// abandoned gravel searches.
func loadFixtureData(ctx context.Context, stores *allStores) error {
	now := time.Now().UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)

	candidates := []*domain.Candidate{
		fixtureCandidate("https://marktplaats.example/cube-stereo-140", "Cube", "Stereo 140", "Cube Stereo 140 HPC fully mountainbike", 1400, 2021, now-2*day),
		fixtureCandidate("https://marktplaats.example/trek-fuel-ex8", "Trek", "Fuel EX 8", "Trek Fuel EX 8 enduro mtb", 1900, 2020, now-5*day),
		fixtureCandidate("https://marktplaats.example/canyon-grizl-cf", "Canyon", "Grizl CF SL", "Canyon Grizl CF SL gravel bike", 1700, 2022, now-1*day),
		fixtureCandidate("https://marktplaats.example/specialized-diverge", "Specialized", "Diverge Sport", "Specialized Diverge Sport gravel", 1500, 2021, now-3*day),
		fixtureCandidate("https://marktplaats.example/rose-backroad", "Rose", "Backroad", "Rose Backroad allroad carbon", 1600, 2022, now-4*day),
		fixtureCandidate("https://marktplaats.example/giant-tcr", "Giant", "TCR Advanced 2", "Giant TCR Advanced 2 rennrad", 1100, 2019, now-6*day),
		fixtureCandidate("https://marktplaats.example/cube-stereo-hybrid", "Cube", "Stereo Hybrid 120", "Cube Stereo Hybrid 120 e-mtb pedelec", 2800, 2021, now-2*day),
		// Rejected at curation: no resale demand for the brand.
		fixtureCandidate("https://marktplaats.example/bikestar-24", "Bikestar", "24 Zoll", "Bikestar 24 zoll kinder mtb", 350, 2022, now-1*day),
	}
	for _, c := range candidates {
		if err := stores.candidateStore.Upsert(ctx, c); err != nil {
			return fmt.Errorf("seed candidate %s: %w", c.SourceURL, err)
		}
	}

	// Three sales per model so FMV clears the sample floor.
	sales := map[[2]string][]float64{
		{"Cube", "Stereo 140"}:           {1900, 2000, 2100},
		{"Trek", "Fuel EX 8"}:            {2300, 2400, 2600},
		{"Canyon", "Grizl CF SL"}:        {2100, 2200, 2300},
		{"Specialized", "Diverge Sport"}: {1800, 1900, 2000},
		{"Giant", "TCR Advanced 2"}:      {1400, 1500, 1550},
	}
	var compID int64
	for key, prices := range sales {
		for i, price := range prices {
			compID++
			comp := &domain.Comparable{
				ID:     compID,
				Brand:  key[0],
				Model:  key[1],
				Price:  price,
				SoldAt: now - int64(30+i*10)*day,
			}
			if err := stores.comparableStore.Insert(ctx, comp); err != nil {
				return fmt.Errorf("seed comparable: %w", err)
			}
		}
	}

	// One open bounty: a gravel buyer with a price ceiling.
	maxPrice := 2000.0
	bounty := &domain.Bounty{
		BountyID:  "bounty-gravel-1",
		Category:  domain.CategoryGravel,
		MaxPrice:  &maxPrice,
		IsOpen:    true,
		CreatedAt: now - 10*day,
	}
	if err := stores.bountyStore.Insert(ctx, bounty); err != nil {
		return fmt.Errorf("seed bounty: %w", err)
	}

	// Abandoned gravel searches inside the demand window.
	for i, query := range []string{"gravel 54", "gravel carbon", "cyclocross", "gravel shimano grx"} {
		event := &domain.DemandEvent{
			ID:         int64(i + 1),
			Category:   domain.CategoryGravel,
			Query:      query,
			ObservedAt: now - int64(i+1)*day,
		}
		if err := stores.demandStore.Insert(ctx, event); err != nil {
			return fmt.Errorf("seed demand event: %w", err)
		}
	}

	return nil
}

// fixtureCandidate builds one seeded listing.
func fixtureCandidate(url, brand, model, title string, price float64, year int, scrapedAt int64) *domain.Candidate {
	y := year
	condition := 7.5
	return &domain.Candidate{
		SourceURL:         url,
		Brand:             brand,
		Model:             model,
		Title:             title,
		Price:             price,
		Currency:          "EUR",
		Year:              &y,
		ConditionEstimate: &condition,
		ImageURLs:         []string{strings.TrimSuffix(url, "/") + "/photo-1.jpg"},
		ScrapedAt:         scrapedAt,
		CreatedAt:         scrapedAt,
	}
}
