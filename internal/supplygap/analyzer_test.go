package supplygap

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage/memory"
)

func strPtr(v string) *string               { return &v }
func f64Ptr(v float64) *float64             { return &v }
func gradePtr(g domain.Grade) *domain.Grade { return &g }

func testConfig() Config {
	return Config{
		BountyBoost:     50,
		UrgentThreshold: 25,
		DemandWindow:    7 * 24 * time.Hour,
		ProfitFactors: map[domain.Category]float64{
			domain.CategoryEMTB: 1.4,
		},
	}
}

func newTestAnalyzer(t *testing.T) (*Analyzer, *memory.CatalogStore, *memory.DemandEventStore, *memory.BountyStore) {
	t.Helper()
	catalog := memory.NewCatalogStore()
	demand := memory.NewDemandEventStore()
	bounties := memory.NewBountyStore()
	a := NewAnalyzer(catalog, demand, bounties, testConfig())
	return a, catalog, demand, bounties
}

func TestGapScore_DemandOverSupply(t *testing.T) {
	a, _, _, _ := newTestAnalyzer(t)

	// 9 demand events against 1 gravel bike in stock: (9+1)/(1+1)*10 = 50.
	if got := a.GapScore(domain.CategoryGravel, 9, 1); got != 50 {
		t.Errorf("expected gap 50, got %v", got)
	}
	// Empty category with zero demand still scores 10, never divides by
	// zero.
	if got := a.GapScore(domain.CategoryRoad, 0, 0); got != 10 {
		t.Errorf("expected baseline gap 10, got %v", got)
	}
}

func TestGapScore_ProfitFactorForEBikes(t *testing.T) {
	a, _, _, _ := newTestAnalyzer(t)

	base := a.GapScore(domain.CategoryMTB, 4, 4)
	boosted := a.GapScore(domain.CategoryEMTB, 4, 4)
	if math.Abs(boosted-base*1.4) > 1e-9 {
		t.Errorf("expected e-MTB gap %v, got %v", base*1.4, boosted)
	}
}

func TestAnalyze_RanksStarvedCategoriesFirst(t *testing.T) {
	a, catalog, demand, _ := newTestAnalyzer(t)
	ctx := context.Background()
	now := time.Now()
	a.WithClock(func() time.Time { return now })

	// Gravel: heavy demand, nothing in stock. MTB: some demand, well
	// stocked.
	for i := 0; i < 8; i++ {
		if err := demand.Insert(ctx, &domain.DemandEvent{
			Category:   domain.CategoryGravel,
			Query:      "gravel 54",
			ObservedAt: now.Add(-time.Hour).UnixMilli(),
		}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 6; i++ {
		if err := catalog.Upsert(ctx, &domain.CatalogEntry{
			EntryID:   fmt.Sprintf("mtb-%d", i),
			SourceURL: fmt.Sprintf("https://m.example/mtb-%d", i),
			Category:  domain.CategoryMTB,
			IsActive:  true,
		}); err != nil {
			t.Fatal(err)
		}
	}

	gaps, err := a.Analyze(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(gaps) != len(domain.AllCategories()) {
		t.Fatalf("expected a gap per category, got %d", len(gaps))
	}
	if gaps[0].Category != domain.CategoryGravel {
		t.Errorf("expected gravel ranked first, got %s", gaps[0].Category)
	}
	// (8+1)/(0+1)*10 = 90, over the urgent threshold.
	if gaps[0].Score != 90 || !gaps[0].Urgent {
		t.Errorf("expected urgent gravel gap 90, got %v (urgent=%t)", gaps[0].Score, gaps[0].Urgent)
	}
}

func TestAnalyze_DemandWindowExcludesOldEvents(t *testing.T) {
	a, _, demand, _ := newTestAnalyzer(t)
	ctx := context.Background()
	now := time.Now()
	a.WithClock(func() time.Time { return now })

	if err := demand.Insert(ctx, &domain.DemandEvent{
		Category:   domain.CategoryRoad,
		Query:      "aero road",
		ObservedAt: now.Add(-30 * 24 * time.Hour).UnixMilli(),
	}); err != nil {
		t.Fatal(err)
	}

	gaps, err := a.Analyze(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range gaps {
		if g.Category == domain.CategoryRoad && g.Demand != 0 {
			t.Errorf("expected month-old event outside window, got demand %d", g.Demand)
		}
	}
}

func TestAnalyze_BountyBoostDominates(t *testing.T) {
	a, _, _, bounties := newTestAnalyzer(t)
	ctx := context.Background()

	if err := bounties.Insert(ctx, &domain.Bounty{
		BountyID: "b-1",
		Category: domain.CategoryKids,
		IsOpen:   true,
	}); err != nil {
		t.Fatal(err)
	}

	gaps, err := a.Analyze(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if gaps[0].Category != domain.CategoryKids {
		t.Errorf("expected kids ranked first on bounty, got %s", gaps[0].Category)
	}
	// Baseline 10 plus one 50-point bounty boost.
	if gaps[0].Score != 60 || !gaps[0].Urgent {
		t.Errorf("expected urgent score 60, got %v (urgent=%t)", gaps[0].Score, gaps[0].Urgent)
	}
}

func TestMatchesBounty_CategoryOnlyMatchesWholeCategory(t *testing.T) {
	b := &domain.Bounty{BountyID: "b-1", Category: domain.CategoryGravel, IsOpen: true}

	listings := []Listing{
		{Category: domain.CategoryGravel, Brand: "Canyon", Model: "Grizl", Price: f64Ptr(1900)},
		{Category: domain.CategoryGravel},
		{Category: domain.CategoryGravel, Brand: "NoName", Price: f64Ptr(120000)},
	}
	for i, l := range listings {
		if !MatchesBounty(b, l) {
			t.Errorf("listing %d: category-only bounty must match any gravel listing", i)
		}
	}
	if MatchesBounty(b, Listing{Category: domain.CategoryRoad, Brand: "Canyon"}) {
		t.Error("category-only bounty matched a different category")
	}
}

func TestMatchesBounty_AllConstraints(t *testing.T) {
	b := &domain.Bounty{
		BountyID: "b-2",
		Category: domain.CategoryMTB,
		Brand:    strPtr("santa cruz"),
		Size:     strPtr("L"),
		MaxPrice: f64Ptr(3000),
		MinGrade: gradePtr(domain.GradeB),
		IsOpen:   true,
	}

	good := Listing{
		Category: domain.CategoryMTB,
		Brand:    "Santa Cruz",
		Model:    "Hightower",
		Size:     strPtr("L"),
		Price:    f64Ptr(2800),
		Grade:    gradePtr(domain.GradeA),
	}
	if !MatchesBounty(b, good) {
		t.Error("expected full-constraint match")
	}

	overpriced := good
	overpriced.Price = f64Ptr(3200)
	if MatchesBounty(b, overpriced) {
		t.Error("matched above the price ceiling")
	}

	wrongSize := good
	wrongSize.Size = strPtr("S")
	if MatchesBounty(b, wrongSize) {
		t.Error("matched with wrong size")
	}

	tooRough := good
	tooRough.Grade = gradePtr(domain.GradeC)
	if MatchesBounty(b, tooRough) {
		t.Error("matched below the minimum grade")
	}

	wrongBrand := good
	wrongBrand.Brand = "Trek"
	if MatchesBounty(b, wrongBrand) {
		t.Error("matched a non-substring brand")
	}
}

func TestMatchesBounty_MissingListingDataNeverBlocks(t *testing.T) {
	b := &domain.Bounty{
		BountyID: "b-3",
		Category: domain.CategoryMTB,
		Brand:    strPtr("Cube"),
		Size:     strPtr("M"),
		MaxPrice: f64Ptr(1500),
		MinGrade: gradePtr(domain.GradeA),
		IsOpen:   true,
	}

	// A pre-enrichment candidate has no size or grade yet; the bounty's
	// size and grade constraints must not reject it.
	c := &domain.Candidate{
		SourceURL: "https://m.example/cube-1",
		Brand:     "Cube",
		Model:     "Stereo 140",
		Price:     1400,
	}
	if !MatchesBounty(b, ListingFromCandidate(c, domain.CategoryMTB)) {
		t.Error("missing size/grade data blocked the match")
	}
}

func TestMatchOpen_FiltersToSatisfiedBounties(t *testing.T) {
	open := []*domain.Bounty{
		{BountyID: "b-1", Category: domain.CategoryMTB, IsOpen: true},
		{BountyID: "b-2", Category: domain.CategoryMTB, MaxPrice: f64Ptr(1000), IsOpen: true},
		{BountyID: "b-3", Category: domain.CategoryRoad, IsOpen: true},
	}

	l := Listing{Category: domain.CategoryMTB, Brand: "Ghost", Price: f64Ptr(1800)}
	matched := MatchOpen(open, l)
	if len(matched) != 1 || matched[0].BountyID != "b-1" {
		t.Errorf("expected only b-1 to match, got %v", matched)
	}
}
