package diversity

import (
	"fmt"
	"testing"

	"bike-curation/internal/classify"
	"bike-curation/internal/domain"
)

func candidate(title string) *domain.Candidate {
	return &domain.Candidate{SourceURL: "https://m.example/" + title, Title: title}
}

func TestApportion_QuotasSumExactly(t *testing.T) {
	for _, n := range []int{1, 2, 5, 10, 17, 100} {
		quotas := Apportion(DefaultRatios, n)
		sum := 0
		for _, q := range quotas {
			sum += q
		}
		if sum != n {
			t.Errorf("n=%d: quotas sum to %d", n, sum)
		}
	}
}

func TestApportion_LargestRemainderGetsLeftover(t *testing.T) {
	// n=10 over default ratios: MTB 4.5, Gravel 2.5, Road 2.0,
	// eMTB 0.8, Kids 0.2. Floors assign 8; the two leftover slots go to
	// eMTB (.8) then MTB/Gravel (.5 tie, Gravel wins on name).
	quotas := Apportion(DefaultRatios, 10)

	if quotas[domain.CategoryEMTB] != 1 {
		t.Errorf("expected eMTB quota 1, got %d", quotas[domain.CategoryEMTB])
	}
	if quotas[domain.CategoryGravel] != 3 {
		t.Errorf("expected Gravel quota 3, got %d", quotas[domain.CategoryGravel])
	}
	if quotas[domain.CategoryMTB] != 4 {
		t.Errorf("expected MTB quota 4, got %d", quotas[domain.CategoryMTB])
	}
	if quotas[domain.CategoryKids] != 0 {
		t.Errorf("expected Kids quota 0, got %d", quotas[domain.CategoryKids])
	}
}

func TestSelectBatch_ExactSize(t *testing.T) {
	m := NewManager(classify.NewKeywordClassifier(), nil)

	var pool []*domain.Candidate
	for i := 0; i < 20; i++ {
		pool = append(pool, candidate(fmt.Sprintf("mountainbike hardtail %d", i)))
	}

	if got := len(m.SelectBatch(pool, 10)); got != 10 {
		t.Errorf("expected 10 picks, got %d", got)
	}
	// Fewer candidates than requested: return them all.
	if got := len(m.SelectBatch(pool[:4], 10)); got != 4 {
		t.Errorf("expected 4 picks from pool of 4, got %d", got)
	}
	if got := m.SelectBatch(nil, 10); got != nil {
		t.Errorf("expected nil picks from empty pool, got %v", got)
	}
}

func TestSelectBatch_RespectsQuotas(t *testing.T) {
	m := NewManager(classify.NewKeywordClassifier(), nil)

	// Plenty of every category; quotas must hold without backfill.
	var pool []*domain.Candidate
	for i := 0; i < 10; i++ {
		pool = append(pool,
			candidate(fmt.Sprintf("mountainbike %d", i)),
			candidate(fmt.Sprintf("gravel bike %d", i)),
			candidate(fmt.Sprintf("road bike aero %d", i)),
			candidate(fmt.Sprintf("e-bike bosch %d", i)),
			candidate(fmt.Sprintf("kids bike 24 inch %d", i)),
		)
	}

	picks := m.SelectBatch(pool, 20)
	quotas := Apportion(DefaultRatios, 20)

	counts := make(map[domain.Category]int)
	for _, p := range picks {
		if p.Overflow {
			t.Errorf("unexpected overflow pick %q with a full pool", p.Candidate.Title)
		}
		counts[p.Category]++
	}
	for cat, q := range quotas {
		if counts[cat] > q {
			t.Errorf("category %s exceeded quota: %d > %d", cat, counts[cat], q)
		}
	}
}

func TestSelectBatch_BackfillWhenCategoryShort(t *testing.T) {
	m := NewManager(classify.NewKeywordClassifier(), nil)

	// Only MTB candidates available; non-MTB quotas cannot be filled and
	// must be backfilled with MTBs flagged as overflow.
	var pool []*domain.Candidate
	for i := 0; i < 15; i++ {
		pool = append(pool, candidate(fmt.Sprintf("enduro mountainbike %d", i)))
	}

	picks := m.SelectBatch(pool, 10)
	if len(picks) != 10 {
		t.Fatalf("expected 10 picks, got %d", len(picks))
	}

	quota := Apportion(DefaultRatios, 10)[domain.CategoryMTB]
	overflow := 0
	for _, p := range picks {
		if p.Overflow {
			overflow++
		}
	}
	if overflow != 10-quota {
		t.Errorf("expected %d overflow picks, got %d", 10-quota, overflow)
	}
}

func TestSelectBatch_PrefersHigherScored(t *testing.T) {
	m := NewManager(classify.NewKeywordClassifier(), nil)

	// Pool is score-ordered best first; the single MTB slot must go to
	// the first MTB in the list.
	pool := []*domain.Candidate{
		candidate("best mountainbike"),
		candidate("second mountainbike"),
		candidate("third mountainbike"),
	}

	picks := m.SelectBatch(pool, 1)
	if len(picks) != 1 || picks[0].Candidate.Title != "best mountainbike" {
		t.Errorf("expected the top-scored candidate, got %+v", picks)
	}
}
