// Package profit estimates fair market value and net profit for
// candidates. FMV is the median of historical comparable sale prices; a
// median resists the outliers that plague scraped price samples.
package profit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// ErrNoComparables is returned when fewer comparable sales exist than
// the configured minimum. The calculator refuses to produce a
// low-confidence FMV from a thin sample.
var ErrNoComparables = errors.New("not enough comparable sales for FMV")

// Config holds the profit model tunables.
type Config struct {
	LogisticsCost      float64 // fixed per-item transport cost
	NegotiationPremium float64 // applied to pickup-only items off the route
	FlatMarginRate     float64 // fallback margin when FMV is unavailable
	MinComparables     int     // FMV requires at least this many samples
}

// Estimate is the result of one profit calculation.
type Estimate struct {
	Profit      float64
	ProfitPct   float64 // fraction of FMV, or of price on fallback
	FMV         float64 // zero when Method is flat_margin
	Method      domain.ProfitMethod
	Comparables int // sample count behind the FMV
}

// Calculator derives profit estimates from the comparables store.
type Calculator struct {
	comparables storage.ComparableStore
	cfg         Config
}

// NewCalculator creates a new Calculator.
func NewCalculator(comparables storage.ComparableStore, cfg Config) *Calculator {
	if cfg.MinComparables <= 0 {
		cfg.MinComparables = 3
	}
	if cfg.FlatMarginRate <= 0 {
		cfg.FlatMarginRate = 0.20
	}
	return &Calculator{comparables: comparables, cfg: cfg}
}

// Estimate computes the net profit projection for a candidate.
// With an FMV: profit = FMV - price - logistics - premium.
// Without one: profit = price * flat margin - premium, and the result is
// marked flat_margin so consumers can weight confidence accordingly.
func (c *Calculator) Estimate(ctx context.Context, cand *domain.Candidate) (*Estimate, error) {
	premium := 0.0
	if cand.PickupOnly && !cand.OnPickupRoute {
		premium = c.cfg.NegotiationPremium
	}

	fmv, samples, err := c.FMV(ctx, cand.Brand, cand.Model)
	if err != nil {
		if !errors.Is(err, ErrNoComparables) {
			return nil, err
		}
		profit := cand.Price*c.cfg.FlatMarginRate - premium
		est := &Estimate{
			Profit: profit,
			Method: domain.ProfitMethodFlatMargin,
		}
		if cand.Price > 0 {
			est.ProfitPct = profit / cand.Price
		}
		return est, nil
	}

	profit := fmv - cand.Price - c.cfg.LogisticsCost - premium
	est := &Estimate{
		Profit:      profit,
		FMV:         fmv,
		Method:      domain.ProfitMethodFMV,
		Comparables: samples,
	}
	if fmv > 0 {
		est.ProfitPct = profit / fmv
	}
	return est, nil
}

// FMV computes the median comparable price for a brand/model.
// Returns ErrNoComparables when fewer than the configured minimum of
// fuzzy model matches exist; it never extrapolates from a thin sample.
func (c *Calculator) FMV(ctx context.Context, brand, model string) (float64, int, error) {
	if brand == "" {
		return 0, 0, ErrNoComparables
	}

	samples, err := c.comparables.GetByBrand(ctx, brand)
	if err != nil {
		return 0, 0, fmt.Errorf("load comparables for %q: %w", brand, err)
	}

	var prices []float64
	for _, s := range samples {
		if fuzzyModelMatch(model, s.Model) {
			prices = append(prices, s.Price)
		}
	}

	if len(prices) < c.cfg.MinComparables {
		return 0, len(prices), ErrNoComparables
	}

	return median(prices), len(prices), nil
}

// fuzzyModelMatch reports whether two model strings plausibly describe
// the same model: case-insensitive token containment in either
// direction, so "Stumpjumper Comp" matches "stumpjumper".
func fuzzyModelMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		// A missing model on either side matches everything of the
		// brand; brand-level medians beat refusing to estimate.
		return true
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// median returns the middle value of prices (mean of the two middles for
// even counts). The input slice is not modified.
func median(prices []float64) float64 {
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
