// Package scoring computes the 0-10 desirability score that ranks
// candidates for acquisition.
package scoring

import (
	"strings"

	"bike-curation/internal/domain"
)

// Component weights of the desirability composite. They sum to 1, so a
// candidate maxing every component scores exactly 10 before the
// freshness penalty.
const (
	weightProfit    = 0.30
	weightCondition = 0.20
	weightInterest  = 0.30
	weightSweetSpot = 0.20
)

// profitPctCeiling is the profit fraction that earns a full profit
// score: 40% of FMV and above maps to 10.
const profitPctCeiling = 0.40

// Config holds the scoring tunables.
type Config struct {
	// Sweet-spot price bands. Full score inside [SweetSpotLow,
	// SweetSpotHigh]; linear taper to 5 at the floor/ceiling bounds;
	// flat 5 beyond them.
	SweetSpotLow      float64
	SweetSpotHigh     float64
	SweetSpotFloorLow float64
	SweetSpotCeilHigh float64

	// Freshness penalty: zero below GraceDays of listing age, then one
	// point per DaysPerPoint, capped at MaxPenalty.
	FreshnessGraceDays   float64
	FreshnessMaxPenalty  float64
	FreshnessDaysPerStep float64
}

// Input carries everything scoring needs about one candidate. Pointer
// fields are nil when the upstream source had no data.
type Input struct {
	ProfitPct    float64
	ProfitMethod domain.ProfitMethod
	Profit       float64

	Condition    *float64 // 1-10 external estimate
	UserInterest *float64 // 0-10 engagement signal

	Brand   string
	Price   float64
	AgeDays float64
}

// Service computes desirability scores.
type Service struct {
	cfg Config
}

// NewService creates a new scoring Service.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Score computes the weighted desirability composite with a full
// component breakdown. The total is clamped to >= 0; extreme inputs
// (negative profit, decade-old listings) cannot push it below zero, and
// the component caps keep it at or below 10.
func (s *Service) Score(in Input) domain.ScoreBreakdown {
	b := domain.ScoreBreakdown{
		Profit:        in.Profit,
		ProfitPct:     in.ProfitPct,
		ProfitMethod:  in.ProfitMethod,
		ListingAgeDay: in.AgeDays,
	}

	b.ProfitScore = clamp(in.ProfitPct/profitPctCeiling*10, 0, 10)

	if in.Condition != nil {
		b.ConditionScore = clamp(*in.Condition, 0, 10)
	}

	if in.UserInterest != nil {
		b.InterestScore = clamp(*in.UserInterest, 0, 10)
	} else {
		// Cold-start candidates have no engagement signal yet; a brand
		// tier proxy keeps them from being penalized to zero.
		b.InterestScore = brandTierScore(in.Brand)
		b.InterestProxy = true
	}

	b.SweetSpotScore = s.sweetSpot(in.Price)
	b.FreshnessPenalty = s.freshnessPenalty(in.AgeDays)

	total := weightProfit*b.ProfitScore +
		weightCondition*b.ConditionScore +
		weightInterest*b.InterestScore +
		weightSweetSpot*b.SweetSpotScore -
		b.FreshnessPenalty
	b.Total = clamp(total, 0, 10)

	return b
}

// sweetSpot scores price-band fit. The curve is continuous at every band
// boundary and monotonically non-increasing as price moves away from the
// prime band in either direction. Prices beyond both extremes plateau at
// 5: a luxury bike still sells, it just isn't prioritized.
func (s *Service) sweetSpot(price float64) float64 {
	cfg := s.cfg
	switch {
	case price >= cfg.SweetSpotLow && price <= cfg.SweetSpotHigh:
		return 10
	case price > cfg.SweetSpotHigh && price < cfg.SweetSpotCeilHigh:
		span := cfg.SweetSpotCeilHigh - cfg.SweetSpotHigh
		return 10 - 5*(price-cfg.SweetSpotHigh)/span
	case price >= cfg.SweetSpotCeilHigh:
		return 5
	case price > cfg.SweetSpotFloorLow && price < cfg.SweetSpotLow:
		span := cfg.SweetSpotLow - cfg.SweetSpotFloorLow
		return 5 + 5*(price-cfg.SweetSpotFloorLow)/span
	default:
		return 5
	}
}

// freshnessPenalty grows with listing age beyond the grace window,
// capped at the configured maximum.
func (s *Service) freshnessPenalty(ageDays float64) float64 {
	if ageDays <= s.cfg.FreshnessGraceDays {
		return 0
	}
	if s.cfg.FreshnessDaysPerStep <= 0 {
		return 0
	}
	penalty := (ageDays - s.cfg.FreshnessGraceDays) / s.cfg.FreshnessDaysPerStep
	return clamp(penalty, 0, s.cfg.FreshnessMaxPenalty)
}

// Brand tiers backing the user-interest proxy. Anything unlisted lands
// in the bottom tier.
var (
	tierOneBrands = map[string]bool{
		"specialized": true, "trek": true, "canyon": true, "santa cruz": true,
		"yeti": true, "cube": true, "scott": true, "orbea": true,
	}
	tierTwoBrands = map[string]bool{
		"giant": true, "cannondale": true, "ghost": true, "focus": true,
		"merida": true, "radon": true, "rose": true, "bianchi": true,
	}
)

// brandTierScore maps a brand to the three-tier interest proxy.
func brandTierScore(brand string) float64 {
	key := strings.ToLower(strings.TrimSpace(brand))
	switch {
	case tierOneBrands[key]:
		return 10
	case tierTwoBrands[key]:
		return 8
	default:
		return 5
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
