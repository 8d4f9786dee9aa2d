package domain

// ScoreBreakdown is the ephemeral result of scoring one candidate.
// It is recomputed on demand whenever an input (price, condition,
// interest) changes and is never persisted as the source of truth; only
// the Total lands on a CatalogEntry.
type ScoreBreakdown struct {
	ProfitScore    float64 // 0-10, linear in profit % of FMV
	ConditionScore float64 // 0-10, clamped external estimate
	InterestScore  float64 // 0-10, engagement signal or brand-tier proxy
	SweetSpotScore float64 // 0-10, price-band fit

	// FreshnessPenalty is subtracted from the weighted sum, capped at 2.
	FreshnessPenalty float64

	// Total is the weighted composite, clamped to >= 0.
	Total float64

	// Raw inputs, kept for auditability.
	Profit        float64
	ProfitPct     float64 // profit as a fraction of FMV (or of price on fallback)
	ProfitMethod  ProfitMethod
	ListingAgeDay float64
	InterestProxy bool // true when InterestScore came from the brand tier
}

// TierForScore maps a desirability score to a lifecycle cadence tier.
func TierForScore(score float64) Tier {
	switch {
	case score >= 7.5:
		return TierHot
	case score >= 5.0:
		return TierMedium
	default:
		return TierCold
	}
}
