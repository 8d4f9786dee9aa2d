package domain

// Strategy is a single acquisition directive: search one category/brand
// slice of the market within a price range. Strategies are consumed from
// a priority-ordered queue; priority decays when a strategy is requeued
// after a partial yield, and zero-yield strategies are dropped.
type Strategy struct {
	Category Category
	Brand    string
	PriceMin float64
	PriceMax float64

	// Priority orders the strategy queue, larger first. Halved on each
	// requeue; strategies below MinStrategyPriority are not requeued.
	Priority int

	// Quota is the number of acquisitions this strategy may still claim
	// within the current run.
	Quota int
}

// MinStrategyPriority is the floor below which a decayed strategy is no
// longer requeued.
const MinStrategyPriority = 1
