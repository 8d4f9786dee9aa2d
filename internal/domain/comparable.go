package domain

// Comparable is one historical sale price sample used for fair-market-
// value estimation. Corresponds to the comparables table in PostgreSQL.
type Comparable struct {
	ID     int64 // PRIMARY KEY
	Brand  string
	Model  string
	Price  float64
	SoldAt int64 // Unix timestamp in milliseconds
}

// DemandEvent is a "search abandoned" signal: a storefront visitor
// searched a category and left without a match. Grouped per category to
// estimate unmet demand. Corresponds to the demand_events table.
type DemandEvent struct {
	ID         int64 // PRIMARY KEY
	Category   Category
	Query      string // raw search text, kept for later inspection
	ObservedAt int64  // Unix timestamp in milliseconds
}
