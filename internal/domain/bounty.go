package domain

// Bounty is an explicit buyer request. Read-only input to supply-gap
// analysis; matched against both inventory and fresh candidates.
// Corresponds to the bounties table in PostgreSQL.
// All constraint fields except Category are optional: an unset field
// never blocks a match.
type Bounty struct {
	BountyID string // PRIMARY KEY

	Category Category
	Brand    *string  // case-insensitive substring match
	Model    *string  // case-insensitive substring match
	Size     *string  // exact match, e.g. "M", "54", "29in"
	MaxPrice *float64 // price ceiling
	MinGrade *Grade   // candidate grade must be >= this

	IsOpen    bool
	CreatedAt int64 // Unix timestamp in milliseconds
}
