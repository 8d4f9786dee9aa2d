package domain

// Candidate represents a raw sourced marketplace listing.
// Corresponds to the candidates table in PostgreSQL.
// Candidates are immutable once scraped; a re-scrape supersedes the row
// via upsert on source_url, it never mutates fields in place.
type Candidate struct {
	SourceURL string  // PRIMARY KEY, canonical marketplace URL
	Brand     string  // inferred brand, may be empty
	Model     string  // inferred model name, may be empty
	Title     string  // raw listing title
	Price     float64 // asking price
	Currency  string  // ISO 4217 code, e.g. "EUR"
	Year      *int    // manufacture year (nullable, unknown is common)
	Category  *string // raw category text from the source (nullable)

	// Seller-side attributes used by curation and profit gating.
	PickupOnly    bool // item must be collected in person
	OnPickupRoute bool // pickup location lies on a guaranteed route

	// Externally supplied signals (nullable when the source lacks them).
	ConditionEstimate *float64 // 1-10 condition estimate
	UserInterest      *float64 // 0-10 engagement signal

	ImageURLs []string // media discovered on the listing page

	ScrapedAt int64 // Unix timestamp in milliseconds
	CreatedAt int64 // record creation timestamp (ms)
}
