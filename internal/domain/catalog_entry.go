package domain

// Grade is the condition grade assigned to an owned bike.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
)

// gradeRank orders grades for minimum-grade comparisons (A best).
var gradeRank = map[Grade]int{GradeA: 3, GradeB: 2, GradeC: 1}

// AtLeast reports whether g meets the minimum grade min.
// Unknown grades rank lowest.
func (g Grade) AtLeast(min Grade) bool {
	return gradeRank[g] >= gradeRank[min]
}

// Tier is the lifecycle re-check cadence bucket derived from the
// desirability score.
type Tier string

const (
	TierHot    Tier = "hot"
	TierMedium Tier = "medium"
	TierCold   Tier = "cold"
)

// ProfitMethod records how a profit projection was derived.
type ProfitMethod string

const (
	// ProfitMethodFMV means profit was derived from a median of
	// historical comparable prices.
	ProfitMethodFMV ProfitMethod = "fmv_median"

	// ProfitMethodFlatMargin means no FMV was available and a flat
	// assumed margin was applied instead.
	ProfitMethodFlatMargin ProfitMethod = "flat_margin"
)

// CatalogEntry is a committed, owned catalog record.
// Corresponds to the catalog_entries table in PostgreSQL.
// Created by the acquisition orchestrator on commit; after creation it is
// mutated only by the lifecycle manager (price, score, tier, active flag).
type CatalogEntry struct {
	EntryID   string // PRIMARY KEY, deterministic hash of source_url
	SourceURL string // UNIQUE, de-duplication key against candidates

	Brand    string
	Model    string
	Year     *int
	Category Category
	Grade    Grade

	Price           float64
	Currency        string
	ProjectedProfit float64
	ProfitMethod    ProfitMethod

	Score float64 // most recent desirability score
	Tier  Tier    // derived from Score

	// External scoring signals carried over from the candidate at commit
	// time. A lifecycle rescore feeds them back so a price change alone
	// never shifts the condition or interest components.
	ConditionEstimate *float64 // 1-10 condition estimate (nullable)
	UserInterest      *float64 // 0-10 engagement signal (nullable)

	// FallbackEnrichment marks entries committed from a locally
	// synthesized record after enrichment failed to parse.
	FallbackEnrichment bool

	ImageURLs []string

	IsActive   bool
	AcquiredAt int64  // commit timestamp (ms)
	LastSyncAt int64  // last successful source re-check (ms)
	ArchivedAt *int64 // set when a deletion marker was observed (ms)
}
