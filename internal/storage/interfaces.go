package storage

import (
	"context"

	"bike-curation/internal/domain"
)

// CandidateFilter narrows a candidate lake query. Zero values mean
// "no constraint". MinYear only excludes candidates whose year is known
// and older; unknown years stay eligible.
type CandidateFilter struct {
	Brand            string
	CategoryKeywords []string // matched against title/category text
	PriceMin         float64
	PriceMax         float64
	MinYear          int
	ScrapedAfter     int64 // ms, 0 = any age

	// ExcludeExisting drops candidates whose URL already maps to a
	// catalog entry.
	ExcludeExisting bool
}

// CandidateStore provides access to the raw scraped candidate lake.
type CandidateStore interface {
	// Upsert inserts or replaces a candidate keyed by source_url.
	Upsert(ctx context.Context, c *domain.Candidate) error

	// GetByURL retrieves a candidate. Returns ErrNotFound if not exists.
	GetByURL(ctx context.Context, sourceURL string) (*domain.Candidate, error)

	// Query retrieves candidates matching the filter, newest scrape first.
	Query(ctx context.Context, f CandidateFilter) ([]*domain.Candidate, error)
}

// CatalogStore provides access to the committed catalog.
type CatalogStore interface {
	// Upsert inserts or replaces an entry keyed by entry_id,
	// including its media URLs.
	Upsert(ctx context.Context, e *domain.CatalogEntry) error

	// GetByURL retrieves the entry for a source URL.
	// Returns ErrNotFound if not exists.
	GetByURL(ctx context.Context, sourceURL string) (*domain.CatalogEntry, error)

	// GetByID retrieves an entry by entry_id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, entryID string) (*domain.CatalogEntry, error)

	// ListStaleActive retrieves up to limit active entries of the given
	// tier (all tiers when tier is nil), oldest last_sync_at first.
	ListStaleActive(ctx context.Context, tier *domain.Tier, limit int) ([]*domain.CatalogEntry, error)

	// Archive sets is_active=false and stamps archived_at in one write.
	Archive(ctx context.Context, entryID string, archivedAt int64) error

	// UpdatePricing updates price, projected profit, score and tier
	// after a lifecycle re-check, and advances last_sync_at.
	UpdatePricing(ctx context.Context, entryID string, price, profit, score float64, tier domain.Tier, syncedAt int64) error

	// TouchSync advances last_sync_at only.
	TouchSync(ctx context.Context, entryID string, syncedAt int64) error

	// CountActiveByCategory returns active inventory counts per category.
	CountActiveByCategory(ctx context.Context) (map[domain.Category]int, error)

	// ListArchivedBefore retrieves entries archived before the cutoff.
	ListArchivedBefore(ctx context.Context, cutoff int64) ([]*domain.CatalogEntry, error)

	// ListActiveAcquiredBefore retrieves active entries acquired before
	// the cutoff whose score is below maxScore.
	ListActiveAcquiredBefore(ctx context.Context, cutoff int64, maxScore float64) ([]*domain.CatalogEntry, error)

	// Delete hard-deletes an entry and its media.
	Delete(ctx context.Context, entryID string) error
}

// ComparableStore provides access to historical sale price samples.
type ComparableStore interface {
	// Insert adds a sale sample.
	Insert(ctx context.Context, c *domain.Comparable) error

	// GetByBrand retrieves all samples for a brand (case-insensitive).
	GetByBrand(ctx context.Context, brand string) ([]*domain.Comparable, error)
}

// BountyStore provides access to buyer requests.
type BountyStore interface {
	// Insert adds a bounty. Returns ErrDuplicateKey if bounty_id exists.
	Insert(ctx context.Context, b *domain.Bounty) error

	// ListOpen retrieves all open bounties, oldest first.
	ListOpen(ctx context.Context) ([]*domain.Bounty, error)
}

// DemandEventStore provides access to search-abandoned signals.
type DemandEventStore interface {
	// Insert records a demand event.
	Insert(ctx context.Context, e *domain.DemandEvent) error

	// CountByCategorySince returns event counts per category observed
	// at or after since (ms).
	CountByCategorySince(ctx context.Context, since int64) (map[domain.Category]int, error)
}
