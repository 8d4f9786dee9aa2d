package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// CatalogStore implements storage.CatalogStore using PostgreSQL.
type CatalogStore struct {
	pool *Pool
}

// NewCatalogStore creates a new CatalogStore.
func NewCatalogStore(pool *Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CatalogStore = (*CatalogStore)(nil)

const catalogColumns = `
	entry_id, source_url, brand, model, year, category, grade,
	price, currency, projected_profit, profit_method, score, tier,
	condition_estimate, user_interest,
	fallback_enrichment, image_urls, is_active, acquired_at, last_sync_at, archived_at
`

// Upsert inserts or replaces an entry keyed by entry_id.
func (s *CatalogStore) Upsert(ctx context.Context, e *domain.CatalogEntry) error {
	if e == nil || e.EntryID == "" || e.SourceURL == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO catalog_entries (
			entry_id, source_url, brand, model, year, category, grade,
			price, currency, projected_profit, profit_method, score, tier,
			condition_estimate, user_interest,
			fallback_enrichment, image_urls, is_active, acquired_at, last_sync_at, archived_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (entry_id) DO UPDATE SET
			brand = EXCLUDED.brand,
			model = EXCLUDED.model,
			year = EXCLUDED.year,
			category = EXCLUDED.category,
			grade = EXCLUDED.grade,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			projected_profit = EXCLUDED.projected_profit,
			profit_method = EXCLUDED.profit_method,
			score = EXCLUDED.score,
			tier = EXCLUDED.tier,
			condition_estimate = EXCLUDED.condition_estimate,
			user_interest = EXCLUDED.user_interest,
			fallback_enrichment = EXCLUDED.fallback_enrichment,
			image_urls = EXCLUDED.image_urls,
			is_active = EXCLUDED.is_active,
			last_sync_at = EXCLUDED.last_sync_at,
			archived_at = EXCLUDED.archived_at
	`

	_, err := s.pool.Exec(ctx, query,
		e.EntryID,
		e.SourceURL,
		e.Brand,
		e.Model,
		e.Year,
		string(e.Category),
		string(e.Grade),
		e.Price,
		e.Currency,
		e.ProjectedProfit,
		string(e.ProfitMethod),
		e.Score,
		string(e.Tier),
		e.ConditionEstimate,
		e.UserInterest,
		e.FallbackEnrichment,
		e.ImageURLs,
		e.IsActive,
		e.AcquiredAt,
		e.LastSyncAt,
		e.ArchivedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert catalog entry: %w", err)
	}
	return nil
}

// GetByURL retrieves the entry for a source URL. Returns ErrNotFound if not exists.
func (s *CatalogStore) GetByURL(ctx context.Context, sourceURL string) (*domain.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_entries WHERE source_url = $1`

	row := s.pool.QueryRow(ctx, query, sourceURL)
	e, err := scanEntry(row)
	if err != nil {
		if isNoRows(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get entry by url: %w", err)
	}
	return e, nil
}

// GetByID retrieves an entry by entry_id. Returns ErrNotFound if not exists.
func (s *CatalogStore) GetByID(ctx context.Context, entryID string) (*domain.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_entries WHERE entry_id = $1`

	row := s.pool.QueryRow(ctx, query, entryID)
	e, err := scanEntry(row)
	if err != nil {
		if isNoRows(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get entry by id: %w", err)
	}
	return e, nil
}

// ListStaleActive retrieves up to limit active entries of the given tier,
// oldest last_sync_at first. A nil tier matches all tiers.
func (s *CatalogStore) ListStaleActive(ctx context.Context, tier *domain.Tier, limit int) ([]*domain.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_entries WHERE is_active`
	var args []any
	if tier != nil {
		args = append(args, string(*tier))
		query += fmt.Sprintf(" AND tier = $%d", len(args))
	}
	query += " ORDER BY last_sync_at ASC, entry_id ASC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stale entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Archive sets is_active=false and stamps archived_at in one write.
func (s *CatalogStore) Archive(ctx context.Context, entryID string, archivedAt int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE catalog_entries SET is_active = FALSE, archived_at = $2 WHERE entry_id = $1`,
		entryID, archivedAt,
	)
	if err != nil {
		return fmt.Errorf("archive entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdatePricing updates price, profit, score and tier after a re-check.
func (s *CatalogStore) UpdatePricing(ctx context.Context, entryID string, price, profit, score float64, tier domain.Tier, syncedAt int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE catalog_entries
		SET price = $2, projected_profit = $3, score = $4, tier = $5, last_sync_at = $6
		WHERE entry_id = $1`,
		entryID, price, profit, score, string(tier), syncedAt,
	)
	if err != nil {
		return fmt.Errorf("update pricing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// TouchSync advances last_sync_at only.
func (s *CatalogStore) TouchSync(ctx context.Context, entryID string, syncedAt int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE catalog_entries SET last_sync_at = $2 WHERE entry_id = $1`,
		entryID, syncedAt,
	)
	if err != nil {
		return fmt.Errorf("touch sync: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountActiveByCategory returns active inventory counts per category.
func (s *CatalogStore) CountActiveByCategory(ctx context.Context) (map[domain.Category]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT category, COUNT(*) FROM catalog_entries WHERE is_active GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count active by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Category]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[domain.Category(cat)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}
	return counts, nil
}

// ListArchivedBefore retrieves entries archived before the cutoff.
func (s *CatalogStore) ListArchivedBefore(ctx context.Context, cutoff int64) ([]*domain.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + `
		FROM catalog_entries
		WHERE archived_at IS NOT NULL AND archived_at < $1
		ORDER BY entry_id ASC`

	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list archived entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListActiveAcquiredBefore retrieves active entries acquired before the
// cutoff whose score is below maxScore.
func (s *CatalogStore) ListActiveAcquiredBefore(ctx context.Context, cutoff int64, maxScore float64) ([]*domain.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + `
		FROM catalog_entries
		WHERE is_active AND acquired_at < $1 AND score < $2
		ORDER BY entry_id ASC`

	rows, err := s.pool.Query(ctx, query, cutoff, maxScore)
	if err != nil {
		return nil, fmt.Errorf("list aged low-score entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Delete hard-deletes an entry.
func (s *CatalogStore) Delete(ctx context.Context, entryID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM catalog_entries WHERE entry_id = $1`, entryID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanEntry scans a single row into a CatalogEntry.
func scanEntry(row pgx.Row) (*domain.CatalogEntry, error) {
	var e domain.CatalogEntry
	var category, grade, profitMethod, tier string

	err := row.Scan(
		&e.EntryID,
		&e.SourceURL,
		&e.Brand,
		&e.Model,
		&e.Year,
		&category,
		&grade,
		&e.Price,
		&e.Currency,
		&e.ProjectedProfit,
		&profitMethod,
		&e.Score,
		&tier,
		&e.ConditionEstimate,
		&e.UserInterest,
		&e.FallbackEnrichment,
		&e.ImageURLs,
		&e.IsActive,
		&e.AcquiredAt,
		&e.LastSyncAt,
		&e.ArchivedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Category = domain.Category(category)
	e.Grade = domain.Grade(grade)
	e.ProfitMethod = domain.ProfitMethod(profitMethod)
	e.Tier = domain.Tier(tier)
	return &e, nil
}

// scanEntries scans multiple rows into a slice of CatalogEntry.
func scanEntries(rows pgx.Rows) ([]*domain.CatalogEntry, error) {
	var entries []*domain.CatalogEntry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry rows: %w", err)
	}

	return entries, nil
}
