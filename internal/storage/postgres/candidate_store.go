package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// CandidateStore implements storage.CandidateStore using PostgreSQL.
type CandidateStore struct {
	pool *Pool
}

// NewCandidateStore creates a new CandidateStore.
func NewCandidateStore(pool *Pool) *CandidateStore {
	return &CandidateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CandidateStore = (*CandidateStore)(nil)

const candidateColumns = `
	source_url, brand, model, title, price, currency, year, category,
	pickup_only, on_pickup_route, condition_estimate, user_interest,
	image_urls, scraped_at, created_at
`

// Upsert inserts or replaces a candidate keyed by source_url.
func (s *CandidateStore) Upsert(ctx context.Context, c *domain.Candidate) error {
	if c == nil || c.SourceURL == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO candidates (
			source_url, brand, model, title, price, currency, year, category,
			pickup_only, on_pickup_route, condition_estimate, user_interest,
			image_urls, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (source_url) DO UPDATE SET
			brand = EXCLUDED.brand,
			model = EXCLUDED.model,
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			year = EXCLUDED.year,
			category = EXCLUDED.category,
			pickup_only = EXCLUDED.pickup_only,
			on_pickup_route = EXCLUDED.on_pickup_route,
			condition_estimate = EXCLUDED.condition_estimate,
			user_interest = EXCLUDED.user_interest,
			image_urls = EXCLUDED.image_urls,
			scraped_at = EXCLUDED.scraped_at
	`

	_, err := s.pool.Exec(ctx, query,
		c.SourceURL,
		c.Brand,
		c.Model,
		c.Title,
		c.Price,
		c.Currency,
		c.Year,
		c.Category,
		c.PickupOnly,
		c.OnPickupRoute,
		c.ConditionEstimate,
		c.UserInterest,
		c.ImageURLs,
		c.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert candidate: %w", err)
	}
	return nil
}

// GetByURL retrieves a candidate. Returns ErrNotFound if not exists.
func (s *CandidateStore) GetByURL(ctx context.Context, sourceURL string) (*domain.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE source_url = $1`

	row := s.pool.QueryRow(ctx, query, sourceURL)
	c, err := scanCandidate(row)
	if err != nil {
		if isNoRows(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get candidate by url: %w", err)
	}
	return c, nil
}

// Query retrieves candidates matching the filter, newest scrape first.
// MinYear only excludes candidates with a known older year; rows with a
// NULL year stay eligible.
func (s *CandidateStore) Query(ctx context.Context, f storage.CandidateFilter) ([]*domain.Candidate, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Brand != "" {
		conds = append(conds, "LOWER(brand) = LOWER("+arg(f.Brand)+")")
	}
	if f.PriceMin > 0 {
		conds = append(conds, "price >= "+arg(f.PriceMin))
	}
	if f.PriceMax > 0 {
		conds = append(conds, "price <= "+arg(f.PriceMax))
	}
	if f.MinYear > 0 {
		conds = append(conds, "(year IS NULL OR year >= "+arg(f.MinYear)+")")
	}
	if f.ScrapedAfter > 0 {
		conds = append(conds, "scraped_at >= "+arg(f.ScrapedAfter))
	}
	if len(f.CategoryKeywords) > 0 {
		var kwConds []string
		for _, kw := range f.CategoryKeywords {
			p := arg("%" + strings.ToLower(kw) + "%")
			kwConds = append(kwConds,
				"(LOWER(title) LIKE "+p+" OR LOWER(COALESCE(category, '')) LIKE "+p+")")
		}
		conds = append(conds, "("+strings.Join(kwConds, " OR ")+")")
	}
	if f.ExcludeExisting {
		conds = append(conds, `NOT EXISTS (
			SELECT 1 FROM catalog_entries ce WHERE ce.source_url = candidates.source_url
		)`)
	}

	query := `SELECT ` + candidateColumns + ` FROM candidates`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY scraped_at DESC, source_url ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// scanCandidate scans a single row into a Candidate.
func scanCandidate(row pgx.Row) (*domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(
		&c.SourceURL,
		&c.Brand,
		&c.Model,
		&c.Title,
		&c.Price,
		&c.Currency,
		&c.Year,
		&c.Category,
		&c.PickupOnly,
		&c.OnPickupRoute,
		&c.ConditionEstimate,
		&c.UserInterest,
		&c.ImageURLs,
		&c.ScrapedAt,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanCandidates scans multiple rows into a slice of Candidate.
func scanCandidates(rows pgx.Rows) ([]*domain.Candidate, error) {
	var candidates []*domain.Candidate

	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}

	return candidates, nil
}
