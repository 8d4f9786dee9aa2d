package postgres

import (
	"context"
	"fmt"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// ComparableStore implements storage.ComparableStore using PostgreSQL.
type ComparableStore struct {
	pool *Pool
}

// NewComparableStore creates a new ComparableStore.
func NewComparableStore(pool *Pool) *ComparableStore {
	return &ComparableStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ComparableStore = (*ComparableStore)(nil)

// Insert adds a sale sample.
func (s *ComparableStore) Insert(ctx context.Context, c *domain.Comparable) error {
	if c == nil || c.Brand == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO comparables (brand, model, price, sold_at) VALUES ($1, $2, $3, $4)`,
		c.Brand, c.Model, c.Price, c.SoldAt,
	)
	if err != nil {
		return fmt.Errorf("insert comparable: %w", err)
	}
	return nil
}

// GetByBrand retrieves all samples for a brand (case-insensitive).
func (s *ComparableStore) GetByBrand(ctx context.Context, brand string) ([]*domain.Comparable, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, brand, model, price, sold_at
		FROM comparables
		WHERE LOWER(brand) = LOWER($1)
		ORDER BY sold_at ASC, id ASC`,
		brand,
	)
	if err != nil {
		return nil, fmt.Errorf("get comparables by brand: %w", err)
	}
	defer rows.Close()

	var samples []*domain.Comparable
	for rows.Next() {
		var c domain.Comparable
		if err := rows.Scan(&c.ID, &c.Brand, &c.Model, &c.Price, &c.SoldAt); err != nil {
			return nil, fmt.Errorf("scan comparable row: %w", err)
		}
		samples = append(samples, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comparable rows: %w", err)
	}
	return samples, nil
}
