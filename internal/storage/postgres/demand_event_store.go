package postgres

import (
	"context"
	"fmt"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// DemandEventStore implements storage.DemandEventStore using PostgreSQL.
type DemandEventStore struct {
	pool *Pool
}

// NewDemandEventStore creates a new DemandEventStore.
func NewDemandEventStore(pool *Pool) *DemandEventStore {
	return &DemandEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DemandEventStore = (*DemandEventStore)(nil)

// Insert records a demand event.
func (s *DemandEventStore) Insert(ctx context.Context, e *domain.DemandEvent) error {
	if e == nil || e.Category == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO demand_events (category, query, observed_at) VALUES ($1, $2, $3)`,
		string(e.Category), e.Query, e.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("insert demand event: %w", err)
	}
	return nil
}

// CountByCategorySince returns event counts per category observed at or
// after since.
func (s *DemandEventStore) CountByCategorySince(ctx context.Context, since int64) (map[domain.Category]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT category, COUNT(*) FROM demand_events WHERE observed_at >= $1 GROUP BY category`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("count demand events: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Category]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scan demand count: %w", err)
		}
		counts[domain.Category(cat)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate demand counts: %w", err)
	}
	return counts, nil
}
