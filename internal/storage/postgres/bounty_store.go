package postgres

import (
	"context"
	"fmt"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// BountyStore implements storage.BountyStore using PostgreSQL.
type BountyStore struct {
	pool *Pool
}

// NewBountyStore creates a new BountyStore.
func NewBountyStore(pool *Pool) *BountyStore {
	return &BountyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BountyStore = (*BountyStore)(nil)

// Insert adds a bounty. Returns ErrDuplicateKey if bounty_id exists.
func (s *BountyStore) Insert(ctx context.Context, b *domain.Bounty) error {
	if b == nil || b.BountyID == "" {
		return storage.ErrInvalidInput
	}

	var minGrade *string
	if b.MinGrade != nil {
		g := string(*b.MinGrade)
		minGrade = &g
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO bounties (bounty_id, category, brand, model, size, max_price, min_grade, is_open, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.BountyID, string(b.Category), b.Brand, b.Model, b.Size, b.MaxPrice, minGrade, b.IsOpen, b.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert bounty: %w", err)
	}
	return nil
}

// ListOpen retrieves all open bounties, oldest first.
func (s *BountyStore) ListOpen(ctx context.Context) ([]*domain.Bounty, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT bounty_id, category, brand, model, size, max_price, min_grade, is_open, created_at
		FROM bounties
		WHERE is_open
		ORDER BY created_at ASC, bounty_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list open bounties: %w", err)
	}
	defer rows.Close()

	var bounties []*domain.Bounty
	for rows.Next() {
		var b domain.Bounty
		var category string
		var minGrade *string

		err := rows.Scan(&b.BountyID, &category, &b.Brand, &b.Model, &b.Size, &b.MaxPrice, &minGrade, &b.IsOpen, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan bounty row: %w", err)
		}

		b.Category = domain.Category(category)
		if minGrade != nil {
			g := domain.Grade(*minGrade)
			b.MinGrade = &g
		}
		bounties = append(bounties, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bounty rows: %w", err)
	}
	return bounties, nil
}
