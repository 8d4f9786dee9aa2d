package memory

import (
	"context"
	"sort"
	"sync"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// BountyStore is an in-memory implementation of storage.BountyStore.
type BountyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Bounty // keyed by bounty_id
}

// NewBountyStore creates a new in-memory bounty store.
func NewBountyStore() *BountyStore {
	return &BountyStore{data: make(map[string]*domain.Bounty)}
}

// Insert adds a bounty. Returns ErrDuplicateKey if bounty_id exists.
func (s *BountyStore) Insert(_ context.Context, b *domain.Bounty) error {
	if b == nil || b.BountyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.BountyID]; exists {
		return storage.ErrDuplicateKey
	}

	bountyCopy := *b
	s.data[b.BountyID] = &bountyCopy
	return nil
}

// ListOpen retrieves all open bounties, oldest first.
func (s *BountyStore) ListOpen(_ context.Context) ([]*domain.Bounty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bounty
	for _, b := range s.data {
		if b.IsOpen {
			bountyCopy := *b
			result = append(result, &bountyCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].BountyID < result[j].BountyID
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.BountyStore = (*BountyStore)(nil)
