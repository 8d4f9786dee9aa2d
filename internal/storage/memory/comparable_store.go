package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// ComparableStore is an in-memory implementation of storage.ComparableStore.
type ComparableStore struct {
	mu     sync.RWMutex
	data   []*domain.Comparable
	nextID int64
}

// NewComparableStore creates a new in-memory comparable store.
func NewComparableStore() *ComparableStore {
	return &ComparableStore{nextID: 1}
}

// Insert adds a sale sample.
func (s *ComparableStore) Insert(_ context.Context, c *domain.Comparable) error {
	if c == nil || c.Brand == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sampleCopy := *c
	sampleCopy.ID = s.nextID
	s.nextID++
	s.data = append(s.data, &sampleCopy)
	return nil
}

// GetByBrand retrieves all samples for a brand (case-insensitive).
func (s *ComparableStore) GetByBrand(_ context.Context, brand string) ([]*domain.Comparable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Comparable
	for _, c := range s.data {
		if strings.EqualFold(c.Brand, brand) {
			sampleCopy := *c
			result = append(result, &sampleCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SoldAt < result[j].SoldAt
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ComparableStore = (*ComparableStore)(nil)
