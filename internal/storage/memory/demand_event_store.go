package memory

import (
	"context"
	"sync"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// DemandEventStore is an in-memory implementation of storage.DemandEventStore.
type DemandEventStore struct {
	mu     sync.RWMutex
	data   []*domain.DemandEvent
	nextID int64
}

// NewDemandEventStore creates a new in-memory demand event store.
func NewDemandEventStore() *DemandEventStore {
	return &DemandEventStore{nextID: 1}
}

// Insert records a demand event.
func (s *DemandEventStore) Insert(_ context.Context, e *domain.DemandEvent) error {
	if e == nil || e.Category == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eventCopy := *e
	eventCopy.ID = s.nextID
	s.nextID++
	s.data = append(s.data, &eventCopy)
	return nil
}

// CountByCategorySince returns event counts per category observed at or
// after since.
func (s *DemandEventStore) CountByCategorySince(_ context.Context, since int64) (map[domain.Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.Category]int)
	for _, e := range s.data {
		if e.ObservedAt >= since {
			counts[e.Category]++
		}
	}
	return counts, nil
}

// Verify interface compliance at compile time.
var _ storage.DemandEventStore = (*DemandEventStore)(nil)
