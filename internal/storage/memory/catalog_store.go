package memory

import (
	"context"
	"sort"
	"sync"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// CatalogStore is an in-memory implementation of storage.CatalogStore.
type CatalogStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CatalogEntry // keyed by entry_id
}

// NewCatalogStore creates a new in-memory catalog store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		data: make(map[string]*domain.CatalogEntry),
	}
}

// Upsert inserts or replaces an entry keyed by entry_id.
func (s *CatalogStore) Upsert(_ context.Context, e *domain.CatalogEntry) error {
	if e == nil || e.EntryID == "" || e.SourceURL == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := copyEntry(e)
	s.data[e.EntryID] = entryCopy
	return nil
}

// GetByURL retrieves the entry for a source URL. Returns ErrNotFound if not exists.
func (s *CatalogStore) GetByURL(_ context.Context, sourceURL string) (*domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.data {
		if e.SourceURL == sourceURL {
			return copyEntry(e), nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetByID retrieves an entry by entry_id. Returns ErrNotFound if not exists.
func (s *CatalogStore) GetByID(_ context.Context, entryID string) (*domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[entryID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyEntry(e), nil
}

// ListStaleActive retrieves up to limit active entries of the given tier,
// oldest last_sync_at first. A nil tier matches all tiers.
func (s *CatalogStore) ListStaleActive(_ context.Context, tier *domain.Tier, limit int) ([]*domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CatalogEntry
	for _, e := range s.data {
		if !e.IsActive {
			continue
		}
		if tier != nil && e.Tier != *tier {
			continue
		}
		result = append(result, copyEntry(e))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LastSyncAt != result[j].LastSyncAt {
			return result[i].LastSyncAt < result[j].LastSyncAt
		}
		return result[i].EntryID < result[j].EntryID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Archive sets is_active=false and stamps archived_at in one write.
func (s *CatalogStore) Archive(_ context.Context, entryID string, archivedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.data[entryID]
	if !exists {
		return storage.ErrNotFound
	}
	e.IsActive = false
	e.ArchivedAt = &archivedAt
	return nil
}

// UpdatePricing updates price, profit, score and tier after a re-check.
func (s *CatalogStore) UpdatePricing(_ context.Context, entryID string, price, profit, score float64, tier domain.Tier, syncedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.data[entryID]
	if !exists {
		return storage.ErrNotFound
	}
	e.Price = price
	e.ProjectedProfit = profit
	e.Score = score
	e.Tier = tier
	e.LastSyncAt = syncedAt
	return nil
}

// TouchSync advances last_sync_at only.
func (s *CatalogStore) TouchSync(_ context.Context, entryID string, syncedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.data[entryID]
	if !exists {
		return storage.ErrNotFound
	}
	e.LastSyncAt = syncedAt
	return nil
}

// CountActiveByCategory returns active inventory counts per category.
func (s *CatalogStore) CountActiveByCategory(_ context.Context) (map[domain.Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.Category]int)
	for _, e := range s.data {
		if e.IsActive {
			counts[e.Category]++
		}
	}
	return counts, nil
}

// ListArchivedBefore retrieves entries archived before the cutoff.
func (s *CatalogStore) ListArchivedBefore(_ context.Context, cutoff int64) ([]*domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CatalogEntry
	for _, e := range s.data {
		if e.ArchivedAt != nil && *e.ArchivedAt < cutoff {
			result = append(result, copyEntry(e))
		}
	}
	sortByEntryID(result)
	return result, nil
}

// ListActiveAcquiredBefore retrieves active entries acquired before the
// cutoff whose score is below maxScore.
func (s *CatalogStore) ListActiveAcquiredBefore(_ context.Context, cutoff int64, maxScore float64) ([]*domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CatalogEntry
	for _, e := range s.data {
		if e.IsActive && e.AcquiredAt < cutoff && e.Score < maxScore {
			result = append(result, copyEntry(e))
		}
	}
	sortByEntryID(result)
	return result, nil
}

// Delete hard-deletes an entry.
func (s *CatalogStore) Delete(_ context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[entryID]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, entryID)
	return nil
}

func copyEntry(e *domain.CatalogEntry) *domain.CatalogEntry {
	entryCopy := *e
	if e.Year != nil {
		year := *e.Year
		entryCopy.Year = &year
	}
	if e.ConditionEstimate != nil {
		cond := *e.ConditionEstimate
		entryCopy.ConditionEstimate = &cond
	}
	if e.UserInterest != nil {
		interest := *e.UserInterest
		entryCopy.UserInterest = &interest
	}
	if e.ArchivedAt != nil {
		archived := *e.ArchivedAt
		entryCopy.ArchivedAt = &archived
	}
	entryCopy.ImageURLs = append([]string(nil), e.ImageURLs...)
	return &entryCopy
}

func sortByEntryID(entries []*domain.CatalogEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EntryID < entries[j].EntryID
	})
}

// Verify interface compliance at compile time.
var _ storage.CatalogStore = (*CatalogStore)(nil)
