package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

// CandidateStore is an in-memory implementation of storage.CandidateStore.
type CandidateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Candidate // keyed by source_url

	// catalog backs the ExcludeExisting filter; nil disables it.
	catalog storage.CatalogStore
}

// NewCandidateStore creates a new in-memory candidate store. catalog may
// be nil when de-duplication against the live catalog is not needed.
func NewCandidateStore(catalog storage.CatalogStore) *CandidateStore {
	return &CandidateStore{
		data:    make(map[string]*domain.Candidate),
		catalog: catalog,
	}
}

// Upsert inserts or replaces a candidate keyed by source_url.
func (s *CandidateStore) Upsert(_ context.Context, c *domain.Candidate) error {
	if c == nil || c.SourceURL == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	candidateCopy := *c
	s.data[c.SourceURL] = &candidateCopy
	return nil
}

// GetByURL retrieves a candidate. Returns ErrNotFound if not exists.
func (s *CandidateStore) GetByURL(_ context.Context, sourceURL string) (*domain.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[sourceURL]
	if !exists {
		return nil, storage.ErrNotFound
	}

	candidateCopy := *c
	return &candidateCopy, nil
}

// Query retrieves candidates matching the filter, newest scrape first.
func (s *CandidateStore) Query(ctx context.Context, f storage.CandidateFilter) ([]*domain.Candidate, error) {
	s.mu.RLock()
	var result []*domain.Candidate
	for _, c := range s.data {
		if matchesFilter(c, f) {
			candidateCopy := *c
			result = append(result, &candidateCopy)
		}
	}
	s.mu.RUnlock()

	if f.ExcludeExisting && s.catalog != nil {
		filtered := result[:0]
		for _, c := range result {
			_, err := s.catalog.GetByURL(ctx, c.SourceURL)
			if err == nil {
				continue
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			filtered = append(filtered, c)
		}
		result = filtered
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ScrapedAt != result[j].ScrapedAt {
			return result[i].ScrapedAt > result[j].ScrapedAt
		}
		return result[i].SourceURL < result[j].SourceURL
	})

	return result, nil
}

func matchesFilter(c *domain.Candidate, f storage.CandidateFilter) bool {
	if f.Brand != "" && !strings.EqualFold(c.Brand, f.Brand) {
		return false
	}
	if f.PriceMin > 0 && c.Price < f.PriceMin {
		return false
	}
	if f.PriceMax > 0 && c.Price > f.PriceMax {
		return false
	}
	// Unknown year stays eligible.
	if f.MinYear > 0 && c.Year != nil && *c.Year < f.MinYear {
		return false
	}
	if f.ScrapedAfter > 0 && c.ScrapedAt < f.ScrapedAfter {
		return false
	}
	if len(f.CategoryKeywords) > 0 {
		haystack := strings.ToLower(c.Title)
		if c.Category != nil {
			haystack += " " + strings.ToLower(*c.Category)
		}
		matched := false
		for _, kw := range f.CategoryKeywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Verify interface compliance at compile time.
var _ storage.CandidateStore = (*CandidateStore)(nil)
