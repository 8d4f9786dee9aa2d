package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

func TestCandidateStore_UpsertAndGetByURL(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandidateStore(pool)
	ctx := context.Background()

	candidate := &domain.Candidate{
		SourceURL:         "https://example.com/cube-stereo",
		Brand:             "Cube",
		Model:             "Stereo 140",
		Title:             "Cube Stereo 140 HPC fully",
		Price:             1400,
		Currency:          "EUR",
		Year:              ptr(2021),
		Category:          ptr("mountainbikes"),
		PickupOnly:        true,
		ConditionEstimate: ptr(7.5),
		ImageURLs:         []string{"https://example.com/photo-1.jpg", "https://example.com/photo-2.jpg"},
		ScrapedAt:         1700000000000,
	}

	err := store.Upsert(ctx, candidate)
	require.NoError(t, err)

	retrieved, err := store.GetByURL(ctx, "https://example.com/cube-stereo")
	require.NoError(t, err)

	assert.Equal(t, candidate.Brand, retrieved.Brand)
	assert.Equal(t, candidate.Model, retrieved.Model)
	assert.Equal(t, candidate.Price, retrieved.Price)
	assert.Equal(t, *candidate.Year, *retrieved.Year)
	assert.Equal(t, *candidate.Category, *retrieved.Category)
	assert.True(t, retrieved.PickupOnly)
	assert.False(t, retrieved.OnPickupRoute)
	assert.Equal(t, *candidate.ConditionEstimate, *retrieved.ConditionEstimate)
	assert.Nil(t, retrieved.UserInterest)
	assert.Equal(t, candidate.ImageURLs, retrieved.ImageURLs)
	assert.Equal(t, candidate.ScrapedAt, retrieved.ScrapedAt)
	assert.NotZero(t, retrieved.CreatedAt)
}

func TestCandidateStore_UpsertSupersedes(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandidateStore(pool)
	ctx := context.Background()

	candidate := &domain.Candidate{
		SourceURL: "https://example.com/cube-stereo",
		Brand:     "Cube",
		Title:     "Cube Stereo 140",
		Price:     1400,
		Currency:  "EUR",
		ScrapedAt: 1700000000000,
	}
	require.NoError(t, store.Upsert(ctx, candidate))

	// Re-scrape with a lower price replaces the row.
	candidate.Price = 1300
	candidate.ScrapedAt = 1700000100000
	require.NoError(t, store.Upsert(ctx, candidate))

	retrieved, err := store.GetByURL(ctx, "https://example.com/cube-stereo")
	require.NoError(t, err)
	assert.Equal(t, 1300.0, retrieved.Price)
	assert.Equal(t, int64(1700000100000), retrieved.ScrapedAt)
}

func TestCandidateStore_GetByURLNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandidateStore(pool)

	_, err := store.GetByURL(context.Background(), "https://example.com/nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCandidateStore_QueryFilters(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandidateStore(pool)
	ctx := context.Background()

	seed := []*domain.Candidate{
		{
			SourceURL: "https://example.com/mtb",
			Brand:     "Cube",
			Title:     "Cube Stereo 140 fully",
			Price:     1400,
			Currency:  "EUR",
			Year:      ptr(2021),
			ScrapedAt: 3000,
		},
		{
			SourceURL: "https://example.com/gravel",
			Brand:     "Canyon",
			Title:     "Canyon Grizl gravel",
			Price:     1700,
			Currency:  "EUR",
			ScrapedAt: 2000,
		},
		{
			SourceURL: "https://example.com/old",
			Brand:     "Trek",
			Title:     "Trek 4300 mtb",
			Price:     400,
			Currency:  "EUR",
			Year:      ptr(2012),
			ScrapedAt: 1000,
		},
	}
	for _, c := range seed {
		require.NoError(t, store.Upsert(ctx, c))
	}

	// Brand filter, case-insensitive.
	got, err := store.Query(ctx, storage.CandidateFilter{Brand: "cube"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/mtb", got[0].SourceURL)

	// Keyword filter against title text.
	got, err = store.Query(ctx, storage.CandidateFilter{CategoryKeywords: []string{"gravel", "cyclocross"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Canyon", got[0].Brand)

	// MinYear excludes known-old years, keeps NULL years.
	got, err = store.Query(ctx, storage.CandidateFilter{MinYear: 2015})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, c := range got {
		assert.NotEqual(t, "https://example.com/old", c.SourceURL)
	}

	// Newest scrape first with no filter.
	got, err = store.Query(ctx, storage.CandidateFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "https://example.com/mtb", got[0].SourceURL)
}

func TestCandidateStore_QueryExcludeExisting(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	candidates := NewCandidateStore(pool)
	catalog := NewCatalogStore(pool)
	ctx := context.Background()

	require.NoError(t, candidates.Upsert(ctx, &domain.Candidate{
		SourceURL: "https://example.com/owned",
		Brand:     "Cube",
		Title:     "Cube Stereo 140",
		Price:     1400,
		Currency:  "EUR",
		ScrapedAt: 1000,
	}))
	require.NoError(t, candidates.Upsert(ctx, &domain.Candidate{
		SourceURL: "https://example.com/fresh",
		Brand:     "Trek",
		Title:     "Trek Fuel EX 8",
		Price:     1900,
		Currency:  "EUR",
		ScrapedAt: 2000,
	}))

	require.NoError(t, catalog.Upsert(ctx, &domain.CatalogEntry{
		EntryID:    "entry-owned",
		SourceURL:  "https://example.com/owned",
		Brand:      "Cube",
		Model:      "Stereo 140",
		Category:   domain.CategoryMTB,
		Grade:      domain.GradeB,
		Price:      1400,
		Currency:   "EUR",
		Tier:       domain.TierHot,
		IsActive:   true,
		AcquiredAt: 1500,
		LastSyncAt: 1500,
	}))

	got, err := candidates.Query(ctx, storage.CandidateFilter{ExcludeExisting: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/fresh", got[0].SourceURL)
}
