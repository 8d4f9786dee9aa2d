package memory

import (
	"context"
	"errors"
	"testing"

	"bike-curation/internal/domain"
	"bike-curation/internal/storage"
)

func testEntry(id, url string, tier domain.Tier, score float64, lastSync int64) *domain.CatalogEntry {
	return &domain.CatalogEntry{
		EntryID:    id,
		SourceURL:  url,
		Brand:      "Cube",
		Model:      "Stereo 140",
		Category:   domain.CategoryMTB,
		Grade:      domain.GradeB,
		Price:      1400,
		Currency:   "EUR",
		Score:      score,
		Tier:       tier,
		IsActive:   true,
		AcquiredAt: lastSync,
		LastSyncAt: lastSync,
	}
}

func TestCatalogStore_UpsertAndGet(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	e := testEntry("entry-1", "https://example.com/bike-1", domain.TierHot, 8, 1000)
	if err := store.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	byURL, err := store.GetByURL(ctx, "https://example.com/bike-1")
	if err != nil {
		t.Fatalf("GetByURL failed: %v", err)
	}
	if byURL.EntryID != "entry-1" {
		t.Errorf("EntryID mismatch: got %s, want entry-1", byURL.EntryID)
	}

	byID, err := store.GetByID(ctx, "entry-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.SourceURL != e.SourceURL {
		t.Errorf("SourceURL mismatch: got %s, want %s", byID.SourceURL, e.SourceURL)
	}
}

func TestCatalogStore_NotFound(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	if _, err := store.GetByURL(ctx, "https://example.com/none"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.Archive(ctx, "none", 1000); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Archive, got %v", err)
	}
	if err := store.Delete(ctx, "none"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Delete, got %v", err)
	}
}

func TestCatalogStore_ListStaleActive(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	seed := []*domain.CatalogEntry{
		testEntry("entry-1", "https://example.com/1", domain.TierHot, 8, 3000),
		testEntry("entry-2", "https://example.com/2", domain.TierHot, 8, 1000),
		testEntry("entry-3", "https://example.com/3", domain.TierCold, 3, 2000),
	}
	for _, e := range seed {
		if err := store.Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}
	if err := store.Archive(ctx, "entry-1", 4000); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	// Nil tier matches all tiers; archived entries are excluded.
	all, err := store.ListStaleActive(ctx, nil, 10)
	if err != nil {
		t.Fatalf("ListStaleActive failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 active entries, got %d", len(all))
	}
	// Stalest first.
	if all[0].EntryID != "entry-2" {
		t.Errorf("Expected oldest last_sync_at first, got %s", all[0].EntryID)
	}

	hot := domain.TierHot
	hotOnly, err := store.ListStaleActive(ctx, &hot, 10)
	if err != nil {
		t.Fatalf("ListStaleActive failed: %v", err)
	}
	if len(hotOnly) != 1 || hotOnly[0].EntryID != "entry-2" {
		t.Errorf("Expected only the active hot entry, got %v", hotOnly)
	}
}

func TestCatalogStore_ArchiveSingleWrite(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, testEntry("entry-1", "https://example.com/1", domain.TierHot, 8, 1000)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Archive(ctx, "entry-1", 5000); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	got, err := store.GetByID(ctx, "entry-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.IsActive {
		t.Error("archived entry still active")
	}
	if got.ArchivedAt == nil || *got.ArchivedAt != 5000 {
		t.Errorf("ArchivedAt mismatch: got %v, want 5000", got.ArchivedAt)
	}
}

func TestCatalogStore_UpdatePricingAndTouch(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, testEntry("entry-1", "https://example.com/1", domain.TierHot, 8, 1000)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := store.UpdatePricing(ctx, "entry-1", 1200, 280, 6.5, domain.TierMedium, 2000); err != nil {
		t.Fatalf("UpdatePricing failed: %v", err)
	}
	got, err := store.GetByID(ctx, "entry-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Price != 1200 || got.ProjectedProfit != 280 || got.Score != 6.5 || got.Tier != domain.TierMedium {
		t.Errorf("pricing fields not updated: %+v", got)
	}
	if got.LastSyncAt != 2000 {
		t.Errorf("LastSyncAt mismatch: got %d, want 2000", got.LastSyncAt)
	}

	if err := store.TouchSync(ctx, "entry-1", 3000); err != nil {
		t.Fatalf("TouchSync failed: %v", err)
	}
	got, err = store.GetByID(ctx, "entry-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.LastSyncAt != 3000 {
		t.Errorf("LastSyncAt mismatch after touch: got %d, want 3000", got.LastSyncAt)
	}
	if got.Price != 1200 {
		t.Error("TouchSync must not modify pricing fields")
	}
}

func TestCatalogStore_CountActiveByCategory(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	mtb1 := testEntry("entry-1", "https://example.com/1", domain.TierHot, 8, 1000)
	mtb2 := testEntry("entry-2", "https://example.com/2", domain.TierHot, 8, 1000)
	gravel := testEntry("entry-3", "https://example.com/3", domain.TierHot, 8, 1000)
	gravel.Category = domain.CategoryGravel
	for _, e := range []*domain.CatalogEntry{mtb1, mtb2, gravel} {
		if err := store.Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}
	if err := store.Archive(ctx, "entry-2", 2000); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	counts, err := store.CountActiveByCategory(ctx)
	if err != nil {
		t.Fatalf("CountActiveByCategory failed: %v", err)
	}
	if counts[domain.CategoryMTB] != 1 {
		t.Errorf("Expected 1 active MTB, got %d", counts[domain.CategoryMTB])
	}
	if counts[domain.CategoryGravel] != 1 {
		t.Errorf("Expected 1 active gravel, got %d", counts[domain.CategoryGravel])
	}
}

func TestCatalogStore_SanitizerQueries(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	oldArchive := testEntry("entry-1", "https://example.com/1", domain.TierCold, 3, 1000)
	freshArchive := testEntry("entry-2", "https://example.com/2", domain.TierCold, 3, 1000)
	staleLow := testEntry("entry-3", "https://example.com/3", domain.TierCold, 2, 1000)
	staleLow.AcquiredAt = 500
	keeper := testEntry("entry-4", "https://example.com/4", domain.TierHot, 9, 1000)
	keeper.AcquiredAt = 500
	for _, e := range []*domain.CatalogEntry{oldArchive, freshArchive, staleLow, keeper} {
		if err := store.Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}
	if err := store.Archive(ctx, "entry-1", 2000); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if err := store.Archive(ctx, "entry-2", 9000); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	archived, err := store.ListArchivedBefore(ctx, 5000)
	if err != nil {
		t.Fatalf("ListArchivedBefore failed: %v", err)
	}
	if len(archived) != 1 || archived[0].EntryID != "entry-1" {
		t.Errorf("Expected only the old archive, got %v", archived)
	}

	stale, err := store.ListActiveAcquiredBefore(ctx, 800, 3.0)
	if err != nil {
		t.Fatalf("ListActiveAcquiredBefore failed: %v", err)
	}
	if len(stale) != 1 || stale[0].EntryID != "entry-3" {
		t.Errorf("Expected only the stale low scorer, got %v", stale)
	}

	if err := store.Delete(ctx, "entry-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetByID(ctx, "entry-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}
