package lifecycle

import (
	"context"
	"fmt"
)

// SanitizeResult contains results from one sanitizer sweep.
type SanitizeResult struct {
	Purged       int // archived entries hard-deleted past retention
	SoftArchived int // aged low scorers moved out of the active catalog
	Errors       []string
}

// Sanitize keeps the catalog lean without destroying audit history
// prematurely: entries archived longer than the retention window are
// hard-deleted, and active entries that are both old and persistently
// low-scoring are soft-archived.
func (m *Manager) Sanitize(ctx context.Context) (*SanitizeResult, error) {
	result := &SanitizeResult{}
	nowMs := m.now().UnixMilli()

	purgeCutoff := nowMs - m.cfg.ArchiveRetention.Milliseconds()
	expired, err := m.catalog.ListArchivedBefore(ctx, purgeCutoff)
	if err != nil {
		return nil, fmt.Errorf("list expired archives: %w", err)
	}
	for _, e := range expired {
		if ctx.Err() != nil {
			break
		}
		if err := m.catalog.Delete(ctx, e.EntryID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("purge %s: %v", e.EntryID, err))
			continue
		}
		result.Purged++
		if m.metrics != nil {
			m.metrics.EntriesPurged.Inc()
		}
	}

	staleCutoff := nowMs - m.cfg.StaleEntryAge.Milliseconds()
	stale, err := m.catalog.ListActiveAcquiredBefore(ctx, staleCutoff, m.cfg.StaleEntryScore)
	if err != nil {
		return nil, fmt.Errorf("list stale low scorers: %w", err)
	}
	for _, e := range stale {
		if ctx.Err() != nil {
			break
		}
		if err := m.catalog.Archive(ctx, e.EntryID, nowMs); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("soft-archive %s: %v", e.EntryID, err))
			continue
		}
		result.SoftArchived++
	}

	m.log("Sanitizer: %d purged, %d soft-archived, %d errors",
		result.Purged, result.SoftArchived, len(result.Errors))

	return result, nil
}
