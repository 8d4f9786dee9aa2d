// Package lifecycle keeps committed catalog entries honest against
// their source listings: archive what disappeared, reprice what
// changed, and periodically sweep out what no longer earns its place.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"bike-curation/internal/domain"
	"bike-curation/internal/notify"
	"bike-curation/internal/observability"
	"bike-curation/internal/profit"
	"bike-curation/internal/scoring"
	"bike-curation/internal/source"
	"bike-curation/internal/storage"
)

// Config holds lifecycle tunables.
type Config struct {
	BatchSize int

	// A price drop notifies when it exceeds either threshold.
	PriceDropRelPct float64
	PriceDropAbs    float64

	// Sanitizer windows.
	ArchiveRetention time.Duration // hard-delete archived entries after this
	StaleEntryAge    time.Duration // soft-archive low scorers older than this
	StaleEntryScore  float64       // "low scoring" ceiling for soft-archive

	// Jittered inter-item delay, the same politeness contract the
	// acquisition pipeline honors.
	ItemDelay  time.Duration
	ItemJitter time.Duration
}

// Manager re-checks catalog entries against their source listings.
type Manager struct {
	catalog    storage.CatalogStore
	checker    source.Checker
	calculator *profit.Calculator
	scorer     *scoring.Service
	notifier   notify.Sink
	metrics    *observability.Metrics

	cfg     Config
	verbose bool
	rng     *rand.Rand
	now     func() time.Time
}

// Options for creating a Manager.
type Options struct {
	Catalog    storage.CatalogStore
	Checker    source.Checker
	Calculator *profit.Calculator
	Scorer     *scoring.Service

	// Optional; nil Notifier discards notifications, nil Metrics
	// disables instrumentation.
	Notifier notify.Sink
	Metrics  *observability.Metrics

	Config  Config
	Verbose bool
}

// New creates a new Manager.
func New(opts Options) *Manager {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NoopSink{}
	}
	cfg := opts.Config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	return &Manager{
		catalog:    opts.Catalog,
		checker:    opts.Checker,
		calculator: opts.Calculator,
		scorer:     opts.Scorer,
		notifier:   notifier,
		metrics:    opts.Metrics,
		cfg:        cfg,
		verbose:    opts.Verbose,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
}

// WithClock overrides the time source for deterministic tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// RunResult contains results from one lifecycle pass.
type RunResult struct {
	Checked      int
	Archived     int
	PriceChanged int
	Unchanged    int
	Notified     int
	Errors       []string
}

// RunTier re-checks one staleness-ordered batch of active entries for
// the given tier (all tiers when nil). Outcomes are independent per
// item; a transient fetch failure leaves the entry untouched so the
// next cycle retries it.
func (m *Manager) RunTier(ctx context.Context, tier *domain.Tier) (*RunResult, error) {
	result := &RunResult{}

	entries, err := m.catalog.ListStaleActive(ctx, tier, m.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list stale entries: %w", err)
	}
	m.log("Re-checking %d entries (tier %s)", len(entries), tierLabel(tier))

	for _, e := range entries {
		if ctx.Err() != nil {
			m.log("Cancelled after %d checks", result.Checked)
			break
		}
		m.politenessDelay(ctx)

		result.Checked++
		if err := m.checkEntry(ctx, e, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("check %s: %v", e.SourceURL, err))
			m.outcome("error")
		}
	}

	if m.metrics != nil {
		m.metrics.LastSuccessfulLifecycle.Set(float64(m.now().Unix()))
	}
	m.log("Pass completed: %d checked, %d archived, %d repriced, %d unchanged, %d errors",
		result.Checked, result.Archived, result.PriceChanged, result.Unchanged, len(result.Errors))

	return result, nil
}

func (m *Manager) checkEntry(ctx context.Context, e *domain.CatalogEntry, result *RunResult) error {
	res, err := m.checker.Check(ctx, e.SourceURL)
	if err != nil {
		// Transient. The entry stays stale and is retried next cycle;
		// a single failed fetch never archives anything.
		return err
	}

	nowMs := m.now().UnixMilli()
	switch {
	case res.Gone:
		if err := m.catalog.Archive(ctx, e.EntryID, nowMs); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		result.Archived++
		m.outcome("gone")
		if m.metrics != nil {
			m.metrics.EntriesArchived.Inc()
		}
		m.log("  Archived %s", e.SourceURL)

	case res.HasPrice && res.Price != e.Price:
		if err := m.reprice(ctx, e, res.Price, result); err != nil {
			return err
		}
		result.PriceChanged++
		m.outcome("price_changed")

	default:
		if err := m.catalog.TouchSync(ctx, e.EntryID, nowMs); err != nil {
			return fmt.Errorf("touch: %w", err)
		}
		result.Unchanged++
		m.outcome("unchanged")
	}
	return nil
}

// reprice updates pricing, recomputes score and tier, and notifies on a
// significant drop.
func (m *Manager) reprice(ctx context.Context, e *domain.CatalogEntry, newPrice float64, result *RunResult) error {
	est, err := m.calculator.Estimate(ctx, &domain.Candidate{
		SourceURL: e.SourceURL,
		Brand:     e.Brand,
		Model:     e.Model,
		Price:     newPrice,
	})
	if err != nil {
		return fmt.Errorf("reprice profit: %w", err)
	}

	nowMs := m.now().UnixMilli()
	ageDays := float64(nowMs-e.AcquiredAt) / float64(24*time.Hour/time.Millisecond)
	// The stored condition and interest signals go back into the rescore
	// so only the price-dependent components move with the new price.
	breakdown := m.scorer.Score(scoring.Input{
		Profit:       est.Profit,
		ProfitPct:    est.ProfitPct,
		ProfitMethod: est.Method,
		Condition:    e.ConditionEstimate,
		UserInterest: e.UserInterest,
		Brand:        e.Brand,
		Price:        newPrice,
		AgeDays:      ageDays,
	})
	tier := domain.TierForScore(breakdown.Total)

	if err := m.catalog.UpdatePricing(ctx, e.EntryID, newPrice, est.Profit, breakdown.Total, tier, nowMs); err != nil {
		return fmt.Errorf("reprice update: %w", err)
	}
	m.log("  Repriced %s: %.2f -> %.2f (score %.1f, tier %s)", e.SourceURL, e.Price, newPrice, breakdown.Total, tier)

	drop := e.Price - newPrice
	significant := drop >= m.cfg.PriceDropAbs ||
		(e.Price > 0 && drop/e.Price >= m.cfg.PriceDropRelPct)
	if drop > 0 && significant {
		m.notifier.NotifyPriceDrop(e, e.Price, newPrice, breakdown.Total)
		result.Notified++
		if m.metrics != nil {
			m.metrics.NotificationsSent.WithLabelValues("price_drop").Inc()
		}
	}
	return nil
}

func (m *Manager) politenessDelay(ctx context.Context) {
	delay := m.cfg.ItemDelay
	if m.cfg.ItemJitter > 0 {
		delay += time.Duration(m.rng.Int63n(int64(m.cfg.ItemJitter)))
	}
	if delay <= 0 {
		return
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (m *Manager) outcome(label string) {
	if m.metrics != nil {
		m.metrics.LifecycleChecks.WithLabelValues(label).Inc()
	}
}

func tierLabel(tier *domain.Tier) string {
	if tier == nil {
		return "all"
	}
	return string(*tier)
}

func (m *Manager) log(format string, args ...interface{}) {
	if m.verbose {
		log.Printf("[lifecycle] "+format, args...)
	}
}
