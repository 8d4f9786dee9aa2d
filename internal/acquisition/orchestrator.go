// Package acquisition runs the buy-side pipeline.
// Flow per strategy: fetching → curating → enriching → profit gating →
// committing, over a priority queue of strategies derived at planning
// time.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"time"

	"bike-curation/internal/classify"
	"bike-curation/internal/domain"
	"bike-curation/internal/enrichment"
	"bike-curation/internal/idhash"
	"bike-curation/internal/notify"
	"bike-curation/internal/observability"
	"bike-curation/internal/profit"
	"bike-curation/internal/scoring"
	"bike-curation/internal/storage"
	"bike-curation/internal/supplygap"
)

// frameOnlyMarkers flag listings that are not a complete bike. Titles
// are matched case-insensitively.
var frameOnlyMarkers = []string{
	"frame only", "frameset", "frame set", "nur rahmen", "rahmenset",
	"parts only", "for parts", "ersatzteile", "wheelset", "laufradsatz",
	"fork only",
}

// Orchestrator coordinates one acquisition run end to end.
type Orchestrator struct {
	// Stores
	candidateStore storage.CandidateStore
	catalogStore   storage.CatalogStore
	bountyStore    storage.BountyStore

	// Collaborators
	planner    *Planner
	calculator *profit.Calculator
	scorer     *scoring.Service
	classifier classify.Classifier
	gateway    enrichment.Gateway
	notifier   notify.Sink
	metrics    *observability.Metrics

	// Options
	minConfidence  float64
	maxRunAttempts int
	itemDelay      time.Duration
	itemJitter     time.Duration
	minYear        int
	verbose        bool

	rng *rand.Rand
	now func() time.Time
}

// Options for creating an Orchestrator.
type Options struct {
	// Required stores
	CandidateStore storage.CandidateStore
	CatalogStore   storage.CatalogStore
	BountyStore    storage.BountyStore

	// Required collaborators
	Planner    *Planner
	Calculator *profit.Calculator
	Scorer     *scoring.Service
	Classifier classify.Classifier
	Gateway    enrichment.Gateway

	// Optional; nil Notifier means notifications are discarded, nil
	// Metrics disables instrumentation.
	Notifier notify.Sink
	Metrics  *observability.Metrics

	// Options
	MinConfidence  float64 // enrichment acceptance threshold
	MaxRunAttempts int     // strategy pops per run, termination ceiling
	ItemDelay      time.Duration
	ItemJitter     time.Duration
	MinYear        int // known model years older than this are excluded
	Verbose        bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NoopSink{}
	}
	maxAttempts := opts.MaxRunAttempts
	if maxAttempts <= 0 {
		maxAttempts = 50
	}
	return &Orchestrator{
		candidateStore: opts.CandidateStore,
		catalogStore:   opts.CatalogStore,
		bountyStore:    opts.BountyStore,
		planner:        opts.Planner,
		calculator:     opts.Calculator,
		scorer:         opts.Scorer,
		classifier:     opts.Classifier,
		gateway:        opts.Gateway,
		notifier:       notifier,
		metrics:        opts.Metrics,
		minConfidence:  opts.MinConfidence,
		maxRunAttempts: maxAttempts,
		itemDelay:      opts.ItemDelay,
		itemJitter:     opts.ItemJitter,
		minYear:        opts.MinYear,
		verbose:        opts.Verbose,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		now:            time.Now,
	}
}

// WithClock overrides the time source for deterministic tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// RunResult contains results from one acquisition run.
type RunResult struct {
	StrategiesPlanned int
	StrategiesRun     int
	CandidatesFetched int
	Committed         int
	FallbackCommits   int
	BountyMatches     int
	Requeued          int
	Dropped           int
	Errors            []string
}

// Run executes one acquisition run toward the target count. Strategies
// pop from the queue highest priority first; the attempts ceiling
// guarantees termination even when every strategy keeps requeueing.
// Individual candidate failures land in result.Errors, never abort the
// run.
func (o *Orchestrator) Run(ctx context.Context, target int) (*RunResult, error) {
	result := &RunResult{}

	o.log("Phase PLANNING: deriving strategies for target %d", target)
	queue, err := o.planner.Plan(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("planning failed: %w", err)
	}
	result.StrategiesPlanned = queue.Len()
	o.log("  Planned %d strategies", queue.Len())

	openBounties, err := o.bountyStore.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("load open bounties: %w", err)
	}

	attempts := 0
	for result.Committed < target && attempts < o.maxRunAttempts {
		if ctx.Err() != nil {
			o.log("Run cancelled after %d commits", result.Committed)
			break
		}

		strat := queue.Next()
		if strat == nil {
			break
		}
		attempts++
		result.StrategiesRun++

		o.log("Strategy %s/%q prio %d quota %d", strat.Category, strat.Brand, strat.Priority, strat.Quota)
		yield := o.runStrategy(ctx, strat, target-result.Committed, openBounties, result)
		result.Committed += yield

		switch {
		case yield == 0:
			result.Dropped++
			if o.metrics != nil {
				o.metrics.StrategiesDropped.Inc()
			}
		case yield < strat.Quota:
			if queue.Requeue(strat) {
				result.Requeued++
				if o.metrics != nil {
					o.metrics.StrategiesRequeued.Inc()
				}
			} else {
				result.Dropped++
			}
		}
	}

	if o.metrics != nil {
		o.metrics.LastSuccessfulAcquisition.Set(float64(o.now().Unix()))
	}
	o.log("Run completed: %d committed, %d strategies run, %d errors",
		result.Committed, result.StrategiesRun, len(result.Errors))

	return result, nil
}

// runStrategy executes fetching through committing for one strategy and
// returns how many entries it committed.
func (o *Orchestrator) runStrategy(ctx context.Context, strat *domain.Strategy, remaining int, openBounties []*domain.Bounty, result *RunResult) int {
	candidates, err := o.candidateStore.Query(ctx, storage.CandidateFilter{
		Brand:            strat.Brand,
		CategoryKeywords: categorySearchKeywords[strat.Category],
		PriceMin:         strat.PriceMin,
		PriceMax:         strat.PriceMax,
		MinYear:          o.minYear,
		ExcludeExisting:  true,
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fetch %s/%q: %v", strat.Category, strat.Brand, err))
		return 0
	}
	result.CandidatesFetched += len(candidates)
	if o.metrics != nil {
		o.metrics.CandidatesEvaluated.Add(float64(len(candidates)))
	}
	o.log("  Fetched %d candidates", len(candidates))

	quota := strat.Quota
	if quota > remaining {
		quota = remaining
	}

	yield := 0
	for _, cand := range o.rankCandidates(ctx, candidates) {
		if yield >= quota {
			break
		}
		// Cancellation is honored between items only; an item in flight
		// finishes so no partial entry is ever committed.
		if ctx.Err() != nil {
			break
		}
		o.politenessDelay(ctx)

		if o.processCandidate(ctx, cand, strat, openBounties, result) {
			yield++
		}
	}
	return yield
}

// rankCandidates orders a strategy's candidates by provisional
// desirability so a contested quota goes to the highest-scoring
// candidates, not the freshest scrapes. Candidates whose profit cannot
// be estimated sort last; processCandidate still owns the
// authoritative gates.
func (o *Orchestrator) rankCandidates(ctx context.Context, candidates []*domain.Candidate) []*domain.Candidate {
	if len(candidates) < 2 {
		return candidates
	}

	nowMs := o.now().UnixMilli()
	scores := make(map[string]float64, len(candidates))
	for _, cand := range candidates {
		scores[cand.SourceURL] = -1
		est, err := o.calculator.Estimate(ctx, cand)
		if err != nil {
			continue
		}
		ageDays := float64(nowMs-cand.ScrapedAt) / float64(24*time.Hour/time.Millisecond)
		scores[cand.SourceURL] = o.scorer.Score(scoring.Input{
			Profit:       est.Profit,
			ProfitPct:    est.ProfitPct,
			ProfitMethod: est.Method,
			Condition:    cand.ConditionEstimate,
			UserInterest: cand.UserInterest,
			Brand:        cand.Brand,
			Price:        cand.Price,
			AgeDays:      ageDays,
		}).Total
	}

	ranked := append([]*domain.Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].SourceURL] > scores[ranked[j].SourceURL]
	})
	return ranked
}

// processCandidate takes one candidate through curating, enriching,
// profit gating and committing. Returns true on commit.
func (o *Orchestrator) processCandidate(ctx context.Context, cand *domain.Candidate, strat *domain.Strategy, openBounties []*domain.Bounty, result *RunResult) bool {
	// CURATING
	if reason := curationReject(cand); reason != "" {
		o.reject("curating", cand.SourceURL, reason)
		return false
	}

	var catText string
	if cand.Category != nil {
		catText = *cand.Category
	}
	category := o.classifier.Classify(cand.Title, catText)
	if category == domain.CategoryUnknown {
		category = strat.Category
	}

	// ENRICHING
	fallback := false
	rec, confidence, err := o.gateway.Enrich(ctx, cand)
	if err != nil {
		if !errors.Is(err, enrichment.ErrUnparseable) {
			result.Errors = append(result.Errors, fmt.Sprintf("enrich %s: %v", cand.SourceURL, err))
			o.reject("enriching", cand.SourceURL, "transient enrichment failure")
			return false
		}
		// Unparseable output degrades to a synthesized record instead of
		// dropping the candidate.
		log.Printf("[acquisition] quality warning: unparseable enrichment for %s, using fallback record", cand.SourceURL)
		rec = enrichment.Synthesize(cand, category)
		fallback = true
	} else if confidence < o.minConfidence {
		o.reject("enriching", cand.SourceURL, fmt.Sprintf("confidence %.2f below threshold", confidence))
		return false
	}
	if rec.Category == "" || rec.Category == domain.CategoryUnknown {
		rec.Category = category
	}

	// PROFIT_GATING
	est, err := o.calculator.Estimate(ctx, cand)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("profit %s: %v", cand.SourceURL, err))
		return false
	}
	if est.Profit <= 0 {
		o.reject("profit_gating", cand.SourceURL, fmt.Sprintf("projected profit %.2f", est.Profit))
		return false
	}

	nowMs := o.now().UnixMilli()
	ageDays := float64(nowMs-cand.ScrapedAt) / float64(24*time.Hour/time.Millisecond)
	breakdown := o.scorer.Score(scoring.Input{
		Profit:       est.Profit,
		ProfitPct:    est.ProfitPct,
		ProfitMethod: est.Method,
		Condition:    cand.ConditionEstimate,
		UserInterest: cand.UserInterest,
		Brand:        cand.Brand,
		Price:        cand.Price,
		AgeDays:      ageDays,
	})

	// COMMITTING
	if _, err := o.catalogStore.GetByURL(ctx, cand.SourceURL); err == nil {
		o.reject("committing", cand.SourceURL, "already in catalog")
		return false
	} else if !errors.Is(err, storage.ErrNotFound) {
		result.Errors = append(result.Errors, fmt.Sprintf("dedup %s: %v", cand.SourceURL, err))
		return false
	}

	year := rec.Year
	if year == nil {
		year = cand.Year
	}
	entry := &domain.CatalogEntry{
		EntryID:            idhash.ComputeEntryID(cand.SourceURL),
		SourceURL:          cand.SourceURL,
		Brand:              rec.Brand.Raw,
		Model:              rec.Model.Raw,
		Year:               year,
		Category:           rec.Category,
		Grade:              rec.Grade,
		Price:              cand.Price,
		Currency:           cand.Currency,
		ProjectedProfit:    est.Profit,
		ProfitMethod:       est.Method,
		Score:              breakdown.Total,
		Tier:               domain.TierForScore(breakdown.Total),
		ConditionEstimate:  cand.ConditionEstimate,
		UserInterest:       cand.UserInterest,
		FallbackEnrichment: fallback,
		ImageURLs:          cand.ImageURLs,
		IsActive:           true,
		AcquiredAt:         nowMs,
		LastSyncAt:         nowMs,
	}
	if err := o.catalogStore.Upsert(ctx, entry); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("commit %s: %v", cand.SourceURL, err))
		return false
	}

	if fallback {
		result.FallbackCommits++
		if o.metrics != nil {
			o.metrics.FallbackCommits.Inc()
		}
	}
	if o.metrics != nil {
		o.metrics.EntriesCommitted.Inc()
	}
	o.log("  Committed %s (score %.1f, tier %s)", entry.SourceURL, entry.Score, entry.Tier)

	for _, b := range supplygap.MatchOpen(openBounties, supplygap.ListingFromEntry(entry)) {
		result.BountyMatches++
		if o.metrics != nil {
			o.metrics.BountyMatches.Inc()
			o.metrics.NotificationsSent.WithLabelValues("bounty_match").Inc()
		}
		o.notifier.NotifyBountyMatch(entry, b)
	}

	return true
}

// curationReject returns a human-readable reason when the candidate
// fails curation, or "" when it passes.
func curationReject(cand *domain.Candidate) string {
	title := strings.ToLower(cand.Title)
	for _, marker := range frameOnlyMarkers {
		if strings.Contains(title, marker) {
			return "frame or parts listing: " + marker
		}
	}

	brand := strings.ToLower(strings.TrimSpace(cand.Brand))
	if brand == "" {
		return "no brand"
	}
	for _, curated := range CuratedBrands {
		if strings.Contains(brand, curated) {
			return ""
		}
	}
	return "brand not on the curated list: " + cand.Brand
}

// politenessDelay sleeps the configured jittered inter-item delay. The
// delay paces requests against the sourcing surface and must stay in
// place even when it makes runs slower; it returns early only on
// cancellation.
func (o *Orchestrator) politenessDelay(ctx context.Context) {
	delay := o.itemDelay
	if o.itemJitter > 0 {
		delay += time.Duration(o.rng.Int63n(int64(o.itemJitter)))
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

func (o *Orchestrator) reject(stage, url, reason string) {
	if o.metrics != nil {
		o.metrics.CandidatesRejected.WithLabelValues(stage).Inc()
	}
	o.log("  Reject [%s] %s: %s", stage, url, reason)
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[acquisition] "+format, args...)
	}
}
