// Package main provides the unified curation service:
// - scheduled jobs: acquisition, lifecycle (hot/medium/cold), sanitizer
// - admin HTTP surface: manual triggers, bounty intake, health, metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bike-curation/internal/acquisition"
	"bike-curation/internal/classify"
	"bike-curation/internal/config"
	"bike-curation/internal/domain"
	"bike-curation/internal/enrichment"
	"bike-curation/internal/lifecycle"
	"bike-curation/internal/notify"
	"bike-curation/internal/observability"
	"bike-curation/internal/profit"
	"bike-curation/internal/scheduler"
	"bike-curation/internal/scoring"
	"bike-curation/internal/server"
	"bike-curation/internal/source"
	"bike-curation/internal/storage"
	"bike-curation/internal/storage/memory"
	"bike-curation/internal/storage/migrations"
	pgstore "bike-curation/internal/storage/postgres"
	"bike-curation/internal/supplygap"
)

// allStores holds all storage implementations.
type allStores struct {
	candidateStore  storage.CandidateStore
	catalogStore    storage.CatalogStore
	comparableStore storage.ComparableStore
	bountyStore     storage.BountyStore
	demandStore     storage.DemandEventStore
}

func main() {
	verbose := flag.Bool("verbose", false, "Verbose output")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	metrics := observability.NewMetrics("")

	var notifier notify.Sink = notify.NoopSink{}
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Fatalf("Failed to create Telegram sink: %v", err)
		}
		notifier = tg
		logger.Println("Telegram notifications enabled")
	}

	calculator := profit.NewCalculator(stores.comparableStore, profit.Config{
		LogisticsCost:      cfg.LogisticsCost,
		NegotiationPremium: cfg.NegotiationPremium,
		FlatMarginRate:     cfg.FlatMarginRate,
		MinComparables:     cfg.MinComparables,
	})
	scorer := scoring.NewService(scoring.Config{
		SweetSpotLow:         cfg.SweetSpotLow,
		SweetSpotHigh:        cfg.SweetSpotHigh,
		SweetSpotFloorLow:    cfg.SweetSpotFloorLow,
		SweetSpotCeilHigh:    cfg.SweetSpotCeilHigh,
		FreshnessGraceDays:   cfg.FreshnessGraceDays,
		FreshnessMaxPenalty:  cfg.FreshnessMaxPenalty,
		FreshnessDaysPerStep: cfg.FreshnessDaysPerStep,
	})
	analyzer := supplygap.NewAnalyzer(stores.catalogStore, stores.demandStore, stores.bountyStore, supplygap.Config{
		BountyBoost:     cfg.BountyBoost,
		UrgentThreshold: cfg.UrgentThreshold,
		DemandWindow:    cfg.DemandWindow,
		ProfitFactors: map[domain.Category]float64{
			domain.CategoryEMTB: cfg.EBikeProfitFactor,
		},
	})
	planner := acquisition.NewPlanner(analyzer, acquisition.PlannerConfig{
		PriceMin:      cfg.SweetSpotFloorLow,
		PriceMax:      cfg.SweetSpotCeilHigh,
		StrategyQuota: cfg.StrategyQuota,
	}, 0)
	gateway := enrichment.NewService(enrichment.NewHTTPClient(
		cfg.EnrichEndpoint,
		cfg.EnrichModel,
		enrichment.WithTimeout(cfg.EnrichTimeout),
	))

	orch := acquisition.New(acquisition.Options{
		CandidateStore: stores.candidateStore,
		CatalogStore:   stores.catalogStore,
		BountyStore:    stores.bountyStore,
		Planner:        planner,
		Calculator:     calculator,
		Scorer:         scorer,
		Classifier:     classify.NewKeywordClassifier(),
		Gateway:        gateway,
		Notifier:       notifier,
		Metrics:        metrics,
		MinConfidence:  cfg.EnrichConfidence,
		MaxRunAttempts: cfg.MaxRunAttempts,
		ItemDelay:      cfg.ItemDelay,
		ItemJitter:     cfg.ItemDelayJitter,
		MinYear:        cfg.MinYear,
		Verbose:        *verbose,
	})

	lifecycleMgr := lifecycle.New(lifecycle.Options{
		Catalog:    stores.catalogStore,
		Checker:    source.NewHTTPChecker(cfg.FetchTimeout),
		Calculator: calculator,
		Scorer:     scorer,
		Notifier:   notifier,
		Metrics:    metrics,
		Config: lifecycle.Config{
			BatchSize:        cfg.LifecycleBatch,
			PriceDropRelPct:  cfg.PriceDropRelPct,
			PriceDropAbs:     cfg.PriceDropAbs,
			ArchiveRetention: cfg.ArchiveRetention,
			StaleEntryAge:    cfg.StaleEntryAge,
			StaleEntryScore:  cfg.StaleEntryScore,
			ItemDelay:        cfg.ItemDelay,
			ItemJitter:       cfg.ItemDelayJitter,
		},
		Verbose: *verbose,
	})

	sched := scheduler.New(metrics, *verbose)
	sched.Register(scheduler.Job{
		Name:     "acquisition",
		Interval: cfg.AcquisitionInterval,
		Run: func(ctx context.Context) error {
			_, err := orch.Run(ctx, cfg.AcquisitionTarget)
			return err
		},
	})
	registerLifecycleJob(sched, lifecycleMgr, "lifecycle-hot", domain.TierHot, cfg.HotInterval)
	registerLifecycleJob(sched, lifecycleMgr, "lifecycle-medium", domain.TierMedium, cfg.MediumInterval)
	registerLifecycleJob(sched, lifecycleMgr, "lifecycle-cold", domain.TierCold, cfg.ColdInterval)
	sched.Register(scheduler.Job{
		Name:     "sanitizer",
		Interval: cfg.SanitizerInterval,
		Run: func(ctx context.Context) error {
			_, err := lifecycleMgr.Sanitize(ctx)
			return err
		},
	})
	sched.Start(ctx)

	srv := server.New(server.Options{
		Scheduler:     sched,
		Orchestrator:  orch,
		Bounties:      stores.bountyStore,
		DefaultTarget: cfg.AcquisitionTarget,
	})
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Router(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
	}()

	logger.Printf("Listening on %s", cfg.HTTPAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}

	// Drain scheduled jobs before exiting.
	sched.Wait()
	logger.Println("Shutdown complete")
}

// registerLifecycleJob binds one freshness tier to its cadence.
func registerLifecycleJob(sched *scheduler.Scheduler, mgr *lifecycle.Manager, name string, tier domain.Tier, interval time.Duration) {
	sched.Register(scheduler.Job{
		Name:     name,
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := mgr.RunTier(ctx, &tier)
			return err
		},
	})
}

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, cfg *config.Config, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		catalog := memory.NewCatalogStore()
		stores := &allStores{
			candidateStore:  memory.NewCandidateStore(catalog),
			catalogStore:    catalog,
			comparableStore: memory.NewComparableStore(),
			bountyStore:     memory.NewBountyStore(),
			demandStore:     memory.NewDemandEventStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	stores := &allStores{
		candidateStore:  pgstore.NewCandidateStore(pool),
		catalogStore:    pgstore.NewCatalogStore(pool),
		comparableStore: pgstore.NewComparableStore(pool),
		bountyStore:     pgstore.NewBountyStore(pool),
		demandStore:     pgstore.NewDemandEventStore(pool),
	}
	return stores, pool.Close, nil
}
