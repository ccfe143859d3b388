// pvs-worker — validation worker pool.
//
// Dequeues job identifiers, runs the keyword-expansion → collection →
// analysis → scoring pipeline, and writes terminal results to the job store.
// A cron-driven reaper recovers jobs orphaned by crashed workers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NeoSkosana/AI-driven-PVS/internal/analyzer"
	"github.com/NeoSkosana/AI-driven-PVS/internal/cache"
	"github.com/NeoSkosana/AI-driven-PVS/internal/collector"
	"github.com/NeoSkosana/AI-driven-PVS/internal/config"
	"github.com/NeoSkosana/AI-driven-PVS/internal/db"
	"github.com/NeoSkosana/AI-driven-PVS/internal/events"
	"github.com/NeoSkosana/AI-driven-PVS/internal/jobstore"
	"github.com/NeoSkosana/AI-driven-PVS/internal/keywords"
	"github.com/NeoSkosana/AI-driven-PVS/internal/queue"
	"github.com/NeoSkosana/AI-driven-PVS/internal/scorer"
	"github.com/NeoSkosana/AI-driven-PVS/internal/source"
	"github.com/NeoSkosana/AI-driven-PVS/internal/worker"
	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

const maxDerivedTerms = 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel).With("service", "pvs-worker")
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgPool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connect failed", "err", err)
	}
	defer pgPool.Close()
	log.Info("postgres connected")

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connect failed", "err", err)
	}
	defer rdb.Close()
	log.Info("redis connected")

	store := jobstore.NewPostgresStore(pgPool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("schema setup failed", "err", err)
	}

	workQueue := queue.NewRedisQueue(rdb, "pvs:jobs", cfg.LeaseTimeout)
	adapter := source.NewRedditAdapter(cfg.RedditBaseURL, cfg.RedditUserAgent)

	pool, err := worker.NewPool(worker.Config{
		Store:     store,
		Queue:     workQueue,
		Expander:  keywords.NewExpander(keywords.NewFrequencyExtractor(), maxDerivedTerms, log),
		Collector: collector.New(adapter, cfg.MaxItemsPerTerm, cfg.MaxTotalItems, cfg.CollectMaxAttempts, log),
		Analyzer:  analyzer.New(analyzer.NewLexiconClassifier(), analyzer.DefaultConfig(), log),
		Scorer:    scorer.New(scorer.DefaultConfig()),
		Cache:     cache.New(rdb, cfg.CacheTTL, log),
		Events:    events.NewPublisher(rdb, log),
		Log:       log,

		Workers:    cfg.WorkerCount,
		JobTimeout: cfg.JobTimeout,
	})
	if err != nil {
		log.Fatal("worker pool setup failed", "err", err)
	}

	reaper := worker.NewReaper(store, workQueue, cfg.LeaseTimeout, cfg.ReapInterval, log)
	if err := reaper.Start(ctx); err != nil {
		log.Fatal("reaper setup failed", "err", err)
	}

	pool.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	reaper.Stop()
	cancel()
	pool.Wait()
	log.Info("stopped")
}
