// pvs-api — status API gateway for the problem validation system.
//
// Accepts problem statements, persists them as queued validation jobs,
// enqueues their identifiers for the worker pool, and serves polling,
// listing and deletion against the job store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NeoSkosana/AI-driven-PVS/internal/api"
	"github.com/NeoSkosana/AI-driven-PVS/internal/cache"
	"github.com/NeoSkosana/AI-driven-PVS/internal/config"
	"github.com/NeoSkosana/AI-driven-PVS/internal/db"
	"github.com/NeoSkosana/AI-driven-PVS/internal/events"
	"github.com/NeoSkosana/AI-driven-PVS/internal/jobstore"
	"github.com/NeoSkosana/AI-driven-PVS/internal/queue"
	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel).With("service", "pvs-api")
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connect failed", "err", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connect failed", "err", err)
	}
	defer rdb.Close()
	log.Info("redis connected")

	store := jobstore.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("schema setup failed", "err", err)
	}

	workQueue := queue.NewRedisQueue(rdb, "pvs:jobs", cfg.LeaseTimeout)
	resultCache := cache.New(rdb, cfg.CacheTTL, log)
	publisher := events.NewPublisher(rdb, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := api.NewHandler(store, workQueue, resultCache, publisher, log)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "version", version, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", "err", err)
	}
	log.Info("stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "pvs-api",
		"version": version,
	})
}
