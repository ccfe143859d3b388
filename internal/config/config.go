// Package config loads and validates environment variables at startup.
// Fail-fast: a missing or malformed required variable aborts startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration shared by the API and worker processes.
type Config struct {
	Port        string
	LogLevel    string
	DatabaseURL string
	RedisURL    string

	WorkerCount  int           // size of the worker pool
	JobTimeout   time.Duration // wall-clock budget per job
	LeaseTimeout time.Duration // queue visibility / stuck-processing threshold
	ReapInterval time.Duration // how often the recovery reaper fires

	MaxItemsPerTerm    int // collection cap per query term
	MaxTotalItems      int // collection cap per job
	CollectMaxAttempts int // per-term retry budget

	RedditUserAgent string
	RedditBaseURL   string // override for tests; empty means the public API

	CacheTTL time.Duration // completed-result cache expiry
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		DatabaseURL: dbURL,
		RedisURL:    redisURL,

		RedditUserAgent: getenv("REDDIT_USER_AGENT", "AI-driven-PVS/1.0"),
		RedditBaseURL:   os.Getenv("REDDIT_BASE_URL"),
	}

	var err error
	if cfg.WorkerCount, err = intVar("WORKER_COUNT", 4); err != nil {
		return nil, err
	}
	if cfg.MaxItemsPerTerm, err = intVar("MAX_ITEMS_PER_TERM", 100); err != nil {
		return nil, err
	}
	if cfg.MaxTotalItems, err = intVar("MAX_TOTAL_ITEMS", 500); err != nil {
		return nil, err
	}
	if cfg.CollectMaxAttempts, err = intVar("COLLECT_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.JobTimeout, err = secondsVar("JOB_TIMEOUT_SECONDS", 120); err != nil {
		return nil, err
	}
	if cfg.LeaseTimeout, err = secondsVar("LEASE_TIMEOUT_SECONDS", 300); err != nil {
		return nil, err
	}
	if cfg.ReapInterval, err = secondsVar("REAP_INTERVAL_SECONDS", 30); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = secondsVar("CACHE_TTL_SECONDS", 3600); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intVar(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}

func secondsVar(key string, fallback int) (time.Duration, error) {
	v, err := intVar(key, fallback)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Second, nil
}
