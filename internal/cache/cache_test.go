package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

// fakeRedis is an in-memory stand-in for the three commands the cache uses.
type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			delete(f.ttls, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func newCache(rdb redisCmd, ttl time.Duration) *ResultCache {
	return &ResultCache{rdb: rdb, ttl: ttl, log: logging.NewNop()}
}

func sampleResult() *model.ValidationResult {
	return &model.ValidationResult{
		ValidationScore: 0.58,
		ConfidenceScore: 0.91,
		ValidationFlags: []string{"low_engagement"},
		SentimentSummary: model.SentimentSummary{
			OverallSentiment:     "Positive",
			PositiveRatio:        0.6,
			NegativeRatio:        0.2,
			NeutralRatio:         0.2,
			AverageScore:         0.24,
			WeightedAverageScore: 0.31,
		},
		EngagementMetrics: model.EngagementMetrics{
			AvgScore:        30,
			AvgComments:     6,
			TotalEngagement: 720,
			UniqueUsers:     18,
		},
		TemporalAnalysis: model.TemporalAnalysis{
			EarliestPost:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			LatestPost:         time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
			AvgPostsPerDay:     0.4,
			ActivityPeriodDays: 10,
		},
	}
}

// ── Round trip ─────────────────────────────────────────────────────────────

func TestResultCache_RoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	c := newCache(rdb, time.Hour)
	ctx := context.Background()

	original := sampleResult()
	c.Set(ctx, "job-1", original)

	got, ok := c.Get(ctx, "job-1")
	if !ok {
		t.Fatal("Get after Set missed")
	}
	if got.ValidationScore != original.ValidationScore || got.ConfidenceScore != original.ConfidenceScore {
		t.Errorf("scores changed: %+v", got)
	}
	if got.SentimentSummary != original.SentimentSummary {
		t.Errorf("sentiment_summary changed: %+v", got.SentimentSummary)
	}
	if got.EngagementMetrics != original.EngagementMetrics {
		t.Errorf("engagement_metrics changed: %+v", got.EngagementMetrics)
	}
	if !got.TemporalAnalysis.EarliestPost.Equal(original.TemporalAnalysis.EarliestPost) ||
		got.TemporalAnalysis.ActivityPeriodDays != original.TemporalAnalysis.ActivityPeriodDays {
		t.Errorf("temporal_analysis changed: %+v", got.TemporalAnalysis)
	}
	if len(got.ValidationFlags) != 1 || got.ValidationFlags[0] != "low_engagement" {
		t.Errorf("validation_flags changed: %v", got.ValidationFlags)
	}

	if ttl := rdb.ttls[keyPrefix+"job-1"]; ttl != time.Hour {
		t.Errorf("stored TTL = %v, want 1h", ttl)
	}
}

func TestResultCache_MissReturnsFalse(t *testing.T) {
	c := newCache(newFakeRedis(), time.Hour)
	if got, ok := c.Get(context.Background(), "absent"); ok {
		t.Errorf("Get on empty cache = (%v, true), want miss", got)
	}
}

func TestResultCache_CorruptEntryDropped(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data[keyPrefix+"job-1"] = "{not json"

	c := newCache(rdb, time.Hour)
	if got, ok := c.Get(context.Background(), "job-1"); ok {
		t.Errorf("Get on corrupt entry = (%v, true), want miss", got)
	}
	if _, still := rdb.data[keyPrefix+"job-1"]; still {
		t.Error("corrupt entry not evicted")
	}
}

func TestResultCache_Delete(t *testing.T) {
	rdb := newFakeRedis()
	c := newCache(rdb, time.Hour)
	ctx := context.Background()

	c.Set(ctx, "job-1", sampleResult())
	c.Delete(ctx, "job-1")
	if _, ok := c.Get(ctx, "job-1"); ok {
		t.Error("Get after Delete hit")
	}
}
