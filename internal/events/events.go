// Package events publishes job lifecycle events to Redis pub/sub for the
// dashboard's SSE forwarder. Publishing is always non-fatal.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

// Lifecycle event types. The channel name matches the event type.
const (
	EventJobQueued    = "EVENT_JOB_QUEUED"
	EventJobCompleted = "EVENT_JOB_COMPLETED"
	EventJobFailed    = "EVENT_JOB_FAILED"
)

// Publisher fans job lifecycle events out over Redis pub/sub.
type Publisher struct {
	rdb *redis.Client
	log *logging.Logger
}

// NewPublisher returns a Publisher.
func NewPublisher(rdb *redis.Client, log *logging.Logger) *Publisher {
	return &Publisher{rdb: rdb, log: log.With("component", "EventPublisher")}
}

// Publish sends an event with the given fields. Errors are logged, never
// returned — a dropped event must not affect the pipeline.
func (p *Publisher) Publish(ctx context.Context, eventType, jobID string, fields map[string]string) {
	payload := map[string]string{
		"type":   eventType,
		"job_id": jobID,
	}
	for k, v := range fields {
		payload[k] = v
	}

	data, _ := json.Marshal(payload)
	if err := p.rdb.Publish(ctx, eventType, data).Err(); err != nil {
		p.log.Warn("publish failed", "event", eventType, "job_id", jobID, "err", err)
	}
}
