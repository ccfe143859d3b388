package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue on top of two Redis lists and a lease hash:
//
//	<prefix>:pending     LPUSH on enqueue, BLMOVE on dequeue (FIFO)
//	<prefix>:processing  holds deliveries between dequeue and ack
//	<prefix>:leases      delivery handle → unix deadline for redelivery
//
// List elements are delivery handles of the form "<uuid>:<job id>", minted
// per enqueue. The uuid part keeps concurrent deliveries of the same job id
// distinct: each holds its own lease and its own processing-list entry, so
// acking one can never release or orphan another.
//
// The BLMOVE into the processing list is what makes a crash recoverable: the
// delivery is never gone from Redis, only parked, and ReapExpired moves it
// back once the lease deadline passes.
type RedisQueue struct {
	rdb   *redis.Client
	lease time.Duration

	pendingKey    string
	processingKey string
	leaseKey      string

	now func() time.Time
}

// NewRedisQueue returns a queue using prefix for its keys.
func NewRedisQueue(rdb *redis.Client, prefix string, lease time.Duration) *RedisQueue {
	return &RedisQueue{
		rdb:           rdb,
		lease:         lease,
		pendingKey:    prefix + ":pending",
		processingKey: prefix + ":processing",
		leaseKey:      prefix + ":leases",
		now:           time.Now,
	}
}

// newHandle mints a unique delivery handle for jobID.
func newHandle(jobID string) string {
	return uuid.NewString() + ":" + jobID
}

// handleJobID extracts the job id from a delivery handle.
func handleJobID(handle string) (string, bool) {
	_, jobID, ok := strings.Cut(handle, ":")
	return jobID, ok && jobID != ""
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) error {
	if err := q.rdb.LPush(ctx, q.pendingKey, newHandle(jobID)).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", jobID, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (*Message, error) {
	handle, err := q.rdb.BLMove(ctx, q.pendingKey, q.processingKey, "RIGHT", "LEFT", wait).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue: %w", err)
	}

	jobID, ok := handleJobID(handle)
	if !ok {
		// Malformed element; drop it rather than loop on it forever.
		q.rdb.LRem(ctx, q.processingKey, 1, handle)
		return nil, fmt.Errorf("dequeue: malformed delivery %q", handle)
	}

	deadline := q.now().Add(q.lease).Unix()
	if err := q.rdb.HSet(ctx, q.leaseKey, handle, deadline).Err(); err != nil {
		return nil, fmt.Errorf("record lease for %s: %w", jobID, err)
	}

	return &Message{JobID: jobID, handle: handle}, nil
}

func (q *RedisQueue) Ack(ctx context.Context, msg *Message) error {
	pipe := q.rdb.TxPipeline()
	pipe.LRem(ctx, q.processingKey, 1, msg.handle)
	pipe.HDel(ctx, q.leaseKey, msg.handle)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ack %s: %w", msg.JobID, err)
	}
	return nil
}

func (q *RedisQueue) Nack(ctx context.Context, msg *Message) error {
	pipe := q.rdb.TxPipeline()
	pipe.LRem(ctx, q.processingKey, 1, msg.handle)
	pipe.HDel(ctx, q.leaseKey, msg.handle)
	pipe.LPush(ctx, q.pendingKey, newHandle(msg.JobID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("nack %s: %w", msg.JobID, err)
	}
	return nil
}

func (q *RedisQueue) ReapExpired(ctx context.Context) (int, error) {
	leases, err := q.rdb.HGetAll(ctx, q.leaseKey).Result()
	if err != nil {
		return 0, fmt.Errorf("read leases: %w", err)
	}

	nowUnix := q.now().Unix()
	requeued := 0
	for handle, raw := range leases {
		deadline, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || deadline > nowUnix {
			continue
		}
		jobID, ok := handleJobID(handle)
		if !ok {
			q.rdb.HDel(ctx, q.leaseKey, handle)
			continue
		}
		// LREM result guards against racing an ack: only a delivery still
		// parked in the processing list gets requeued.
		removed, err := q.rdb.LRem(ctx, q.processingKey, 1, handle).Result()
		if err != nil {
			return requeued, fmt.Errorf("reap %s: %w", jobID, err)
		}
		if err := q.rdb.HDel(ctx, q.leaseKey, handle).Err(); err != nil {
			return requeued, fmt.Errorf("reap lease %s: %w", jobID, err)
		}
		if removed == 0 {
			continue
		}
		if err := q.rdb.LPush(ctx, q.pendingKey, newHandle(jobID)).Err(); err != nil {
			return requeued, fmt.Errorf("requeue %s: %w", jobID, err)
		}
		requeued++
	}
	return requeued, nil
}
