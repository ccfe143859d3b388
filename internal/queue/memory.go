package queue

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryQueue is an in-process Queue with the same lease semantics as the
// Redis implementation. It backs unit tests and single-node runs.
type MemoryQueue struct {
	mu      sync.Mutex
	pending []string
	leased  map[string]memLease
	lease   time.Duration
	seq     int
	now     func() time.Time
}

type memLease struct {
	jobID    string
	deadline time.Time
}

// NewMemoryQueue returns an empty MemoryQueue with the given lease duration.
func NewMemoryQueue(lease time.Duration) *MemoryQueue {
	return &MemoryQueue{
		leased: make(map[string]memLease),
		lease:  lease,
		now:    time.Now,
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, jobID)
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context, wait time.Duration) (*Message, error) {
	deadline := q.now().Add(wait)
	for {
		if msg := q.tryDequeue(); msg != nil {
			return msg, nil
		}
		if q.now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (q *MemoryQueue) tryDequeue() *Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}
	jobID := q.pending[0]
	q.pending = q.pending[1:]

	q.seq++
	handle := strconv.Itoa(q.seq)
	q.leased[handle] = memLease{jobID: jobID, deadline: q.now().Add(q.lease)}
	return &Message{JobID: jobID, handle: handle}
}

func (q *MemoryQueue) Ack(_ context.Context, msg *Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.leased, msg.handle)
	return nil
}

func (q *MemoryQueue) Nack(_ context.Context, msg *Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.leased[msg.handle]; !ok {
		return nil
	}
	delete(q.leased, msg.handle)
	q.pending = append(q.pending, msg.JobID)
	return nil
}

func (q *MemoryQueue) ReapExpired(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	requeued := 0
	for handle, lease := range q.leased {
		if lease.deadline.After(now) {
			continue
		}
		delete(q.leased, handle)
		q.pending = append(q.pending, lease.jobID)
		requeued++
	}
	return requeued, nil
}

// SetClock overrides the queue's time source. Tests only.
func (q *MemoryQueue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}
