// Package queue provides the at-least-once delivery channel that carries job
// identifiers from submission to worker execution.
//
// Delivery semantics: a dequeued message stays invisible for the lease
// duration; if it is neither acked nor nacked before the lease expires, a
// reap pass makes it deliverable again. Consumers must therefore tolerate
// redelivery — the job store's claim guard turns it into exactly-once effect.
package queue

import (
	"context"
	"time"
)

// Message is one leased delivery of a job identifier.
type Message struct {
	JobID string

	// handle identifies this delivery for Ack/Nack.
	handle string
}

// Queue is the work channel contract. Implementations must make Enqueue,
// Ack and Nack atomic per message.
type Queue interface {
	// Enqueue makes jobID deliverable.
	Enqueue(ctx context.Context, jobID string) error

	// Dequeue blocks up to wait for a message. Returns (nil, nil) when
	// nothing became available — callers poll in a loop.
	Dequeue(ctx context.Context, wait time.Duration) (*Message, error)

	// Ack permanently removes a delivered message.
	Ack(ctx context.Context, msg *Message) error

	// Nack returns a delivered message to the queue for redelivery.
	Nack(ctx context.Context, msg *Message) error

	// ReapExpired redelivers messages whose lease ran out, returning how
	// many were requeued.
	ReapExpired(ctx context.Context) (int, error)
}
