// Package valerr defines the stable error taxonomy surfaced on failed jobs.
//
// A failed job exposes a Kind plus a short human-readable reason — never an
// internal stack trace or adapter credentials.
package valerr

import (
	"context"
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable failure category.
type Kind string

const (
	// KindRateLimited is recoverable inside the Collector and only surfaces
	// when every query term exhausted its retries.
	KindRateLimited Kind = "rate_limited"
	// KindInsufficientEvidence means no usable evidence remained after
	// exhausting all query terms.
	KindInsufficientEvidence Kind = "insufficient_evidence"
	// KindTimeout means the job exceeded its wall-clock budget mid-pipeline.
	KindTimeout Kind = "timeout"
	// KindCancelled means the job was cancelled between stages.
	KindCancelled Kind = "cancelled"
	// KindUnexpected is the catch-all for adapter/analyzer faults.
	KindUnexpected Kind = "unexpected"
)

// JobError is the terminal error detail persisted on a failed job.
type JobError struct {
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason"`
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// New builds a JobError with a formatted reason.
func New(kind Kind, format string, args ...any) *JobError {
	return &JobError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// From normalises an arbitrary pipeline error into a JobError.
// Context errors map to timeout/cancelled; everything else is unexpected.
func From(err error) *JobError {
	var je *JobError
	if errors.As(err, &je) {
		return je
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &JobError{Kind: KindTimeout, Reason: "job exceeded its wall-clock budget"}
	case errors.Is(err, context.Canceled):
		return &JobError{Kind: KindCancelled, Reason: "job was cancelled"}
	default:
		return &JobError{Kind: KindUnexpected, Reason: err.Error()}
	}
}
