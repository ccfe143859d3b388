// Package jobstore owns validation job records for their full lifecycle.
//
// Valid status graph:
//
//	queued ──► processing ──► completed
//	                 │
//	                 └──────► failed
//
// completed and failed are terminal states. The graph is monotonic: a job
// never observably skips processing, and nothing leaves a terminal state.
package jobstore

import "fmt"

// Status values mirror the job_status column in PostgreSQL.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	// completed and failed are terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for completed and failed.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusFailed
}

// requiredPredecessor returns the only status a job may hold immediately
// before entering to. Used for compare-and-transition writes.
func requiredPredecessor(to Status) (Status, bool) {
	switch to {
	case StatusProcessing:
		return StatusQueued, true
	case StatusCompleted, StatusFailed:
		return StatusProcessing, true
	}
	return "", false
}
