package jobstore

import (
	"context"
	"errors"
	"time"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
	"github.com/NeoSkosana/AI-driven-PVS/internal/valerr"
)

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when no job exists for the given identifier.
var ErrNotFound = errors.New("validation job not found")

// ErrInvalidTransition is returned when a transition would skip processing,
// leave a terminal state, or race another worker's claim. Queue consumers
// drop the message on this error — it is the idempotency guard that turns
// at-least-once delivery into exactly-once effect.
var ErrInvalidTransition = errors.New("invalid job status transition")

// ─── Records ─────────────────────────────────────────────────────────────────

// Job is the durable lifecycle record of one validation request.
// Result is present iff Status is completed; Error iff failed.
type Job struct {
	ID          string                  `json:"job_id"`
	Status      Status                  `json:"status"`
	Input       model.ProblemStatement  `json:"input"`
	Result      *model.ValidationResult `json:"result,omitempty"`
	Error       *valerr.JobError        `json:"error,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	StartedAt   *time.Time              `json:"started_at,omitempty"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
}

// Summary is the list-endpoint projection of a Job.
type Summary struct {
	ID              string     `json:"job_id"`
	Status          Status     `json:"status"`
	Title           string     `json:"title"`
	ValidationScore *float64   `json:"validation_score,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// TransitionPayload carries the data written alongside a status change.
type TransitionPayload struct {
	Result *model.ValidationResult
	Error  *valerr.JobError
}

// validate enforces the result/error exclusivity invariant per target status.
func (p TransitionPayload) validate(to Status) error {
	switch to {
	case StatusCompleted:
		if p.Result == nil || p.Error != nil {
			return errors.New("completed transition requires a result and no error")
		}
	case StatusFailed:
		if p.Error == nil || p.Result != nil {
			return errors.New("failed transition requires an error and no result")
		}
	default:
		if p.Result != nil || p.Error != nil {
			return errors.New("non-terminal transition must not carry a payload")
		}
	}
	return nil
}

// ─── Store contract ──────────────────────────────────────────────────────────

// Store is the single source of truth for job lifecycle state. All reads
// return point-in-time consistent snapshots; concurrent transitions on the
// same job are serialized.
type Store interface {
	// Create persists a new job in queued state and returns it.
	Create(ctx context.Context, input model.ProblemStatement) (*Job, error)

	// Get returns the job or ErrNotFound.
	Get(ctx context.Context, id string) (*Job, error)

	// Transition atomically moves the job to a new status, writing the
	// payload on terminal transitions. Returns ErrInvalidTransition when
	// the state machine rejects the move (including lost claim races).
	Transition(ctx context.Context, id string, to Status, payload TransitionPayload) (*Job, error)

	// List returns summaries of all jobs, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes the job; false when it did not exist.
	Delete(ctx context.Context, id string) (bool, error)

	// RequeueStuck resets processing jobs whose claim is older than
	// olderThan back to queued and returns their identifiers. This is the
	// crash-recovery path — the only sanctioned exit from processing that
	// is not terminal.
	RequeueStuck(ctx context.Context, olderThan time.Duration) ([]string, error)
}
