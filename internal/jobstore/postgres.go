package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
	"github.com/NeoSkosana/AI-driven-PVS/internal/valerr"
)

// PostgresStore persists jobs in the validation_jobs table. Status changes
// use compare-and-transition updates so that two workers racing on the same
// job resolve deterministically: exactly one wins, the other observes
// ErrInvalidTransition.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS validation_jobs (
	id            UUID PRIMARY KEY,
	status        TEXT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL,
	keywords      TEXT[] NOT NULL DEFAULT '{}',
	target_market TEXT NOT NULL DEFAULT '',
	result        JSONB,
	error         JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	started_at    TIMESTAMPTZ,
	completed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS validation_jobs_status_idx ON validation_jobs (status);
`

// EnsureSchema creates the validation_jobs table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const jobColumns = `id, status, title, description, keywords, target_market,
	result, error, created_at, started_at, completed_at`

func (s *PostgresStore) Create(ctx context.Context, input model.ProblemStatement) (*Job, error) {
	id := uuid.NewString()

	var job Job
	err := s.pool.QueryRow(ctx,
		`INSERT INTO validation_jobs (id, status, title, description, keywords, target_market)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+jobColumns,
		id, string(StatusQueued), input.Title, input.Description, input.Keywords, input.TargetMarket,
	).Scan(scanTargets(&job)...)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return &job, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM validation_jobs WHERE id = $1`,
		id,
	).Scan(scanTargets(&job)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func (s *PostgresStore) Transition(ctx context.Context, id string, to Status, payload TransitionPayload) (*Job, error) {
	from, ok := requiredPredecessor(to)
	if !ok {
		return nil, ErrInvalidTransition
	}
	if err := payload.validate(to); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, err)
	}

	resultJSON, errJSON, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}

	var job Job
	err = s.pool.QueryRow(ctx,
		`UPDATE validation_jobs
		 SET status = $2,
		     result = COALESCE($3::jsonb, result),
		     error  = COALESCE($4::jsonb, error),
		     started_at   = CASE WHEN $2 = 'processing' THEN NOW() ELSE started_at END,
		     completed_at = CASE WHEN $2 IN ('completed','failed') THEN NOW() ELSE completed_at END
		 WHERE id = $1 AND status = $5
		 RETURNING `+jobColumns,
		id, string(to), resultJSON, errJSON, string(from),
	).Scan(scanTargets(&job)...)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the job is missing or the guard lost: look at what is there.
		if _, getErr := s.Get(ctx, id); errors.Is(getErr, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("transition job: %w", err)
	}
	return &job, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, title, (result->>'validation_score')::float8, created_at, completed_at
		 FROM validation_jobs
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var (
			sum    Summary
			status string
		)
		if err := rows.Scan(&sum.ID, &status, &sum.Title, &sum.ValidationScore, &sum.CreatedAt, &sum.CompletedAt); err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		sum.Status = Status(status)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM validation_jobs WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) RequeueStuck(ctx context.Context, olderThan time.Duration) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE validation_jobs
		 SET status = 'queued', started_at = NULL
		 WHERE status = 'processing'
		   AND started_at IS NOT NULL
		   AND started_at < NOW() - make_interval(secs => $1)
		 RETURNING id`,
		olderThan.Seconds(),
	)
	if err != nil {
		return nil, fmt.Errorf("requeue stuck: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("requeue scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ─── Row mapping helpers ─────────────────────────────────────────────────────

func scanTargets(job *Job) []any {
	job.Result = nil
	job.Error = nil
	return []any{
		&job.ID, (*statusScanner)(&job.Status), &job.Input.Title, &job.Input.Description,
		&job.Input.Keywords, &job.Input.TargetMarket,
		&resultScanner{job: job}, &errorScanner{job: job},
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	}
}

type statusScanner Status

func (s *statusScanner) Scan(src any) error {
	str, ok := src.(string)
	if !ok {
		return fmt.Errorf("status column: expected string, got %T", src)
	}
	parsed, err := ParseStatus(str)
	if err != nil {
		return err
	}
	*s = statusScanner(parsed)
	return nil
}

type resultScanner struct {
	job *Job
}

func (r *resultScanner) Scan(src any) error {
	if src == nil {
		return nil
	}
	data, err := jsonbBytes(src)
	if err != nil {
		return err
	}
	var res model.ValidationResult
	if err := json.Unmarshal(data, &res); err != nil {
		return fmt.Errorf("decode result column: %w", err)
	}
	r.job.Result = &res
	return nil
}

type errorScanner struct {
	job *Job
}

func (e *errorScanner) Scan(src any) error {
	if src == nil {
		return nil
	}
	data, err := jsonbBytes(src)
	if err != nil {
		return err
	}
	var je valerr.JobError
	if err := json.Unmarshal(data, &je); err != nil {
		return fmt.Errorf("decode error column: %w", err)
	}
	e.job.Error = &je
	return nil
}

func jsonbBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("jsonb column: expected bytes, got %T", src)
}

func marshalPayload(payload TransitionPayload) (resultJSON, errJSON *string, err error) {
	if payload.Result != nil {
		data, err := json.Marshal(payload.Result)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal result: %w", err)
		}
		s := string(data)
		resultJSON = &s
	}
	if payload.Error != nil {
		data, err := json.Marshal(payload.Error)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal error: %w", err)
		}
		s := string(data)
		errJSON = &s
	}
	return resultJSON, errJSON, nil
}
