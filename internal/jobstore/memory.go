package jobstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
)

// MemoryStore is a mutex-serialized, in-process Store. It backs unit tests
// and single-node deployments without PostgreSQL; every read returns a deep
// copy so callers never observe a partially-written record.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, input model.ProblemStatement) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Input:     input,
		CreatedAt: s.now().UTC(),
	}
	s.jobs[job.ID] = job
	return copyJob(job), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyJob(job), nil
}

func (s *MemoryStore) Transition(_ context.Context, id string, to Status, payload TransitionPayload) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !IsTransitionAllowed(job.Status, to) {
		return nil, ErrInvalidTransition
	}
	if err := payload.validate(to); err != nil {
		return nil, ErrInvalidTransition
	}

	now := s.now().UTC()
	job.Status = to
	switch {
	case to == StatusProcessing:
		job.StartedAt = &now
	case IsTerminal(to):
		job.Result = payload.Result
		job.Error = payload.Error
		job.CompletedAt = &now
	}
	return copyJob(job), nil
}

func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]Summary, 0, len(s.jobs))
	for _, job := range s.jobs {
		sum := Summary{
			ID:          job.ID,
			Status:      job.Status,
			Title:       job.Input.Title,
			CreatedAt:   job.CreatedAt,
			CompletedAt: copyTime(job.CompletedAt),
		}
		if job.Result != nil {
			score := job.Result.ValidationScore
			sum.ValidationScore = &score
		}
		summaries = append(summaries, sum)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return false, nil
	}
	delete(s.jobs, id)
	return true, nil
}

func (s *MemoryStore) RequeueStuck(_ context.Context, olderThan time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().UTC().Add(-olderThan)
	var ids []string
	for _, job := range s.jobs {
		if job.Status != StatusProcessing || job.StartedAt == nil {
			continue
		}
		if job.StartedAt.After(cutoff) {
			continue
		}
		job.Status = StatusQueued
		job.StartedAt = nil
		ids = append(ids, job.ID)
	}
	return ids, nil
}

// SetClock overrides the store's time source. Tests only.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func copyJob(job *Job) *Job {
	out := *job
	out.StartedAt = copyTime(job.StartedAt)
	out.CompletedAt = copyTime(job.CompletedAt)
	if job.Result != nil {
		res := *job.Result
		res.ValidationFlags = append([]string(nil), job.Result.ValidationFlags...)
		out.Result = &res
	}
	if job.Error != nil {
		e := *job.Error
		out.Error = &e
	}
	out.Input.Keywords = append([]string(nil), job.Input.Keywords...)
	return &out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
