package jobstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NeoSkosana/AI-driven-PVS/internal/jobstore"
	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
	"github.com/NeoSkosana/AI-driven-PVS/internal/valerr"
)

func testProblem() model.ProblemStatement {
	return model.ProblemStatement{
		Title:       "Meal planning for freelancers",
		Description: "Freelancers struggle to plan affordable weekly meals around an unpredictable schedule and income.",
		Keywords:    []string{"meal planning", "freelancer budgeting"},
	}
}

func testResult() *model.ValidationResult {
	return &model.ValidationResult{
		ValidationScore: 0.72,
		ConfidenceScore: 0.55,
		ValidationFlags: []string{},
	}
}

// ── Create / Get ───────────────────────────────────────────────────────────

func TestMemoryStore_CreateStartsQueued(t *testing.T) {
	store := jobstore.NewMemoryStore()

	job, err := store.Create(context.Background(), testProblem())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.ID == "" {
		t.Error("Create should assign a job id")
	}
	if job.Status != jobstore.StatusQueued {
		t.Errorf("new job status = %s, want queued", job.Status)
	}

	got, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != jobstore.StatusQueued {
		t.Errorf("job observable before any worker acts should be queued, got %s", got.Status)
	}
	if got.Result != nil || got.Error != nil {
		t.Error("queued job must carry neither result nor error")
	}
}

func TestMemoryStore_CreateAssignsUniqueIDs(t *testing.T) {
	store := jobstore.NewMemoryStore()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		job, err := store.Create(context.Background(), testProblem())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[job.ID] {
			t.Fatalf("duplicate job id %s", job.ID)
		}
		seen[job.ID] = true
	}
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	store := jobstore.NewMemoryStore()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, jobstore.ErrNotFound) {
		t.Errorf("Get(unknown) = %v, want ErrNotFound", err)
	}
}

// ── Transition ─────────────────────────────────────────────────────────────

func TestMemoryStore_FullLifecycle(t *testing.T) {
	store := jobstore.NewMemoryStore()
	job, _ := store.Create(context.Background(), testProblem())

	claimed, err := store.Transition(context.Background(), job.ID, jobstore.StatusProcessing, jobstore.TransitionPayload{})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.StartedAt == nil {
		t.Error("processing transition should set StartedAt")
	}

	done, err := store.Transition(context.Background(), job.ID, jobstore.StatusCompleted,
		jobstore.TransitionPayload{Result: testResult()})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CompletedAt == nil {
		t.Error("terminal transition should set CompletedAt")
	}
	if done.Result == nil || done.Result.ValidationScore != 0.72 {
		t.Error("completed job should carry the result")
	}
	if done.Error != nil {
		t.Error("completed job must not carry an error")
	}
}

func TestMemoryStore_CannotSkipProcessing(t *testing.T) {
	store := jobstore.NewMemoryStore()
	job, _ := store.Create(context.Background(), testProblem())

	_, err := store.Transition(context.Background(), job.ID, jobstore.StatusCompleted,
		jobstore.TransitionPayload{Result: testResult()})
	if !errors.Is(err, jobstore.ErrInvalidTransition) {
		t.Errorf("queued → completed = %v, want ErrInvalidTransition", err)
	}
}

// Redelivering a job that already left queued must fail the second claim and
// leave no duplicate result — the exactly-once-effect guard.
func TestMemoryStore_DuplicateClaimRejected(t *testing.T) {
	store := jobstore.NewMemoryStore()
	job, _ := store.Create(context.Background(), testProblem())

	if _, err := store.Transition(context.Background(), job.ID, jobstore.StatusProcessing, jobstore.TransitionPayload{}); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	_, err := store.Transition(context.Background(), job.ID, jobstore.StatusProcessing, jobstore.TransitionPayload{})
	if !errors.Is(err, jobstore.ErrInvalidTransition) {
		t.Errorf("second claim = %v, want ErrInvalidTransition", err)
	}
}

func TestMemoryStore_NoTransitionOutOfTerminal(t *testing.T) {
	store := jobstore.NewMemoryStore()
	job, _ := store.Create(context.Background(), testProblem())
	store.Transition(context.Background(), job.ID, jobstore.StatusProcessing, jobstore.TransitionPayload{})
	store.Transition(context.Background(), job.ID, jobstore.StatusFailed,
		jobstore.TransitionPayload{Error: valerr.New(valerr.KindInsufficientEvidence, "no data")})

	_, err := store.Transition(context.Background(), job.ID, jobstore.StatusCompleted,
		jobstore.TransitionPayload{Result: testResult()})
	if !errors.Is(err, jobstore.ErrInvalidTransition) {
		t.Errorf("failed → completed = %v, want ErrInvalidTransition", err)
	}

	got, _ := store.Get(context.Background(), job.ID)
	if got.Status != jobstore.StatusFailed || got.Result != nil {
		t.Error("terminal state must be unchanged after rejected transition")
	}
}

func TestMemoryStore_PayloadExclusivity(t *testing.T) {
	store := jobstore.NewMemoryStore()
	job, _ := store.Create(context.Background(), testProblem())
	store.Transition(context.Background(), job.ID, jobstore.StatusProcessing, jobstore.TransitionPayload{})

	// completed without result
	if _, err := store.Transition(context.Background(), job.ID, jobstore.StatusCompleted, jobstore.TransitionPayload{}); !errors.Is(err, jobstore.ErrInvalidTransition) {
		t.Errorf("completed without result = %v, want ErrInvalidTransition", err)
	}
	// failed with a result attached
	bad := jobstore.TransitionPayload{
		Result: testResult(),
		Error:  valerr.New(valerr.KindTimeout, "too slow"),
	}
	if _, err := store.Transition(context.Background(), job.ID, jobstore.StatusFailed, bad); !errors.Is(err, jobstore.ErrInvalidTransition) {
		t.Errorf("failed with result = %v, want ErrInvalidTransition", err)
	}
}

// Under concurrent claims exactly one worker may win.
func TestMemoryStore_ConcurrentClaims(t *testing.T) {
	store := jobstore.NewMemoryStore()
	job, _ := store.Create(context.Background(), testProblem())

	const attempts = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Transition(context.Background(), job.ID, jobstore.StatusProcessing, jobstore.TransitionPayload{})
			if err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Errorf("%d concurrent claims succeeded, want exactly 1", won)
	}
}

// ── List / Delete ──────────────────────────────────────────────────────────

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	store := jobstore.NewMemoryStore()
	now := time.Now()
	tick := 0
	store.SetClock(func() time.Time {
		tick++
		return now.Add(time.Duration(tick) * time.Second)
	})

	first, _ := store.Create(context.Background(), testProblem())
	second, _ := store.Create(context.Background(), testProblem())

	summaries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("List returned %d summaries, want 2", len(summaries))
	}
	if summaries[0].ID != second.ID || summaries[1].ID != first.ID {
		t.Error("List should order newest first")
	}
}

func TestMemoryStore_ListIncludesScore(t *testing.T) {
	store := jobstore.NewMemoryStore()
	job, _ := store.Create(context.Background(), testProblem())
	store.Transition(context.Background(), job.ID, jobstore.StatusProcessing, jobstore.TransitionPayload{})
	store.Transition(context.Background(), job.ID, jobstore.StatusCompleted,
		jobstore.TransitionPayload{Result: testResult()})

	summaries, _ := store.List(context.Background())
	if summaries[0].ValidationScore == nil || *summaries[0].ValidationScore != 0.72 {
		t.Error("completed summary should expose the validation score")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := jobstore.NewMemoryStore()
	job, _ := store.Create(context.Background(), testProblem())

	deleted, err := store.Delete(context.Background(), job.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", deleted, err)
	}
	if _, err := store.Get(context.Background(), job.ID); !errors.Is(err, jobstore.ErrNotFound) {
		t.Error("deleted job should be gone")
	}

	deleted, err = store.Delete(context.Background(), job.ID)
	if err != nil || deleted {
		t.Errorf("second Delete = (%v, %v), want (false, nil)", deleted, err)
	}
}

// ── RequeueStuck ───────────────────────────────────────────────────────────

func TestMemoryStore_RequeueStuck(t *testing.T) {
	store := jobstore.NewMemoryStore()
	base := time.Now()
	store.SetClock(func() time.Time { return base })

	stuck, _ := store.Create(context.Background(), testProblem())
	fresh, _ := store.Create(context.Background(), testProblem())
	store.Transition(context.Background(), stuck.ID, jobstore.StatusProcessing, jobstore.TransitionPayload{})

	// Advance the clock past the lease, then claim the fresh job so its
	// lease is still live.
	store.SetClock(func() time.Time { return base.Add(10 * time.Minute) })
	store.Transition(context.Background(), fresh.ID, jobstore.StatusProcessing, jobstore.TransitionPayload{})

	ids, err := store.RequeueStuck(context.Background(), 5*time.Minute)
	if err != nil {
		t.Fatalf("RequeueStuck: %v", err)
	}
	if len(ids) != 1 || ids[0] != stuck.ID {
		t.Fatalf("RequeueStuck = %v, want [%s]", ids, stuck.ID)
	}

	got, _ := store.Get(context.Background(), stuck.ID)
	if got.Status != jobstore.StatusQueued {
		t.Errorf("stuck job status = %s, want queued", got.Status)
	}
	live, _ := store.Get(context.Background(), fresh.ID)
	if live.Status != jobstore.StatusProcessing {
		t.Errorf("fresh job status = %s, want processing", live.Status)
	}
}

func TestMemoryStore_RequeueStuckIgnoresTerminal(t *testing.T) {
	store := jobstore.NewMemoryStore()
	job, _ := store.Create(context.Background(), testProblem())
	store.Transition(context.Background(), job.ID, jobstore.StatusProcessing, jobstore.TransitionPayload{})
	store.Transition(context.Background(), job.ID, jobstore.StatusCompleted,
		jobstore.TransitionPayload{Result: testResult()})

	ids, err := store.RequeueStuck(context.Background(), 0)
	if err != nil {
		t.Fatalf("RequeueStuck: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("RequeueStuck touched terminal jobs: %v", ids)
	}
}
