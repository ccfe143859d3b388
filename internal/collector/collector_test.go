package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
	"github.com/NeoSkosana/AI-driven-PVS/internal/source"
	"github.com/NeoSkosana/AI-driven-PVS/internal/valerr"
	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

// scriptedAdapter replays a fixed sequence of responses per term.
type scriptedAdapter struct {
	responses map[string][]scriptedResponse
	calls     map[string]int
	limits    []int
}

type scriptedResponse struct {
	items []model.EvidenceItem
	err   error
}

func newScripted() *scriptedAdapter {
	return &scriptedAdapter{
		responses: make(map[string][]scriptedResponse),
		calls:     make(map[string]int),
	}
}

func (a *scriptedAdapter) on(term string, r ...scriptedResponse) {
	a.responses[term] = append(a.responses[term], r...)
}

func (a *scriptedAdapter) Search(ctx context.Context, term string, limit int) ([]model.EvidenceItem, error) {
	a.limits = append(a.limits, limit)
	i := a.calls[term]
	a.calls[term]++
	script := a.responses[term]
	if i >= len(script) {
		return nil, nil
	}
	return script[i].items, script[i].err
}

func evidence(term string, ids ...string) []model.EvidenceItem {
	items := make([]model.EvidenceItem, len(ids))
	for i, id := range ids {
		items[i] = model.EvidenceItem{
			ID:        id,
			Text:      "discussion " + id,
			QueryTerm: term,
			CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return items
}

func newCollector(a source.Adapter, maxPerTerm, maxTotal, maxAttempts int) *Collector {
	c := New(a, maxPerTerm, maxTotal, maxAttempts, logging.NewNop())
	c.sleep = func(ctx context.Context, d time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	}
	return c
}

// ── Merge and dedup ────────────────────────────────────────────────────────

func TestCollect_MergesTermsAndDedups(t *testing.T) {
	a := newScripted()
	a.on("expense tracking", scriptedResponse{items: evidence("expense tracking", "t3_a", "t3_b")})
	a.on("budget app", scriptedResponse{items: evidence("budget app", "t3_b", "t3_c")})

	c := newCollector(a, 100, 500, 3)
	items, notes, err := c.Collect(context.Background(), "job-1", []string{"expense tracking", "budget app"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 after dedup", len(items))
	}
	if len(notes) != 0 {
		t.Errorf("notes = %v, want none", notes)
	}

	// The duplicate id keeps the provenance of the term that saw it first.
	byID := make(map[string]model.EvidenceItem)
	for _, item := range items {
		byID[item.ID] = item
	}
	if byID["t3_b"].QueryTerm != "expense tracking" {
		t.Errorf("t3_b provenance = %q, want first-seen term", byID["t3_b"].QueryTerm)
	}
}

func TestCollect_TotalCapStopsCollection(t *testing.T) {
	a := newScripted()
	a.on("a", scriptedResponse{items: evidence("a", "t3_1", "t3_2", "t3_3")})
	a.on("b", scriptedResponse{items: evidence("b", "t3_4", "t3_5")})

	c := newCollector(a, 100, 4, 3)
	items, _, err := c.Collect(context.Background(), "job-1", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 4 {
		t.Errorf("got %d items, want cap of 4", len(items))
	}
}

func TestCollect_RequestSizeCappedByBudgets(t *testing.T) {
	a := newScripted()
	a.on("a", scriptedResponse{items: evidence("a", "t3_1", "t3_2", "t3_3")})
	a.on("b", scriptedResponse{items: evidence("b", "t3_4")})

	c := newCollector(a, 10, 5, 3)
	if _, _, err := c.Collect(context.Background(), "job-1", []string{"a", "b"}); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	// First call may ask for the full per-term budget; later calls must not
	// exceed what the total budget still allows.
	if a.limits[0] != 5 {
		t.Errorf("first request limit = %d, want min(maxPerTerm, maxTotal) = 5", a.limits[0])
	}
	if a.limits[1] != 2 {
		t.Errorf("second request limit = %d, want remaining total of 2", a.limits[1])
	}
}

// ── Rate limiting ──────────────────────────────────────────────────────────

func TestCollect_RateLimitDefersOnlyAffectedTerm(t *testing.T) {
	a := newScripted()
	a.on("slow",
		scriptedResponse{err: &source.RateLimitedError{RetryAfter: time.Millisecond}},
		scriptedResponse{items: evidence("slow", "t3_s")},
	)
	a.on("fast", scriptedResponse{items: evidence("fast", "t3_f")})

	c := newCollector(a, 100, 500, 3)
	items, notes, err := c.Collect(context.Background(), "job-1", []string{"slow", "fast"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (deferred term retried)", len(items))
	}
	if len(notes) != 0 {
		t.Errorf("notes = %v, want none", notes)
	}
	if a.calls["slow"] != 2 {
		t.Errorf("slow term called %d times, want 2", a.calls["slow"])
	}
	if a.calls["fast"] != 1 {
		t.Errorf("fast term called %d times, want 1 (unaffected by the other term's limit)", a.calls["fast"])
	}
}

func TestCollect_RateLimitBudgetExhaustionDropsTerm(t *testing.T) {
	a := newScripted()
	a.on("limited",
		scriptedResponse{err: &source.RateLimitedError{RetryAfter: time.Millisecond}},
		scriptedResponse{err: &source.RateLimitedError{RetryAfter: time.Millisecond}},
	)
	a.on("ok", scriptedResponse{items: evidence("ok", "t3_1")})

	c := newCollector(a, 100, 500, 2)
	items, notes, err := c.Collect(context.Background(), "job-1", []string{"limited", "ok"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d items, want 1 from the healthy term", len(items))
	}
	if len(notes) != 1 {
		t.Fatalf("notes = %v, want one partial-failure note", notes)
	}
}

// ── Transient faults ───────────────────────────────────────────────────────

func TestCollect_ExhaustedTermIsNoteNotFailure(t *testing.T) {
	a := newScripted()
	a.on("broken", scriptedResponse{err: fmt.Errorf("search: %w", source.ErrUnavailable)})
	a.on("ok", scriptedResponse{items: evidence("ok", "t3_1", "t3_2")})

	c := newCollector(a, 100, 500, 1)
	items, notes, err := c.Collect(context.Background(), "job-1", []string{"broken", "ok"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want 2", len(items))
	}
	if len(notes) != 1 {
		t.Fatalf("notes = %v, want one note for the broken term", notes)
	}
}

// ── Insufficient evidence ──────────────────────────────────────────────────

func TestCollect_AllTermsFailed(t *testing.T) {
	a := newScripted()
	a.on("x", scriptedResponse{err: source.ErrUnavailable})
	a.on("y", scriptedResponse{err: source.ErrUnavailable})

	c := newCollector(a, 100, 500, 1)
	_, _, err := c.Collect(context.Background(), "job-1", []string{"x", "y"})

	var je *valerr.JobError
	if !errors.As(err, &je) || je.Kind != valerr.KindInsufficientEvidence {
		t.Fatalf("err = %v, want insufficient_evidence", err)
	}
}

func TestCollect_ZeroItemsIsInsufficientEvidence(t *testing.T) {
	a := newScripted()
	a.on("quiet", scriptedResponse{items: nil})

	c := newCollector(a, 100, 500, 3)
	_, _, err := c.Collect(context.Background(), "job-1", []string{"quiet"})

	var je *valerr.JobError
	if !errors.As(err, &je) || je.Kind != valerr.KindInsufficientEvidence {
		t.Fatalf("err = %v, want insufficient_evidence for an empty successful collection", err)
	}
}

func TestCollect_NoTerms(t *testing.T) {
	c := newCollector(newScripted(), 100, 500, 3)
	_, _, err := c.Collect(context.Background(), "job-1", nil)

	var je *valerr.JobError
	if !errors.As(err, &je) || je.Kind != valerr.KindInsufficientEvidence {
		t.Fatalf("err = %v, want insufficient_evidence", err)
	}
}

// ── Cancellation ───────────────────────────────────────────────────────────

func TestCollect_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newScripted()
	a.on("x", scriptedResponse{items: evidence("x", "t3_1")})

	c := newCollector(a, 100, 500, 3)
	if _, _, err := c.Collect(ctx, "job-1", []string{"x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCollect_AdapterContextErrorPropagates(t *testing.T) {
	a := newScripted()
	a.on("x", scriptedResponse{err: context.DeadlineExceeded})

	c := newCollector(a, 100, 500, 3)
	if _, _, err := c.Collect(context.Background(), "job-1", []string{"x"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}
