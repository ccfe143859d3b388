// Package collector drives the evidence source adapter across all query
// terms and merges the results into a single deduplicated evidence set.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
	"github.com/NeoSkosana/AI-driven-PVS/internal/source"
	"github.com/NeoSkosana/AI-driven-PVS/internal/valerr"
	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

const retryBackoff = 2 * time.Second // base backoff for non-rate-limit faults

// Collector gathers evidence for one job. A rate-limit signal pauses only
// the affected term; other terms keep collecting. A term that exhausts its
// retry budget is skipped with a partial-failure note, never a hard failure —
// the job proceeds as long as at least one term produced evidence.
type Collector struct {
	adapter     source.Adapter
	maxPerTerm  int
	maxTotal    int
	maxAttempts int
	log         *logging.Logger

	// sleep is ctx-aware and injectable so tests run without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Collector with the given caps and per-term retry budget.
func New(adapter source.Adapter, maxPerTerm, maxTotal, maxAttempts int, log *logging.Logger) *Collector {
	return &Collector{
		adapter:     adapter,
		maxPerTerm:  maxPerTerm,
		maxTotal:    maxTotal,
		maxAttempts: maxAttempts,
		log:         log.With("component", "Collector"),
		sleep:       sleepCtx,
	}
}

// termState tracks the retry budget of one pending query term.
type termState struct {
	term     string
	attempts int
	nextTry  time.Time
}

// Collect fetches evidence for every term, deduplicating by source id
// (first-seen term wins provenance). It returns the merged set plus
// partial-failure notes. When every term fails, or no term yields any item,
// the job fails with kind insufficient_evidence.
func (c *Collector) Collect(ctx context.Context, jobID string, terms []string) ([]model.EvidenceItem, []string, error) {
	if len(terms) == 0 {
		return nil, nil, valerr.New(valerr.KindInsufficientEvidence, "no query terms to collect for")
	}

	pending := make([]*termState, 0, len(terms))
	for _, t := range terms {
		pending = append(pending, &termState{term: t})
	}

	var (
		items     []model.EvidenceItem
		notes     []string
		seen      = make(map[string]bool)
		succeeded = 0
	)

	for len(pending) > 0 && len(items) < c.maxTotal {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		progressed := false
		next := pending[:0]
		now := time.Now()

		for _, st := range pending {
			if st.nextTry.After(now) {
				next = append(next, st)
				continue
			}

			batch, err := c.adapter.Search(ctx, st.term, c.remaining(len(items)))
			switch {
			case err == nil:
				succeeded++
				progressed = true
				for _, item := range batch {
					if seen[item.ID] || len(items) >= c.maxTotal {
						continue
					}
					seen[item.ID] = true
					items = append(items, item)
				}
				c.log.Debug("term collected", "job_id", jobID, "term", st.term, "items", len(batch))

			case isRateLimited(err):
				var rl *source.RateLimitedError
				errors.As(err, &rl)
				st.attempts++
				if st.attempts >= c.maxAttempts {
					notes = append(notes, fmt.Sprintf("term %q dropped after %d rate-limited attempts", st.term, st.attempts))
					c.log.Warn("term exhausted retries", "job_id", jobID, "term", st.term)
					continue
				}
				st.nextTry = now.Add(rl.RetryAfter)
				next = append(next, st)
				c.log.Info("term rate limited, deferring", "job_id", jobID, "term", st.term, "retry_after", rl.RetryAfter)

			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return nil, nil, err

			default:
				st.attempts++
				if st.attempts >= c.maxAttempts {
					notes = append(notes, fmt.Sprintf("term %q failed after %d attempts: %s", st.term, st.attempts, err))
					c.log.Warn("term failed permanently", "job_id", jobID, "term", st.term, "err", err)
					continue
				}
				st.nextTry = now.Add(retryBackoff * time.Duration(st.attempts))
				next = append(next, st)
				c.log.Warn("term fetch failed, retrying", "job_id", jobID, "term", st.term, "err", err)
			}
		}
		pending = next

		// Every remaining term is paused: wait for the earliest retry
		// instead of spinning. Only this job's worker blocks here.
		if !progressed && len(pending) > 0 {
			wait := time.Until(earliest(pending))
			if wait > 0 {
				if err := c.sleep(ctx, wait); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	if succeeded == 0 {
		return nil, notes, valerr.New(valerr.KindInsufficientEvidence,
			"all %d query terms failed to return evidence", len(terms))
	}
	if len(items) == 0 {
		return nil, notes, valerr.New(valerr.KindInsufficientEvidence,
			"no discussion items found for any query term")
	}

	c.log.Info("collection done", "job_id", jobID,
		"items", len(items), "terms_ok", succeeded, "notes", len(notes))
	return items, notes, nil
}

// remaining caps the per-term request size by both budgets.
func (c *Collector) remaining(have int) int {
	left := c.maxTotal - have
	if left > c.maxPerTerm {
		return c.maxPerTerm
	}
	return left
}

func isRateLimited(err error) bool {
	var rl *source.RateLimitedError
	return errors.As(err, &rl)
}

func earliest(pending []*termState) time.Time {
	e := pending[0].nextTry
	for _, st := range pending[1:] {
		if st.nextTry.Before(e) {
			e = st.nextTry
		}
	}
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
