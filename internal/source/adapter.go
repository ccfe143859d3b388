// Package source defines the evidence source adapter contract and the Reddit
// implementation used in production.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
)

// ErrUnavailable signals a provider outage. The collector counts it against
// the term's retry budget.
var ErrUnavailable = errors.New("evidence source unavailable")

// RateLimitedError signals provider throttling; RetryAfter is the interval
// the caller must pause that term's retrieval for.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("evidence source rate limited, retry after %s", e.RetryAfter)
}

// Adapter wraps an external discussion-data provider. Given a search term it
// returns at most limit evidence items, or a RateLimitedError/ErrUnavailable.
type Adapter interface {
	Search(ctx context.Context, term string, limit int) ([]model.EvidenceItem, error)
}
