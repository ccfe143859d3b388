package queue

import (
	"strings"
	"testing"
)

// ── Delivery handles ───────────────────────────────────────────────────────

func TestNewHandle_UniquePerDelivery(t *testing.T) {
	jobID := "8e2c9a4f-77b1-4a59-9d0e-1f2a3b4c5d6e"

	h1 := newHandle(jobID)
	h2 := newHandle(jobID)
	if h1 == h2 {
		t.Fatalf("two deliveries of one job share handle %q", h1)
	}

	for _, h := range []string{h1, h2} {
		got, ok := handleJobID(h)
		if !ok || got != jobID {
			t.Errorf("handleJobID(%q) = (%q, %v), want (%q, true)", h, got, ok, jobID)
		}
	}
}

func TestHandleJobID_Malformed(t *testing.T) {
	for _, h := range []string{"", "no-separator", "trailing:"} {
		if jobID, ok := handleJobID(h); ok {
			t.Errorf("handleJobID(%q) = (%q, true), want rejection", h, jobID)
		}
	}
}

func TestHandleJobID_FirstSeparatorWins(t *testing.T) {
	h := newHandle("job:with:colons")
	jobID, ok := handleJobID(h)
	if !ok || jobID != "job:with:colons" {
		t.Errorf("handleJobID(%q) = (%q, %v)", h, jobID, ok)
	}
	if strings.Count(h, ":") != 3 {
		t.Errorf("handle %q lost separators", h)
	}
}
