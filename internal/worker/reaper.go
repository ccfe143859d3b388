package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/NeoSkosana/AI-driven-PVS/internal/jobstore"
	"github.com/NeoSkosana/AI-driven-PVS/internal/queue"
	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

// Reaper is the crash-recovery loop. On every tick it redelivers queue
// messages whose lease expired and resets store records stuck in processing
// past the lease timeout back to queued, re-enqueueing them.
type Reaper struct {
	store        jobstore.Store
	queue        queue.Queue
	leaseTimeout time.Duration
	cron         *cron.Cron
	spec         string
	log          *logging.Logger
}

// NewReaper returns a Reaper that fires every interval.
func NewReaper(store jobstore.Store, q queue.Queue, leaseTimeout, interval time.Duration, log *logging.Logger) *Reaper {
	return &Reaper{
		store:        store,
		queue:        q,
		leaseTimeout: leaseTimeout,
		cron:         cron.New(),
		spec:         fmt.Sprintf("@every %s", interval),
		log:          log.With("component", "Reaper"),
	}
}

// Start registers the recovery job and starts the scheduler.
func (r *Reaper) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.spec, func() {
		r.Run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	r.cron.Start()
	r.log.Info("reaper started", "spec", r.spec, "lease_timeout", r.leaseTimeout)
	return nil
}

// Stop shuts the scheduler down.
func (r *Reaper) Stop() {
	r.cron.Stop()
	r.log.Info("reaper stopped")
}

// Run executes one recovery pass. Exported so tests and the worker startup
// can trigger it directly.
func (r *Reaper) Run(ctx context.Context) {
	requeued, err := r.queue.ReapExpired(ctx)
	if err != nil {
		r.log.Warn("queue reap failed", "err", err)
	} else if requeued > 0 {
		r.log.Info("redelivered expired queue leases", "count", requeued)
	}

	ids, err := r.store.RequeueStuck(ctx, r.leaseTimeout)
	if err != nil {
		r.log.Warn("stuck-job scan failed", "err", err)
		return
	}
	for _, id := range ids {
		if err := r.queue.Enqueue(ctx, id); err != nil {
			r.log.Error("re-enqueue of stuck job failed", "job_id", id, "err", err)
			continue
		}
		r.log.Warn("requeued job stuck in processing", "job_id", id)
	}
}
