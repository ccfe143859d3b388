// Package worker runs the fixed-size pool that executes validation jobs.
//
// Each worker independently dequeues one job identifier at a time, claims
// the job via the store's atomic queued→processing guard, and runs the
// four-stage pipeline: keyword expansion → collection → analysis → scoring.
// The claim guard is the idempotency boundary: a redelivered message whose
// job already left queued is acked and dropped without side effects.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NeoSkosana/AI-driven-PVS/internal/analyzer"
	"github.com/NeoSkosana/AI-driven-PVS/internal/cache"
	"github.com/NeoSkosana/AI-driven-PVS/internal/collector"
	"github.com/NeoSkosana/AI-driven-PVS/internal/events"
	"github.com/NeoSkosana/AI-driven-PVS/internal/jobstore"
	"github.com/NeoSkosana/AI-driven-PVS/internal/keywords"
	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
	"github.com/NeoSkosana/AI-driven-PVS/internal/queue"
	"github.com/NeoSkosana/AI-driven-PVS/internal/scorer"
	"github.com/NeoSkosana/AI-driven-PVS/internal/valerr"
	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

// Config wires the pool's dependencies explicitly — no ambient singletons,
// so tests can inject in-memory fakes for every collaborator.
type Config struct {
	Store     jobstore.Store
	Queue     queue.Queue
	Expander  *keywords.Expander
	Collector *collector.Collector
	Analyzer  *analyzer.Analyzer
	Scorer    *scorer.Scorer
	Cache     *cache.ResultCache // optional
	Events    *events.Publisher  // optional
	Log       *logging.Logger

	Workers     int
	JobTimeout  time.Duration // wall-clock budget per job
	DequeueWait time.Duration // poll interval when the queue is empty
}

// Pool is the set of concurrent job executors.
type Pool struct {
	cfg Config
	log *logging.Logger
	wg  sync.WaitGroup
}

// NewPool validates cfg and returns a Pool.
func NewPool(cfg Config) (*Pool, error) {
	if cfg.Store == nil || cfg.Queue == nil {
		return nil, fmt.Errorf("worker pool requires a store and a queue")
	}
	if cfg.Expander == nil || cfg.Collector == nil || cfg.Analyzer == nil || cfg.Scorer == nil {
		return nil, fmt.Errorf("worker pool requires all four pipeline stages")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.DequeueWait <= 0 {
		cfg.DequeueWait = 2 * time.Second
	}
	return &Pool{cfg: cfg, log: cfg.Log.With("component", "WorkerPool")}, nil
}

// Start launches the workers. They stop when ctx is cancelled; Wait blocks
// until all in-flight jobs finished.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	p.log.Info("worker pool started", "workers", p.cfg.Workers)
}

// Wait blocks until every worker returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.log.With("worker", id)

	for {
		if ctx.Err() != nil {
			return
		}

		msg, err := p.cfg.Queue.Dequeue(ctx, p.cfg.DequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("dequeue failed", "err", err)
			continue
		}
		if msg == nil {
			continue
		}

		p.handle(ctx, log, msg)
	}
}

// handle executes one delivery end to end and always settles the message.
func (p *Pool) handle(ctx context.Context, log *logging.Logger, msg *queue.Message) {
	job, err := p.cfg.Store.Transition(ctx, msg.JobID, jobstore.StatusProcessing, jobstore.TransitionPayload{})
	switch {
	case err == nil:
		// claimed
	case errors.Is(err, jobstore.ErrInvalidTransition):
		// Redelivery race: another worker already owns or finished this job.
		log.Info("duplicate delivery dropped", "job_id", msg.JobID)
		p.ack(ctx, log, msg)
		return
	case errors.Is(err, jobstore.ErrNotFound):
		log.Warn("message for unknown job dropped", "job_id", msg.JobID)
		p.ack(ctx, log, msg)
		return
	default:
		// Store unavailable — give the message back for a later retry.
		log.Error("claim failed, requeueing", "job_id", msg.JobID, "err", err)
		if nackErr := p.cfg.Queue.Nack(ctx, msg); nackErr != nil {
			log.Error("nack failed", "job_id", msg.JobID, "err", nackErr)
		}
		return
	}

	log.Info("job claimed", "job_id", job.ID)
	result, jobErr := p.execute(ctx, log, job)

	if jobErr != nil {
		p.settleFailed(ctx, log, msg, jobErr)
		return
	}
	p.settleCompleted(ctx, log, msg, result)
}

// execute runs the four pipeline stages under the job's wall-clock budget.
func (p *Pool) execute(ctx context.Context, log *logging.Logger, job *jobstore.Job) (result *model.ValidationResult, jobErr *valerr.JobError) {
	jobCtx := ctx
	if p.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, p.cfg.JobTimeout)
		defer cancel()
	}

	// A panicking stage must fail the job, not kill the worker.
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", "job_id", job.ID, "panic", r)
			result = nil
			jobErr = valerr.New(valerr.KindUnexpected, "internal pipeline fault")
		}
	}()

	terms := p.cfg.Expander.Expand(job.Input)

	items, notes, err := p.cfg.Collector.Collect(jobCtx, job.ID, terms)
	if err != nil {
		return nil, valerr.From(err)
	}
	if err := stageGate(jobCtx); err != nil {
		return nil, valerr.From(err)
	}

	sentiment, engagement, temporal, err := p.cfg.Analyzer.Analyze(items)
	if err != nil {
		return nil, valerr.From(err)
	}
	if err := stageGate(jobCtx); err != nil {
		return nil, valerr.From(err)
	}

	validation, confidence, flags := p.cfg.Scorer.Score(sentiment, engagement, temporal, len(items))

	if len(notes) > 0 {
		log.Info("job completed with partial collection", "job_id", job.ID, "notes", notes)
	}

	return &model.ValidationResult{
		ValidationScore:   validation,
		ConfidenceScore:   confidence,
		ValidationFlags:   flags,
		SentimentSummary:  sentiment,
		EngagementMetrics: engagement,
		TemporalAnalysis:  temporal,
	}, nil
}

func (p *Pool) settleCompleted(ctx context.Context, log *logging.Logger, msg *queue.Message, result *model.ValidationResult) {
	job, err := p.cfg.Store.Transition(ctx, msg.JobID, jobstore.StatusCompleted,
		jobstore.TransitionPayload{Result: result})
	if err != nil {
		// The terminal write is the one effect that must not be lost:
		// leave the message un-acked so the store write is retried.
		log.Error("completed transition failed, requeueing", "job_id", msg.JobID, "err", err)
		if nackErr := p.cfg.Queue.Nack(ctx, msg); nackErr != nil {
			log.Error("nack failed", "job_id", msg.JobID, "err", nackErr)
		}
		return
	}

	if p.cfg.Cache != nil {
		p.cfg.Cache.Set(ctx, job.ID, result)
	}
	if p.cfg.Events != nil {
		p.cfg.Events.Publish(ctx, events.EventJobCompleted, job.ID, map[string]string{
			"status": string(job.Status),
		})
	}

	log.Info("job completed", "job_id", job.ID,
		"validation_score", result.ValidationScore, "confidence_score", result.ConfidenceScore)
	p.ack(ctx, log, msg)
}

func (p *Pool) settleFailed(ctx context.Context, log *logging.Logger, msg *queue.Message, jobErr *valerr.JobError) {
	job, err := p.cfg.Store.Transition(ctx, msg.JobID, jobstore.StatusFailed,
		jobstore.TransitionPayload{Error: jobErr})
	if err != nil {
		log.Error("failed transition failed, requeueing", "job_id", msg.JobID, "err", err)
		if nackErr := p.cfg.Queue.Nack(ctx, msg); nackErr != nil {
			log.Error("nack failed", "job_id", msg.JobID, "err", nackErr)
		}
		return
	}

	if p.cfg.Events != nil {
		p.cfg.Events.Publish(ctx, events.EventJobFailed, job.ID, map[string]string{
			"kind": string(jobErr.Kind),
		})
	}

	log.Warn("job failed", "job_id", job.ID, "kind", jobErr.Kind, "reason", jobErr.Reason)
	p.ack(ctx, log, msg)
}

func (p *Pool) ack(ctx context.Context, log *logging.Logger, msg *queue.Message) {
	if err := p.cfg.Queue.Ack(ctx, msg); err != nil {
		log.Error("ack failed", "job_id", msg.JobID, "err", err)
	}
}

// stageGate checks cancellation between stages — never mid-network-call.
func stageGate(ctx context.Context) error {
	return ctx.Err()
}
