package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WorkerPoolConfig contains configuration for the worker pool
type WorkerPoolConfig struct {
	Workers       int           `json:"workers"`         // Number of concurrent workers
	PollInterval  time.Duration `json:"poll_interval"`   // How often to check for new jobs
	RatePerMinute int           `json:"rate_per_minute"` // Job executions per minute across the pool (0 = unlimited)
	MaxRetries    int           `json:"max_retries"`     // Retry attempts before a job is marked failed
}

// DefaultWorkerPoolConfig returns sensible defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		Workers:       1,
		PollInterval:  5 * time.Second,
		RatePerMinute: 60,
		MaxRetries:    2,
	}
}

// WorkerPool polls the queue and executes jobs through registered handlers.
// Execution is bounded by a shared rate limiter so a pathological document
// cannot monopolize the process.
type WorkerPool struct {
	queue     *Queue
	registry  *HandlerRegistry
	config    WorkerPoolConfig
	limiter   *rate.Limiter
	parentCtx context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	logger    *zap.SugaredLogger
	mu        sync.Mutex
}

// NewWorkerPool creates a worker pool with an empty handler registry.
// Callers must register handlers before calling Start().
func NewWorkerPool(queue *Queue, cfg WorkerPoolConfig, logger *zap.SugaredLogger) *WorkerPool {
	return NewWorkerPoolWithContext(context.Background(), queue, cfg, logger)
}

// NewWorkerPoolWithContext creates a worker pool whose workers stop when the
// parent context is cancelled. Useful for tests and shutdown coordination.
func NewWorkerPoolWithContext(ctx context.Context, queue *Queue, cfg WorkerPoolConfig, logger *zap.SugaredLogger) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		queue:     queue,
		registry:  NewHandlerRegistry(),
		config:    cfg,
		limiter:   limiter,
		parentCtx: ctx,
		ctx:       workerCtx,
		cancel:    cancel,
		logger:    logger,
	}
}

// Registry returns the handler registry for job handler registration
func (wp *WorkerPool) Registry() *HandlerRegistry {
	return wp.registry
}

// Start begins processing jobs with the worker pool.
// Jobs orphaned in "running" state by a previous crash are requeued first.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	// Recreate context if Stop() was called before
	select {
	case <-wp.ctx.Done():
		wp.ctx, wp.cancel = context.WithCancel(wp.parentCtx)
	default:
	}
	wp.mu.Unlock()

	if err := wp.recoverOrphanedJobs(); err != nil {
		wp.logger.Warnw("Failed to recover orphaned jobs", "error", err)
		// Continue starting workers even if recovery fails
	}

	for i := 0; i < wp.config.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	wp.logger.Infow("Worker pool started",
		"workers", wp.config.Workers,
		"poll_interval", wp.config.PollInterval,
		"handlers", wp.registry.Names(),
	)
}

// Stop gracefully stops the worker pool, waiting for in-flight jobs
func (wp *WorkerPool) Stop() {
	wp.cancel()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.logger.Infow("Worker pool stopped cleanly")
	case <-time.After(30 * time.Second):
		wp.logger.Warnw("Worker pool stop timed out, jobs may still be finishing")
	}
}

// recoverOrphanedJobs requeues jobs stuck in "running" state.
// This handles ungraceful shutdowns (crash, kill -9, power loss); requeueing
// is safe because execution re-resolves document state at run time.
func (wp *WorkerPool) recoverOrphanedJobs() error {
	runningStatus := JobStatusRunning
	orphaned, err := wp.queue.ListJobs(&runningStatus, MaxJobsLimit)
	if err != nil {
		return err
	}

	for _, job := range orphaned {
		job.Requeue()
		job.RetryCount-- // Recovery is not a retry
		if err := wp.queue.UpdateJob(job); err != nil {
			wp.logger.Warnw("Failed to requeue orphaned job",
				"job_id", job.ID,
				"error", err,
			)
			continue
		}
		wp.logger.Infow("Requeued orphaned job",
			"job_id", job.ID,
			"handler", job.HandlerName,
		)
	}

	return nil
}

// worker polls for queued jobs and executes them until the context is cancelled
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	ticker := time.NewTicker(wp.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debugw("Worker exiting", "worker", id)
			return
		case <-ticker.C:
			wp.processNext(id)
		}
	}
}

// processNext dequeues and executes at most one job
func (wp *WorkerPool) processNext(workerID int) {
	if wp.limiter != nil {
		if err := wp.limiter.Wait(wp.ctx); err != nil {
			return // context cancelled
		}
	}

	job, err := wp.queue.Dequeue()
	if err != nil {
		wp.logger.Errorw("Failed to dequeue job",
			"worker", workerID,
			"error", err,
		)
		return
	}
	if job == nil {
		return // Nothing queued
	}

	wp.logger.Infow("Executing job",
		"worker", workerID,
		"job_id", job.ID,
		"handler", job.HandlerName,
		"source", job.Source,
		"retry", job.RetryCount,
	)

	execErr := wp.registry.Execute(wp.ctx, job)
	if execErr == nil {
		if err := wp.queue.CompleteJob(job.ID); err != nil {
			wp.logger.Errorw("Failed to mark job completed",
				"job_id", job.ID,
				"error", err,
			)
		}
		return
	}

	if job.RetryCount < wp.config.MaxRetries {
		job.Requeue()
		if err := wp.queue.UpdateJob(job); err != nil {
			wp.logger.Errorw("Failed to requeue job for retry",
				"job_id", job.ID,
				"error", err,
			)
			return
		}
		wp.logger.Warnw("Job failed, requeued for retry",
			"job_id", job.ID,
			"handler", job.HandlerName,
			"retry", job.RetryCount,
			"error", execErr,
		)
		return
	}

	if err := wp.queue.FailJob(job.ID, execErr); err != nil {
		wp.logger.Errorw("Failed to mark job failed",
			"job_id", job.ID,
			"error", err,
		)
	}
	wp.logger.Errorw("Job failed permanently",
		"job_id", job.ID,
		"handler", job.HandlerName,
		"retries", job.RetryCount,
		"error", execErr,
	)
}
