// Package worker drains the job queue, running one generation at a time.
// A file lock prevents two workers from processing the same queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/pipeline"
	"clipforge/internal/queue"
	"clipforge/internal/services"
)

// GenerateFunc runs one generation, reporting stage transitions to progress.
type GenerateFunc func(ctx context.Context, req pipeline.Request, progress pipeline.ProgressFunc) pipeline.Result

// Worker polls the queue and processes pending jobs sequentially.
type Worker struct {
	store    *queue.Store
	generate GenerateFunc
	logger   *slog.Logger

	lockPath string
	lock     *flock.Flock

	pollInterval       time.Duration
	errorRetryInterval time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a worker over the given store and generate function.
func New(cfg *config.Config, store *queue.Store, generate GenerateFunc, logger *slog.Logger) (*Worker, error) {
	if cfg == nil || store == nil || generate == nil {
		return nil, errors.New("worker requires config, store, and generate function")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.WorkDir, "worker.lock")
	return &Worker{
		store:              store,
		generate:           generate,
		logger:             logging.NewComponentLogger(logger, "worker"),
		lockPath:           lockPath,
		lock:               flock.New(lockPath),
		pollInterval:       time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}, nil
}

// Start acquires the worker lock, requeues jobs stranded by an unclean
// shutdown, and begins polling.
func (w *Worker) Start(ctx context.Context) error {
	if w.running.Load() {
		return errors.New("worker already running")
	}

	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire worker lock: %w", err)
	}
	if !ok {
		return errors.New("another worker instance is already running")
	}

	reset, err := w.store.ResetStuck(ctx)
	if err != nil {
		_ = w.lock.Unlock()
		return fmt.Errorf("requeue stranded jobs: %w", err)
	}
	if reset > 0 {
		w.logger.Info("requeued stranded jobs", logging.Int64("jobs", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running.Store(true)
	w.wg.Add(1)
	go w.loop(runCtx)

	w.logger.Info("worker started", logging.String("lock", w.lockPath))
	return nil
}

// Stop halts polling, waits for the in-flight job to finish, and releases
// the lock.
func (w *Worker) Stop() {
	if !w.running.Load() {
		return
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.wg.Wait()
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release worker lock", logging.Error(err))
	}
	w.running.Store(false)
	w.logger.Info("worker stopped")
}

// Running reports whether the worker loop is active.
func (w *Worker) Running() bool {
	return w.running.Load()
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := w.store.ClaimNextPending(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to claim next job", logging.Error(err))
			if !w.sleep(ctx, w.errorRetryInterval) {
				return
			}
			continue
		}
		if job == nil {
			if !w.sleep(ctx, w.pollInterval) {
				return
			}
			continue
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *queue.Job) {
	ctx = services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, w.logger)
	logger.Info("job started")

	req, err := job.Request()
	if err != nil {
		logger.Error("stored request is not decodable", logging.Error(err))
		w.finishJob(job.ID, pipeline.Result{ErrorMessage: "invalid stored request: " + err.Error()}, logger)
		return
	}

	progress := func(stage string) {
		if err := w.store.SetProgress(ctx, job.ID, stage); err != nil {
			logger.Warn("failed to record progress", logging.String("stage", stage), logging.Error(err))
		}
	}

	result := w.generate(ctx, req, progress)
	w.finishJob(job.ID, result, logger)
}

// finishJob persists the outcome using a fresh context so a canceled worker
// still records results for the job it just ran.
func (w *Worker) finishJob(id int64, result pipeline.Result, logger *slog.Logger) {
	persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if result.OK() {
		if err := w.store.Complete(persistCtx, id, result); err != nil {
			logger.Error("failed to persist job result", logging.Error(err))
			return
		}
		logger.Info("job completed",
			logging.Float64("duration_seconds", result.DurationSeconds),
			logging.Int("images_used", result.ImagesUsed))
		return
	}

	if err := w.store.Fail(persistCtx, id, result.ErrorMessage); err != nil {
		logger.Error("failed to persist job failure", logging.Error(err))
		return
	}
	logger.Warn("job failed", logging.String("error", result.ErrorMessage))
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Second
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
