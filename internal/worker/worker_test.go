package worker

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/pipeline"
	"clipforge/internal/queue"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	return &cfg
}

func newTestStore(t *testing.T, cfg *config.Config) *queue.Store {
	t.Helper()
	store, err := queue.OpenPath(filepath.Join(cfg.Paths.WorkDir, "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func addJob(t *testing.T, store *queue.Store) *queue.Job {
	t.Helper()
	job, err := store.Add(context.Background(), pipeline.Request{Script: "One. Two. Three."})
	if err != nil {
		t.Fatalf("add job: %v", err)
	}
	return job
}

func waitForFinished(t *testing.T, store *queue.Store, id int64) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job.Finished() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %d never finished", id)
	return nil
}

func TestWorkerCompletesJob(t *testing.T) {
	cfg := newTestConfig(t)
	store := newTestStore(t, cfg)
	job := addJob(t, store)

	var mu sync.Mutex
	var seenScripts []string
	generate := func(_ context.Context, req pipeline.Request, progress pipeline.ProgressFunc) pipeline.Result {
		mu.Lock()
		seenScripts = append(seenScripts, req.Script)
		mu.Unlock()
		progress("compose")
		return pipeline.Result{
			VideoURL:        "https://example.test/videos/final.mp4",
			ThumbnailURL:    "https://example.test/thumbnails/final.jpg",
			DurationSeconds: 21.5,
			ImagesUsed:      3,
		}
	}

	worker, err := New(cfg, store, generate, nil)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	defer worker.Stop()

	finished := waitForFinished(t, store, job.ID)
	if finished.Status != queue.StatusCompleted {
		t.Fatalf("status = %q, want %q (error: %q)", finished.Status, queue.StatusCompleted, finished.ErrorMessage)
	}
	if finished.VideoURL != "https://example.test/videos/final.mp4" {
		t.Fatalf("video url = %q", finished.VideoURL)
	}
	if finished.DurationSeconds != 21.5 || finished.ImagesUsed != 3 {
		t.Fatalf("result fields = %v / %v", finished.DurationSeconds, finished.ImagesUsed)
	}
	if finished.ProgressStage != "" {
		t.Fatalf("progress stage = %q, want cleared", finished.ProgressStage)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seenScripts) != 1 || seenScripts[0] != "One. Two. Three." {
		t.Fatalf("generate saw scripts %v", seenScripts)
	}
}

func TestWorkerRecordsFailure(t *testing.T) {
	cfg := newTestConfig(t)
	store := newTestStore(t, cfg)
	job := addJob(t, store)

	generate := func(context.Context, pipeline.Request, pipeline.ProgressFunc) pipeline.Result {
		return pipeline.Result{ErrorMessage: "narration synthesis failed"}
	}

	worker, err := New(cfg, store, generate, nil)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	defer worker.Stop()

	finished := waitForFinished(t, store, job.ID)
	if finished.Status != queue.StatusFailed {
		t.Fatalf("status = %q, want %q", finished.Status, queue.StatusFailed)
	}
	if finished.ErrorMessage != "narration synthesis failed" {
		t.Fatalf("error message = %q", finished.ErrorMessage)
	}
}

func TestWorkerRequeuesStrandedJobs(t *testing.T) {
	cfg := newTestConfig(t)
	store := newTestStore(t, cfg)
	job := addJob(t, store)

	claimed, err := store.ClaimNextPending(context.Background())
	if err != nil {
		t.Fatalf("claim job: %v", err)
	}
	if claimed == nil || claimed.ID != job.ID {
		t.Fatalf("claimed job = %+v", claimed)
	}

	generate := func(context.Context, pipeline.Request, pipeline.ProgressFunc) pipeline.Result {
		return pipeline.Result{VideoURL: "https://example.test/v.mp4", ThumbnailURL: "https://example.test/t.jpg", DurationSeconds: 5, ImagesUsed: 1}
	}
	worker, err := New(cfg, store, generate, nil)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	defer worker.Stop()

	finished := waitForFinished(t, store, job.ID)
	if finished.Status != queue.StatusCompleted {
		t.Fatalf("status = %q, want %q", finished.Status, queue.StatusCompleted)
	}
}

func TestWorkerSingleInstance(t *testing.T) {
	cfg := newTestConfig(t)
	store := newTestStore(t, cfg)

	generate := func(context.Context, pipeline.Request, pipeline.ProgressFunc) pipeline.Result {
		return pipeline.Result{}
	}

	first, err := New(cfg, store, generate, nil)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("start first worker: %v", err)
	}
	defer first.Stop()

	second, err := New(cfg, store, generate, nil)
	if err != nil {
		t.Fatalf("new second worker: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second worker start to fail while lock is held")
	}
}

func TestWorkerStopIsIdempotent(t *testing.T) {
	cfg := newTestConfig(t)
	store := newTestStore(t, cfg)

	worker, err := New(cfg, store, func(context.Context, pipeline.Request, pipeline.ProgressFunc) pipeline.Result {
		return pipeline.Result{}
	}, nil)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	if !worker.Running() {
		t.Fatal("worker should report running after start")
	}
	worker.Stop()
	worker.Stop()
	if worker.Running() {
		t.Fatal("worker should report stopped")
	}
}

func TestWorkerRejectsMissingCollaborators(t *testing.T) {
	cfg := newTestConfig(t)
	store := newTestStore(t, cfg)
	if _, err := New(nil, store, nil, nil); err == nil {
		t.Fatal("expected error for missing config and generate function")
	}
	if _, err := New(cfg, nil, func(context.Context, pipeline.Request, pipeline.ProgressFunc) pipeline.Result {
		return pipeline.Result{}
	}, nil); err == nil {
		t.Fatal("expected error for missing store")
	}
}
