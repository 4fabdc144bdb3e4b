package testsupport

import (
	"context"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/pipeline"
	"clipforge/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob enqueues a generation request for tests using the provided store.
func NewJob(t testing.TB, store *queue.Store, script string) *queue.Job {
	t.Helper()

	job, err := store.Add(context.Background(), pipeline.Request{Script: script})
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return job
}
