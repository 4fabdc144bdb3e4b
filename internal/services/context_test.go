package services_test

import (
	"context"
	"testing"

	"clipforge/internal/services"
)

func TestJobIDRoundTrip(t *testing.T) {
	ctx := services.WithJobID(context.Background(), 7)
	id, ok := services.JobIDFromContext(ctx)
	if !ok || id != 7 {
		t.Fatalf("got %d ok=%v", id, ok)
	}
	if _, ok := services.JobIDFromContext(context.Background()); ok {
		t.Fatal("expected absent job id")
	}
}

func TestStageAndSessionRoundTrip(t *testing.T) {
	ctx := services.WithStage(context.Background(), "narration")
	ctx = services.WithSession(ctx, "d9f3")

	stage, ok := services.StageFromContext(ctx)
	if !ok || stage != "narration" {
		t.Fatalf("got %q ok=%v", stage, ok)
	}
	session, ok := services.SessionFromContext(ctx)
	if !ok || session != "d9f3" {
		t.Fatalf("got %q ok=%v", session, ok)
	}
}

func TestEmptyValuesAreNotStored(t *testing.T) {
	ctx := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("empty stage should not be stored")
	}
	ctx = services.WithSession(context.Background(), "")
	if _, ok := services.SessionFromContext(ctx); ok {
		t.Fatal("empty session should not be stored")
	}
}
