package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"clipforge/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("tts request failed")
	err := services.Wrap(services.ErrExternalTool, "narration", "speech", "synthesize narration", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("expected external tool marker")
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped cause to survive")
	}
	msg := err.Error()
	for _, want := range []string{"narration", "speech", "synthesize narration", "tts request failed"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "compose", "ffmpeg", "", errors.New("exit 1"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("expected transient marker when none supplied")
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "", "", "script must not be empty", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatal("expected validation marker")
	}
	if got := err.Error(); !strings.Contains(got, "script must not be empty") {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestExternalMarker(t *testing.T) {
	if got := services.ExternalMarker(errors.New("boom")); got != services.ErrExternalTool {
		t.Fatalf("marker = %v, want external tool", got)
	}
	wrapped := services.Wrap(nil, "narration", "synthesize", "", context.DeadlineExceeded)
	if got := services.ExternalMarker(wrapped); got != services.ErrTimeout {
		t.Fatalf("marker = %v, want timeout", got)
	}
}

func TestWrapBlankDetail(t *testing.T) {
	err := services.Wrap(services.ErrTransient, "  ", "", "", nil)
	if got := err.Error(); !strings.Contains(got, "service failure") {
		t.Fatalf("unexpected message: %q", got)
	}
}
