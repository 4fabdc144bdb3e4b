package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipforge/internal/compose"
	"clipforge/internal/media/music"
)

type fakeNarrator struct {
	audio []byte
	err   error
}

func (f *fakeNarrator) Synthesize(ctx context.Context, script, voice string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

type fakePrompts struct{}

func (fakePrompts) Generate(ctx context.Context, sceneText string) string {
	return strings.TrimSpace(sceneText)
}

type fakeImages struct {
	failing map[int]bool
	calls   int
}

func (f *fakeImages) Synthesize(ctx context.Context, prompt, style string) ([]byte, error) {
	call := f.calls
	f.calls++
	if f.failing[call] {
		return nil, errors.New("image service down")
	}
	return []byte("png:" + prompt), nil
}

type fakeMusic struct {
	selection music.Selection
}

func (f *fakeMusic) Select(seed string) music.Selection {
	return f.selection
}

type fakeCompositor struct {
	spec       compose.Spec
	composeErr error
	thumbErr   error
	duration   float64
}

func (f *fakeCompositor) Compose(ctx context.Context, spec compose.Spec) error {
	f.spec = spec
	if f.composeErr != nil {
		return f.composeErr
	}
	return os.WriteFile(spec.OutputPath, []byte("mp4"), 0o644)
}

func (f *fakeCompositor) ExtractThumbnail(ctx context.Context, videoPath, outputPath string) error {
	if f.thumbErr != nil {
		return f.thumbErr
	}
	return os.WriteFile(outputPath, []byte("jpg"), 0o644)
}

func (f *fakeCompositor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if f.duration <= 0 {
		return 0, errors.New("probe failed")
	}
	return f.duration, nil
}

type fakeUploader struct {
	uploads map[string][]byte
}

func (f *fakeUploader) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[key] = data
	return key, nil
}

func (f *fakeUploader) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://cdn.example/%s?ttl=%d", key, int64(ttl.Seconds())), nil
}

func newTestOrchestrator(t *testing.T, workDir string, mutate func(*Options)) (*Orchestrator, *fakeCompositor, *fakeUploader) {
	t.Helper()
	comp := &fakeCompositor{duration: 42.5}
	uploader := &fakeUploader{}
	opts := Options{
		Narrator:   &fakeNarrator{audio: []byte("mp3")},
		Prompts:    fakePrompts{},
		Images:     &fakeImages{},
		Music:      &fakeMusic{},
		Compositor: comp,
		Uploader:   uploader,
		WorkDir:    workDir,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewOrchestrator(opts), comp, uploader
}

func baseRequest() Request {
	req := DefaultRequest()
	req.Script = "One. Two. Three. Four. Five."
	return req
}

func TestGenerateSuccess(t *testing.T) {
	workDir := t.TempDir()
	var stages []string
	orch, comp, uploader := newTestOrchestrator(t, workDir, func(o *Options) {
		o.Progress = func(stage string) { stages = append(stages, stage) }
	})

	result := orch.Generate(context.Background(), baseRequest())
	if !result.OK() {
		t.Fatalf("expected success, got %#v", result)
	}
	if result.DurationSeconds != 42.5 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds)
	}
	if result.ImagesUsed != 5 {
		t.Fatalf("expected 5 images used, got %d", result.ImagesUsed)
	}
	if !strings.HasPrefix(result.VideoURL, "https://cdn.example/videos/") {
		t.Fatalf("unexpected video url %q", result.VideoURL)
	}
	if !strings.HasPrefix(result.ThumbnailURL, "https://cdn.example/thumbnails/") {
		t.Fatalf("unexpected thumbnail url %q", result.ThumbnailURL)
	}
	if len(uploader.uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(uploader.uploads))
	}
	if len(comp.spec.Images) != 5 {
		t.Fatalf("compositor should receive 5 images, got %d", len(comp.spec.Images))
	}

	// The session workspace must not outlive the run.
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("workspace not cleaned: %v", entries)
	}

	joined := strings.Join(stages, ",")
	for _, stage := range []string{StageNarration, StageImages, StageCompose, StageThumbnail, StagePublish} {
		if !strings.Contains(joined, stage) {
			t.Fatalf("stage %s not reported in %q", stage, joined)
		}
	}
}

func TestGenerateNarrationFailureIsFatal(t *testing.T) {
	workDir := t.TempDir()
	orch, _, uploader := newTestOrchestrator(t, workDir, func(o *Options) {
		o.Narrator = &fakeNarrator{err: errors.New("tts unavailable")}
	})

	result := orch.Generate(context.Background(), baseRequest())
	if result.OK() {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(result.ErrorMessage, "tts unavailable") {
		t.Fatalf("unexpected error message %q", result.ErrorMessage)
	}
	if len(uploader.uploads) != 0 {
		t.Fatal("nothing should be uploaded on fatal narration failure")
	}
	entries, _ := os.ReadDir(workDir)
	if len(entries) != 0 {
		t.Fatalf("workspace not cleaned on failure: %v", entries)
	}
}

func TestGeneratePartialImageFailureStillSucceeds(t *testing.T) {
	orch, comp, _ := newTestOrchestrator(t, t.TempDir(), func(o *Options) {
		o.Images = &fakeImages{failing: map[int]bool{0: true, 2: true, 4: true}}
	})

	result := orch.Generate(context.Background(), baseRequest())
	if !result.OK() {
		t.Fatalf("expected success despite image failures, got %#v", result)
	}
	if result.ImagesUsed != 2 {
		t.Fatalf("expected 2 images used, got %d", result.ImagesUsed)
	}
	if len(comp.spec.Images) != 2 {
		t.Fatalf("compositor should receive only present images, got %d", len(comp.spec.Images))
	}
}

func TestGenerateZeroImagesDegradesToAudioOnly(t *testing.T) {
	orch, comp, _ := newTestOrchestrator(t, t.TempDir(), func(o *Options) {
		o.Images = &fakeImages{failing: map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}}
	})

	result := orch.Generate(context.Background(), baseRequest())
	if !result.OK() {
		t.Fatalf("expected success with zero images, got %#v", result)
	}
	if result.ImagesUsed != 0 || len(comp.spec.Images) != 0 {
		t.Fatalf("expected audio-only composition, got %d images", len(comp.spec.Images))
	}
}

func TestGenerateMusicSelection(t *testing.T) {
	track := filepath.Join(t.TempDir(), "calm.mp3")
	orch, comp, _ := newTestOrchestrator(t, t.TempDir(), func(o *Options) {
		o.Music = &fakeMusic{selection: music.Selection{Path: track, Available: true}}
	})

	result := orch.Generate(context.Background(), baseRequest())
	if !result.OK() {
		t.Fatalf("unexpected failure: %#v", result)
	}
	if comp.spec.MusicPath != track {
		t.Fatalf("music track not passed to compositor: %q", comp.spec.MusicPath)
	}
	if comp.spec.MusicVolumePercent != 30 {
		t.Fatalf("unexpected music volume %d", comp.spec.MusicVolumePercent)
	}
}

func TestGenerateMusicNotRequested(t *testing.T) {
	orch, comp, _ := newTestOrchestrator(t, t.TempDir(), func(o *Options) {
		o.Music = &fakeMusic{selection: music.Selection{Path: "/music/track.mp3", Available: true}}
	})

	req := baseRequest()
	req.BackgroundMusic = false
	result := orch.Generate(context.Background(), req)
	if !result.OK() {
		t.Fatalf("unexpected failure: %#v", result)
	}
	if comp.spec.MusicPath != "" {
		t.Fatalf("music should be omitted when not requested, got %q", comp.spec.MusicPath)
	}
}

func TestGenerateComposeFailureIsFatalButCleansUp(t *testing.T) {
	workDir := t.TempDir()
	orch, _, _ := newTestOrchestrator(t, workDir, func(o *Options) {
		o.Compositor = &fakeCompositor{composeErr: errors.New("ffmpeg exploded"), duration: 10}
	})

	result := orch.Generate(context.Background(), baseRequest())
	if result.OK() {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(result.ErrorMessage, "ffmpeg exploded") {
		t.Fatalf("unexpected error %q", result.ErrorMessage)
	}
	entries, _ := os.ReadDir(workDir)
	if len(entries) != 0 {
		t.Fatalf("workspace not cleaned: %v", entries)
	}
}

func TestGenerateThumbnailFailureIsFatal(t *testing.T) {
	orch, _, uploader := newTestOrchestrator(t, t.TempDir(), func(o *Options) {
		o.Compositor = &fakeCompositor{thumbErr: errors.New("no frame"), duration: 10}
	})

	result := orch.Generate(context.Background(), baseRequest())
	if result.OK() {
		t.Fatal("expected failure result")
	}
	if len(uploader.uploads) != 0 {
		t.Fatal("nothing should be uploaded when the thumbnail fails")
	}
}

func TestGenerateEmptyScriptRejected(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, t.TempDir(), nil)
	req := DefaultRequest()
	req.Script = "   "
	result := orch.Generate(context.Background(), req)
	if result.OK() {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(result.ErrorMessage, "script") {
		t.Fatalf("unexpected error %q", result.ErrorMessage)
	}
}

func TestGenerateUnavailableToolRejected(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, t.TempDir(), func(o *Options) {
		o.FFmpegBinary = "definitely-not-a-real-ffmpeg"
	})
	result := orch.Generate(context.Background(), baseRequest())
	if result.OK() {
		t.Fatal("expected preflight failure")
	}
	if !strings.Contains(result.ErrorMessage, "unavailable") {
		t.Fatalf("unexpected error %q", result.ErrorMessage)
	}
}
