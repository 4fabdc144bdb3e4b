package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/compose"
	"clipforge/internal/fileutil"
	"clipforge/internal/logging"
	"clipforge/internal/media/music"
	"clipforge/internal/publish"
	"clipforge/internal/scenes"
	"clipforge/internal/services"
)

// Stage names reported through the progress callback and log fields.
const (
	StageNarration = "narration"
	StagePrompts   = "prompts"
	StageImages    = "images"
	StageMusic     = "music"
	StageCompose   = "compose"
	StageThumbnail = "thumbnail"
	StagePublish   = "publish"
)

// Narrator synthesizes the narration audio for a script.
type Narrator interface {
	Synthesize(ctx context.Context, script, voice string) ([]byte, error)
}

// PromptGenerator turns scene text into a visual prompt. It never fails;
// implementations fall back to the raw scene text.
type PromptGenerator interface {
	Generate(ctx context.Context, sceneText string) string
}

// ImageSynthesizer renders one prompt into image bytes.
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, prompt, style string) ([]byte, error)
}

// MusicSelector picks a background track for a session.
type MusicSelector interface {
	Select(seed string) music.Selection
}

// Compositor renders the final video and extracts its thumbnail.
type Compositor interface {
	Compose(ctx context.Context, spec compose.Spec) error
	ExtractThumbnail(ctx context.Context, videoPath, outputPath string) error
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Uploader publishes artifacts and mints signed download links.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ImageAsset records the outcome of one scene's image synthesis.
type ImageAsset struct {
	SceneOrder int
	LocalPath  string
	Present    bool
}

// ProgressFunc observes stage transitions during a generation.
type ProgressFunc func(stage string)

// Orchestrator runs the full script-to-video pipeline. One call handles one
// video end-to-end; concurrent calls are independent because every artifact
// lives in a session-keyed workspace.
type Orchestrator struct {
	narrator   Narrator
	prompts    PromptGenerator
	images     ImageSynthesizer
	music      MusicSelector
	compositor Compositor
	uploader   Uploader

	workDir       string
	ffmpegBinary  string
	ffprobeBinary string
	logger        *slog.Logger
	progress      ProgressFunc
}

// Options bundle the orchestrator's collaborators and settings.
type Options struct {
	Narrator      Narrator
	Prompts       PromptGenerator
	Images        ImageSynthesizer
	Music         MusicSelector
	Compositor    Compositor
	Uploader      Uploader
	WorkDir       string
	FFmpegBinary  string
	FFprobeBinary string
	Logger        *slog.Logger
	Progress      ProgressFunc
}

// NewOrchestrator wires a pipeline from the supplied collaborators.
func NewOrchestrator(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		narrator:      opts.Narrator,
		prompts:       opts.Prompts,
		images:        opts.Images,
		music:         opts.Music,
		compositor:    opts.Compositor,
		uploader:      opts.Uploader,
		workDir:       opts.WorkDir,
		ffmpegBinary:  opts.FFmpegBinary,
		ffprobeBinary: opts.FFprobeBinary,
		logger:        logger,
		progress:      opts.Progress,
	}
}

// WithProgress returns a copy of the orchestrator reporting stage
// transitions to fn. The copy shares every collaborator.
func (o *Orchestrator) WithProgress(fn ProgressFunc) *Orchestrator {
	clone := *o
	clone.progress = fn
	return &clone
}

// Generate runs the pipeline for one request and always returns a structured
// result. Narration synthesis and tool availability are fatal; image, prompt,
// and music failures degrade the output instead of failing it.
func (o *Orchestrator) Generate(ctx context.Context, req Request) Result {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return failure(err)
	}
	if err := o.checkTools(); err != nil {
		return failure(err)
	}

	session := uuid.NewString()
	ctx = services.WithSession(ctx, session)
	logger := logging.WithContext(ctx, o.logger)

	workspace := filepath.Join(o.workDir, session)
	if err := fileutil.EnsureDir(workspace); err != nil {
		return failure(services.Wrap(services.ErrConfiguration, "pipeline", "workspace", "create session workspace", err))
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			logger.Warn("failed to remove session workspace",
				logging.String("workspace", workspace),
				logging.Error(err))
		}
	}()

	logger.Info("generation started",
		logging.Int("image_count", req.ImageCount),
		logging.String("aspect_ratio", req.AspectRatio),
		logging.String("style", req.Style))

	narrationPath, err := o.synthesizeNarration(ctx, req, workspace)
	if err != nil {
		return failure(err)
	}

	assets := o.generateImages(ctx, req, workspace, logger)
	imagePaths := presentPaths(assets)

	musicPath := o.selectMusic(req, session, logger)

	o.report(StageCompose)
	videoPath := filepath.Join(workspace, "final.mp4")
	err = o.compositor.Compose(ctx, compose.Spec{
		Images:             imagePaths,
		NarrationPath:      narrationPath,
		OutputPath:         videoPath,
		AspectRatio:        req.AspectRatio,
		MusicPath:          musicPath,
		MusicVolumePercent: req.MusicVolumePercent,
	})
	if err != nil {
		return failure(err)
	}

	o.report(StageThumbnail)
	thumbnailPath := filepath.Join(workspace, "thumbnail.jpg")
	if err := o.compositor.ExtractThumbnail(ctx, videoPath, thumbnailPath); err != nil {
		return failure(err)
	}

	duration, err := o.compositor.ProbeDuration(ctx, videoPath)
	if err != nil {
		return failure(err)
	}

	videoURL, thumbnailURL, err := o.publish(ctx, session, videoPath, thumbnailPath)
	if err != nil {
		return failure(err)
	}

	logger.Info("generation complete",
		logging.Float64("duration_seconds", duration),
		logging.Int("images_used", len(imagePaths)))
	return Result{
		VideoURL:        videoURL,
		ThumbnailURL:    thumbnailURL,
		DurationSeconds: duration,
		ImagesUsed:      len(imagePaths),
	}
}

func (o *Orchestrator) checkTools() error {
	for _, binary := range []string{o.ffmpegBinary, o.ffprobeBinary} {
		if binary == "" {
			continue
		}
		if _, err := exec.LookPath(binary); err != nil {
			return services.Wrap(services.ErrConfiguration, "pipeline", "preflight",
				fmt.Sprintf("transcoding tool %q unavailable", binary), err)
		}
	}
	return nil
}

func (o *Orchestrator) synthesizeNarration(ctx context.Context, req Request, workspace string) (string, error) {
	o.report(StageNarration)
	ctx = services.WithStage(ctx, StageNarration)
	audio, err := o.narrator.Synthesize(ctx, req.Script, req.VoiceID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(workspace, "narration.mp3")
	if err := fileutil.WriteFileAtomic(path, audio, 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, StageNarration, "write", "persist narration audio", err)
	}
	return path, nil
}

// generateImages walks every scene, producing a prompt and attempting one
// image per scene. Failures are scene-scoped: they are logged and the scene
// is skipped, never aborting the run.
func (o *Orchestrator) generateImages(ctx context.Context, req Request, workspace string, logger *slog.Logger) []ImageAsset {
	o.report(StagePrompts)
	sceneList := scenes.Split(req.Script, req.ImageCount)
	assets := make([]ImageAsset, 0, len(sceneList))

	o.report(StageImages)
	imageCtx := services.WithStage(ctx, StageImages)
	for _, scene := range sceneList {
		asset := ImageAsset{SceneOrder: scene.Order}
		prompt := o.prompts.Generate(services.WithStage(ctx, StagePrompts), scene.Text)
		if prompt == "" {
			logger.Warn("scene has no prompt, skipping image", logging.Int("scene", scene.Order))
			assets = append(assets, asset)
			continue
		}

		data, err := o.images.Synthesize(imageCtx, prompt, req.Style)
		if err != nil {
			logger.Warn("image synthesis failed, continuing without this scene",
				logging.Int("scene", scene.Order),
				logging.Error(err))
			assets = append(assets, asset)
			continue
		}
		path := filepath.Join(workspace, fmt.Sprintf("scene_%d.png", scene.Order))
		if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
			logger.Warn("failed to persist scene image",
				logging.Int("scene", scene.Order),
				logging.Error(err))
			assets = append(assets, asset)
			continue
		}
		asset.LocalPath = path
		asset.Present = true
		assets = append(assets, asset)
	}
	return assets
}

func (o *Orchestrator) selectMusic(req Request, session string, logger *slog.Logger) string {
	if !req.BackgroundMusic || o.music == nil {
		return ""
	}
	o.report(StageMusic)
	selection := o.music.Select(session)
	if !selection.Available {
		logger.Info("no background track available, composing without music")
		return ""
	}
	logger.Info("background track selected", logging.String("track", filepath.Base(selection.Path)))
	return selection.Path
}

func (o *Orchestrator) publish(ctx context.Context, session, videoPath, thumbnailPath string) (videoURL, thumbnailURL string, err error) {
	o.report(StagePublish)
	ctx = services.WithStage(ctx, StagePublish)

	video, err := os.ReadFile(videoPath)
	if err != nil {
		return "", "", services.Wrap(services.ErrTransient, StagePublish, "read", "read final video", err)
	}
	thumbnail, err := os.ReadFile(thumbnailPath)
	if err != nil {
		return "", "", services.Wrap(services.ErrTransient, StagePublish, "read", "read thumbnail", err)
	}

	videoKey, err := o.uploader.Upload(ctx, fmt.Sprintf("videos/%s.mp4", session), video)
	if err != nil {
		return "", "", err
	}
	thumbnailKey, err := o.uploader.Upload(ctx, fmt.Sprintf("thumbnails/%s.jpg", session), thumbnail)
	if err != nil {
		return "", "", err
	}

	videoURL, err = o.uploader.SignedURL(ctx, videoKey, publish.SignedURLTTL)
	if err != nil {
		return "", "", err
	}
	thumbnailURL, err = o.uploader.SignedURL(ctx, thumbnailKey, publish.SignedURLTTL)
	if err != nil {
		return "", "", err
	}
	return videoURL, thumbnailURL, nil
}

func (o *Orchestrator) report(stage string) {
	if o.progress != nil {
		o.progress(stage)
	}
}

func presentPaths(assets []ImageAsset) []string {
	paths := make([]string, 0, len(assets))
	for _, asset := range assets {
		if asset.Present {
			paths = append(paths, asset.LocalPath)
		}
	}
	return paths
}
