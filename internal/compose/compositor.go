package compose

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"clipforge/internal/fileutil"
	"clipforge/internal/logging"
	"clipforge/internal/media/ffprobe"
	"clipforge/internal/services"
)

// Spec describes one composition: the assets available and the output target.
type Spec struct {
	Images             []string
	NarrationPath      string
	OutputPath         string
	AspectRatio        string
	MusicPath          string
	MusicVolumePercent int
}

// Compositor renders narration, images, and music into a finished video by
// driving ffmpeg. A slideshow render that fails degrades to a solid-color
// video with narration audio rather than failing the composition.
type Compositor struct {
	ffmpegBinary  string
	ffprobeBinary string
	logger        *slog.Logger
}

// NewCompositor constructs a compositor using the given binaries.
func NewCompositor(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Compositor{
		ffmpegBinary:  strings.TrimSpace(ffmpegBinary),
		ffprobeBinary: strings.TrimSpace(ffprobeBinary),
		logger:        logger,
	}
}

// renderStrategy is one way of producing the final video. Strategies are
// tried in order; a failure degrades to the next entry and only the last
// strategy failing is fatal.
type renderStrategy struct {
	name string
	run  func(ctx context.Context, spec Spec, width, height int, duration float64) error
}

func (c *Compositor) strategies(spec Spec) []renderStrategy {
	var chain []renderStrategy
	if len(spec.Images) > 0 {
		chain = append(chain, renderStrategy{name: "slideshow", run: c.slideshow})
	}
	return append(chain, renderStrategy{name: "solid color", run: c.colorVideo})
}

// Compose renders the spec into OutputPath, walking the strategy chain: a
// two-pass slideshow when images are present, then a solid-color video
// carrying the narration.
func (c *Compositor) Compose(ctx context.Context, spec Spec) error {
	duration, err := c.ProbeDuration(ctx, spec.NarrationPath)
	if err != nil {
		return err
	}

	width, height := Dimensions(spec.AspectRatio)

	chain := c.strategies(spec)
	var lastErr error
	for i, strategy := range chain {
		lastErr = strategy.run(ctx, spec, width, height, duration)
		if lastErr == nil {
			return nil
		}
		if i < len(chain)-1 {
			c.logger.Warn("composition strategy failed, degrading to next",
				logging.String("strategy", strategy.name),
				logging.Error(lastErr))
		}
	}
	return services.Wrap(services.ErrExternalTool, "compose", "render",
		"every composition strategy failed", lastErr)
}

func (c *Compositor) colorVideo(ctx context.Context, spec Spec, width, height int, duration float64) error {
	return c.run(ctx, colorVideoArgs(spec.NarrationPath, spec.OutputPath, width, height, duration))
}

// ProbeDuration inspects a media file and returns its duration in seconds.
// A file ffprobe cannot measure, or one reporting a non-positive duration,
// is rejected.
func (c *Compositor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, c.ffprobeBinary, path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "compose", "probe", "inspect media", err)
	}
	duration := result.DurationSeconds()
	if duration <= 0 {
		return 0, services.Wrap(services.ErrValidation, "compose", "probe",
			fmt.Sprintf("media %s reports non-positive duration", filepath.Base(path)), nil)
	}
	return duration, nil
}

// ExtractThumbnail exports one frame from the 1-second mark of the video,
// scaled to 1080px wide. Thumbnail failures are not degradable; the error
// propagates to the caller.
func (c *Compositor) ExtractThumbnail(ctx context.Context, videoPath, outputPath string) error {
	if err := c.run(ctx, thumbnailArgs(videoPath, outputPath)); err != nil {
		return services.Wrap(services.ErrExternalTool, "compose", "thumbnail", "extract thumbnail frame", err)
	}
	return nil
}

// slideshow runs the two-pass image composition: a silent concat render,
// then an audio mux. The manifest and silent intermediate are deleted
// regardless of outcome.
func (c *Compositor) slideshow(ctx context.Context, spec Spec, width, height int, duration float64) error {
	perImage := perImageDuration(duration, len(spec.Images))

	dir := filepath.Dir(spec.OutputPath)
	manifestPath := filepath.Join(dir, "scenes.txt")
	silentPath := filepath.Join(dir, "silent.mp4")
	defer func() {
		if err := fileutil.RemoveQuiet(manifestPath, silentPath); err != nil {
			c.logger.Warn("failed to remove composition intermediates", logging.Error(err))
		}
	}()

	if err := writeManifest(manifestPath, spec.Images, perImage); err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}
	if err := c.run(ctx, slideshowArgs(manifestPath, silentPath, width, height, duration)); err != nil {
		return fmt.Errorf("render silent slideshow: %w", err)
	}

	var muxArgs []string
	if spec.MusicPath != "" {
		muxArgs = muxMixedAudioArgs(silentPath, spec.NarrationPath, spec.MusicPath, spec.OutputPath, spec.MusicVolumePercent, duration)
	} else {
		muxArgs = muxNarrationArgs(silentPath, spec.NarrationPath, spec.OutputPath)
	}
	if err := c.run(ctx, muxArgs); err != nil {
		return fmt.Errorf("mux audio: %w", err)
	}
	return nil
}

func (c *Compositor) run(ctx context.Context, args []string) error {
	binary := c.ffmpegBinary
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
