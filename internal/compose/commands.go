package compose

import "fmt"

const (
	frameRate = 25
	// perImageFloorSeconds prevents sub-second image flashes when a short
	// narration is split across many images.
	perImageFloorSeconds = 2.0
	fadeSeconds          = 2.0
)

// perImageDuration spreads the narration evenly across the images, holding
// every image on screen for at least perImageFloorSeconds.
func perImageDuration(narrationSeconds float64, imageCount int) float64 {
	if imageCount <= 0 {
		return perImageFloorSeconds
	}
	per := narrationSeconds / float64(imageCount)
	if per < perImageFloorSeconds {
		per = perImageFloorSeconds
	}
	return per
}

// colorVideoArgs produces a solid-color video of exactly the narration's
// duration with the narration as its audio track.
func colorVideoArgs(narrationPath, outputPath string, width, height int, duration float64) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%.3f", width, height, frameRate, duration),
		"-i", narrationPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		"-movflags", "+faststart",
		outputPath,
	}
}

// slideshowArgs renders the concat manifest into a silent video, scaling and
// padding every image to the target dimensions and clamping to the narration
// duration.
func slideshowArgs(manifestPath, outputPath string, width, height int, duration float64) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,setsar=1",
		width, height, width, height)
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-vf", filter,
		"-r", fmt.Sprintf("%d", frameRate),
		"-t", fmt.Sprintf("%.3f", duration),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		outputPath,
	}
}

// muxNarrationArgs attaches the narration as the sole audio track, truncating
// to the shorter input.
func muxNarrationArgs(silentPath, narrationPath, outputPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", silentPath,
		"-i", narrationPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		"-movflags", "+faststart",
		outputPath,
	}
}

// muxMixedAudioArgs mixes narration at full volume with the music track at
// the requested volume, fading the music in at the start and out so the fade
// ends exactly at the narration's end.
func muxMixedAudioArgs(silentPath, narrationPath, musicPath, outputPath string, volumePercent int, narrationDuration float64) []string {
	fadeOutStart := narrationDuration - fadeSeconds
	if fadeOutStart < 0 {
		fadeOutStart = 0
	}
	filter := fmt.Sprintf(
		"[2:a]volume=%.2f,afade=t=in:st=0:d=%.0f,afade=t=out:st=%.3f:d=%.0f[music];"+
			"[1:a][music]amix=inputs=2:duration=first:normalize=0[aout]",
		float64(volumePercent)/100.0, fadeSeconds, fadeOutStart, fadeSeconds)
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", silentPath,
		"-i", narrationPath,
		"-i", musicPath,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		"-movflags", "+faststart",
		outputPath,
	}
}

// thumbnailArgs exports a single frame from the 1-second mark, scaled to
// 1080px wide preserving aspect ratio.
func thumbnailArgs(videoPath, outputPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", "1",
		"-i", videoPath,
		"-vframes", "1",
		"-vf", "scale=1080:-1",
		outputPath,
	}
}
