package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"clipforge/internal/config"
	"clipforge/internal/pipeline"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var scriptFlag string
	var scriptFile string
	var voice string
	var style string
	var aspectRatio string
	var noMusic bool
	var musicVolume int
	var imageCount int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a video from a script without queueing",
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := resolveScript(scriptFlag, scriptFile)
			if err != nil {
				return err
			}

			req := pipeline.DefaultRequest()
			req.Script = script
			if voice != "" {
				req.VoiceID = voice
			}
			if style != "" {
				req.Style = style
			}
			if aspectRatio != "" {
				req.AspectRatio = aspectRatio
			}
			req.BackgroundMusic = !noMusic
			if cmd.Flags().Changed("music-volume") {
				req.MusicVolumePercent = musicVolume
			}
			if cmd.Flags().Changed("images") {
				req.ImageCount = imageCount
			}

			orch, err := ctx.buildOrchestrator()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			progress := func(stage string) {
				fmt.Fprintf(out, "stage: %s\n", stage)
			}

			result := orch.WithProgress(progress).Generate(cmd.Context(), req)
			if !result.OK() {
				return fmt.Errorf("generation failed: %s", result.ErrorMessage)
			}

			fmt.Fprintf(out, "Video:      %s\n", result.VideoURL)
			fmt.Fprintf(out, "Thumbnail:  %s\n", result.ThumbnailURL)
			fmt.Fprintf(out, "Duration:   %.1fs\n", result.DurationSeconds)
			fmt.Fprintf(out, "Images:     %d\n", result.ImagesUsed)
			return nil
		},
	}

	cmd.Flags().StringVar(&scriptFlag, "script", "", "Narration script text")
	cmd.Flags().StringVarP(&scriptFile, "script-file", "f", "", "File containing the narration script")
	cmd.Flags().StringVar(&voice, "voice", "", "Narration voice")
	cmd.Flags().StringVar(&style, "style", "", "Image style (realistic, cinematic, animated, cartoon, fantasy, digital-art, 3d)")
	cmd.Flags().StringVar(&aspectRatio, "aspect-ratio", "", "Output aspect ratio (9:16, 16:9, 1:1)")
	cmd.Flags().BoolVar(&noMusic, "no-music", false, "Disable background music")
	cmd.Flags().IntVar(&musicVolume, "music-volume", 30, "Background music volume percent (0-100)")
	cmd.Flags().IntVar(&imageCount, "images", 5, "Number of scene images to generate")
	return cmd
}

func resolveScript(scriptFlag, scriptFile string) (string, error) {
	script := strings.TrimSpace(scriptFlag)
	file := strings.TrimSpace(scriptFile)
	switch {
	case script != "" && file != "":
		return "", errors.New("specify only one of --script or --script-file")
	case script != "":
		return script, nil
	case file != "":
		expanded, err := config.ExpandPath(file)
		if err != nil {
			return "", fmt.Errorf("resolve script path: %w", err)
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return "", fmt.Errorf("read script file: %w", err)
		}
		return string(data), nil
	default:
		return "", errors.New("a script is required (--script or --script-file)")
	}
}
