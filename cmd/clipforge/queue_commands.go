package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/pipeline"
	"clipforge/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the generation queue",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var scriptFlag string
	var scriptFile string
	var voice string
	var style string
	var aspectRatio string
	var noMusic bool
	var musicVolume int
	var imageCount int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Queue a generation request",
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

			return ctx.withStore(func(store *queue.Store) error {
				job, err := store.Add(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d\n", job.ID)
				return nil
			})
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

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(listStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				jobs, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						string(job.Status),
						jobStage(job),
						scriptSummary(job),
						job.CreatedAt.Local().Format(time.RFC3339),
					})
				}
				out := renderTable([]string{"ID", "Status", "Stage", "Script", "Created"}, rows, 0)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				if health.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := [][]string{
					{"pending", strconv.Itoa(health.Pending)},
					{"generating", strconv.Itoa(health.Generating)},
					{"completed", strconv.Itoa(health.Completed)},
					{"failed", strconv.Itoa(health.Failed)},
					{"total", strconv.Itoa(health.Total)},
				}
				out := renderTable([]string{"Status", "Count"}, rows, 1)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				job, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job:        %d\n", job.ID)
				fmt.Fprintf(out, "Status:     %s\n", job.Status)
				if job.ProgressStage != "" {
					fmt.Fprintf(out, "Stage:      %s\n", job.ProgressStage)
				}
				fmt.Fprintf(out, "Created:    %s\n", job.CreatedAt.Local().Format(time.RFC3339))
				fmt.Fprintf(out, "Updated:    %s\n", job.UpdatedAt.Local().Format(time.RFC3339))
				if req, err := job.Request(); err == nil {
					fmt.Fprintf(out, "Voice:      %s\n", req.VoiceID)
					fmt.Fprintf(out, "Style:      %s\n", req.Style)
					fmt.Fprintf(out, "Aspect:     %s\n", req.AspectRatio)
					fmt.Fprintf(out, "Script:     %s\n", truncate(req.Script, 120))
				}
				switch job.Status {
				case queue.StatusCompleted:
					fmt.Fprintf(out, "Video:      %s\n", job.VideoURL)
					fmt.Fprintf(out, "Thumbnail:  %s\n", job.ThumbnailURL)
					fmt.Fprintf(out, "Duration:   %.1fs\n", job.DurationSeconds)
					fmt.Fprintf(out, "Images:     %d\n", job.ImagesUsed)
				case queue.StatusFailed:
					fmt.Fprintf(out, "Error:      %s\n", job.ErrorMessage)
				}
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Return a failed job to the pending state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				if err := store.Retry(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d requeued\n", id)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearStatuses []string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(clearStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&clearStatuses, "status", "s", nil, "Statuses to clear (default completed and failed)")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Return generating jobs to the pending state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				reset, err := store.ResetStuck(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d job(s)\n", reset)
				return nil
			})
		},
	}
}

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return id, nil
}

func parseStatuses(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func jobStage(job *queue.Job) string {
	if job.Status == queue.StatusGenerating && job.ProgressStage != "" {
		return job.ProgressStage
	}
	return ""
}

func scriptSummary(job *queue.Job) string {
	req, err := job.Request()
	if err != nil {
		return "(invalid request)"
	}
	return truncate(strings.Join(strings.Fields(req.Script), " "), 48)
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
