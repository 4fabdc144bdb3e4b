package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clipforge/internal/pipeline"
	"clipforge/internal/queue"
	"clipforge/internal/worker"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the queue worker",
	}
	workerCmd.AddCommand(newWorkerRunCommand(ctx))
	return workerCmd
}

func newWorkerRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process queued jobs until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			orch, err := ctx.buildOrchestrator()
			if err != nil {
				return err
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			defer store.Close()

			generate := func(genCtx context.Context, req pipeline.Request, progress pipeline.ProgressFunc) pipeline.Result {
				return orch.WithProgress(progress).Generate(genCtx, req)
			}

			w, err := worker.New(cfg, store, generate, logger)
			if err != nil {
				return fmt.Errorf("create worker: %w", err)
			}
			if err := w.Start(signalCtx); err != nil {
				return err
			}

			<-signalCtx.Done()
			logger.Info("worker shutting down")
			w.Stop()
			return nil
		},
	}
}
