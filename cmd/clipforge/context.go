package main

import (
	"log/slog"
	"strings"
	"sync"

	"clipforge/internal/compose"
	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/media/music"
	"clipforge/internal/pipeline"
	"clipforge/internal/publish"
	"clipforge/internal/queue"
	"clipforge/internal/services/images"
	"clipforge/internal/services/prompts"
	"clipforge/internal/services/speech"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) withStore(fn func(*queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// buildOrchestrator wires the full pipeline from live service clients.
func (c *commandContext) buildOrchestrator() (*pipeline.Orchestrator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	uploader, err := publish.New(cfg)
	if err != nil {
		return nil, err
	}

	return pipeline.NewOrchestrator(pipeline.Options{
		Narrator:      speech.NewClient(speech.FromAppConfig(cfg)),
		Prompts:       prompts.NewGenerator(prompts.FromAppConfig(cfg), logger),
		Images:        images.NewClient(images.FromAppConfig(cfg)),
		Music:         music.NewSelector(cfg.Music.Dir),
		Compositor:    compose.NewCompositor(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger),
		Uploader:      uploader,
		WorkDir:       cfg.Paths.WorkDir,
		FFmpegBinary:  cfg.FFmpegBinary(),
		FFprobeBinary: cfg.FFprobeBinary(),
		Logger:        logger,
	}), nil
}
