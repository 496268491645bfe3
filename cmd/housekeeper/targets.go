package main

import (
	"fmt"
	"time"

	"github.com/aatumaykin/housekeeper/internal/cleanup"
	"github.com/aatumaykin/housekeeper/internal/config"
	"github.com/aatumaykin/housekeeper/internal/logger"
)

// loadConfig loads and validates the config file; an empty path means the
// built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "  - %v\n", e)
		}
		return nil, fmt.Errorf("config validation failed: %d errors", len(errs))
	}
	return cfg, nil
}

func newLogger(cfg config.LoggingConfig, debug bool) (*logger.Logger, error) {
	if debug {
		cfg.Level = "debug"
	}
	log, err := logger.New(logger.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: cfg.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetDefault(log)
	return log, nil
}

// buildJob turns a configured target into a schedulable job.
func buildJob(t config.TargetConfig, log *logger.Logger, metrics *cleanup.Metrics) (cleanup.Job, error) {
	mode, err := cleanup.ParseMode(t.Mode)
	if err != nil {
		return cleanup.Job{}, fmt.Errorf("target %q: %w", t.Name, err)
	}

	cleaner, err := cleanup.New(t.Path,
		cleanup.WithMinAgeSeconds(t.MinAgeSeconds),
		cleanup.WithLogger(log.With(logger.Field{Key: "target", Value: t.Name})),
		cleanup.WithMetrics(metrics),
	)
	if err != nil {
		return cleanup.Job{}, fmt.Errorf("target %q: %w", t.Name, err)
	}

	return cleanup.Job{
		Name:     t.Name,
		Mode:     mode,
		Schedule: t.Schedule,
		Cleaner:  cleaner,
	}, nil
}

func formatStats(mode cleanup.Mode, stats cleanup.Stats) string {
	verb := "archived"
	if mode == cleanup.ModeDelete {
		verb = "deleted"
	}
	return fmt.Sprintf("%s %d of %d entries (skipped: %d ignored, %d by pattern, %d too young) in %s",
		verb, stats.Acted, stats.Examined,
		stats.SkippedDefault, stats.SkippedPattern, stats.SkippedAge,
		stats.Duration.Round(time.Millisecond))
}
