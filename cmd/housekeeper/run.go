package main

import (
	"errors"
	"fmt"

	"github.com/aatumaykin/housekeeper/internal/cleanup"
	"github.com/aatumaykin/housekeeper/internal/config"
	"github.com/aatumaykin/housekeeper/internal/constants"
	"github.com/aatumaykin/housekeeper/internal/logger"
	"github.com/spf13/cobra"
)

var (
	runConfigPath string
	runTarget     string
	runDebug      bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pass over every configured target",
	Long: `Run a single housekeeping pass over every enabled target of the
configuration file and exit. A failing target does not stop the others;
the command fails if any target failed.`,
	RunE: runHandler,
}

func runHandler(cmd *cobra.Command, args []string) error {
	configPath := runConfigPath
	if configPath == "" {
		configPath = constants.DefaultConfigPath
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging, runDebug)
	if err != nil {
		return err
	}

	targets := cfg.EnabledTargets()
	if runTarget != "" {
		t, ok := cfg.FindTarget(runTarget)
		if !ok {
			return fmt.Errorf("unknown target %q", runTarget)
		}
		targets = []config.TargetConfig{t}
	}

	if len(targets) == 0 {
		log.Warn("no enabled targets", logger.Field{Key: "config", Value: configPath})
		return nil
	}

	var errs []error
	for _, t := range targets {
		job, err := buildJob(t, log, nil)
		if err != nil {
			log.Error("skipping target", err, logger.Field{Key: "target", Value: t.Name})
			errs = append(errs, err)
			continue
		}

		stats, err := cleanup.RunLocked(job, cfg.Lock.Dir)
		if err != nil {
			log.Error("housekeeping failed", err, logger.Field{Key: "target", Value: t.Name})
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", t.Name, formatStats(job.Mode, stats))
	}

	return errors.Join(errs...)
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "Path to configuration file (default: ./housekeeper.toml)")
	runCmd.Flags().StringVarP(&runTarget, "target", "t", "", "Run only the named target, even when disabled")
	runCmd.Flags().BoolVarP(&runDebug, "debug", "d", false, "Enable debug logging")
}
