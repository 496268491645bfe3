package main

import (
	"fmt"
	"log/slog"

	"github.com/aatumaykin/housekeeper/internal/config"
	"github.com/aatumaykin/housekeeper/internal/constants"
	"github.com/aatumaykin/housekeeper/internal/logger"
	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate and inspect Housekeeper configuration.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file and check for errors.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.NewWithWriter(cmd.ErrOrStderr(), slog.LevelInfo, "text")
		if err != nil {
			return err
		}

		configPath := constants.DefaultConfigPath
		if len(args) > 0 {
			configPath = args[0]
		}

		log.Info("Validating configuration", logger.Field{Key: "path", Value: configPath})

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Error("Failed to load config", err)
			return err
		}

		if errs := cfg.Validate(); len(errs) > 0 {
			for _, e := range errs {
				log.Error("Validation error", e)
			}
			return fmt.Errorf("config validation failed: %d errors", len(errs))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration is valid (%d targets)\n", len(cfg.Targets))
		for _, t := range cfg.Targets {
			state := "enabled"
			if !t.IsEnabled() {
				state = "disabled"
			}
			schedule := t.Schedule
			if schedule == "" {
				schedule = "-"
			}
			fmt.Fprintf(out, "  %-16s %-8s min_age=%ds schedule=%s %s (%s)\n",
				t.Name, t.Mode, t.MinAgeSeconds, schedule, t.Path, state)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
