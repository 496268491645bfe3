package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/aatumaykin/housekeeper/internal/cleanup"
	"github.com/aatumaykin/housekeeper/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cleanMinAge     int64
	cleanDryRun     bool
	cleanDebug      bool
	cleanLockDir    string
	cleanConfigPath string
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive <dir>",
	Short: "Move old entries of a directory into its archive subdirectory",
	Long: `Move every entry directly under <dir> that is older than --min-age
into <dir>/archive. The archive directory is created when missing.
An entry whose name is already taken in the archive stops the pass.`,
	Args: cobra.ExactArgs(1),
	RunE: cleanHandler(cleanup.ModeArchive),
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <dir>",
	Short: "Delete old entries of a directory",
	Long: `Permanently remove every entry directly under <dir> that is older
than --min-age. Directories are removed recursively. The archive
subdirectory itself is never removed.`,
	Args: cobra.ExactArgs(1),
	RunE: cleanHandler(cleanup.ModeDelete),
}

func cleanHandler(mode cleanup.Mode) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if cleanMinAge < 0 || cleanMinAge > cleanup.MaxMinAgeSeconds {
			return fmt.Errorf("--min-age must be between 0 and %d (got %d)", cleanup.MaxMinAgeSeconds, cleanMinAge)
		}

		cfg, err := loadConfig(cleanConfigPath)
		if err != nil {
			return err
		}
		if cleanLockDir != "" {
			cfg.Lock.Dir = cleanLockDir
		}

		log, err := newLogger(cfg.Logging, cleanDebug)
		if err != nil {
			return err
		}

		dir := args[0]
		cleaner, err := cleanup.New(dir,
			cleanup.WithMinAgeSeconds(cleanMinAge),
			cleanup.WithLogger(log),
		)
		if err != nil {
			return err
		}

		if cleanDryRun {
			decisions, err := cleaner.Plan()
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), mode, decisions)
			return nil
		}

		job := cleanup.Job{
			Name:    filepath.Base(filepath.Clean(dir)),
			Mode:    mode,
			Cleaner: cleaner,
		}
		stats, err := cleanup.RunLocked(job, cfg.Lock.Dir)
		if err != nil {
			log.Error("housekeeping failed", err, logger.Field{Key: "path", Value: dir})
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), formatStats(mode, stats))
		return nil
	}
}

// printPlan writes one line per entry: the action a real pass would take,
// or "skip" with the reason.
func printPlan(w io.Writer, mode cleanup.Mode, decisions []cleanup.Decision) {
	for _, d := range decisions {
		switch {
		case !d.Skip:
			fmt.Fprintf(w, "%-8s %s\n", mode, d.Entry.Name)
		case d.Reason == cleanup.ReasonPattern:
			fmt.Fprintf(w, "%-8s %s (%s %q)\n", "skip", d.Entry.Name, d.Reason, d.Pattern)
		default:
			fmt.Fprintf(w, "%-8s %s (%s)\n", "skip", d.Entry.Name, d.Reason)
		}
	}
}

func init() {
	for _, cmd := range []*cobra.Command{archiveCmd, deleteCmd} {
		cmd.Flags().Int64VarP(&cleanMinAge, "min-age", "a", 0, "Minimum age in seconds before an entry is acted on")
		cmd.Flags().BoolVarP(&cleanDryRun, "dry-run", "n", false, "Print what would be done without touching anything")
		cmd.Flags().BoolVarP(&cleanDebug, "debug", "d", false, "Enable debug logging")
		cmd.Flags().StringVar(&cleanLockDir, "lock-dir", "", "Directory for PID lock files (overrides config)")
		cmd.Flags().StringVarP(&cleanConfigPath, "config", "c", "", "Path to configuration file for logging and lock settings")
	}
}
