package main

import (
	"github.com/aatumaykin/housekeeper/internal/config"
	"github.com/aatumaykin/housekeeper/internal/constants"
	"github.com/spf13/cobra"
)

var envFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "housekeeper",
	Short: "Housekeeper - archive or delete old entries of a directory",
	Long: `Housekeeper keeps directories tidy. Every entry directly under a managed
directory that is older than the minimum age is either moved into its
"archive" subdirectory or deleted. Entries listed in .housekeeper_ignore
are left alone.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnvOptional(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", constants.DefaultEnvPath, "Path to .env file loaded before running")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
