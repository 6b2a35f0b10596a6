package commands

import (
	"github.com/spf13/cobra"
)

var (
	// configPath is the path to the YAML configuration file.
	configPath string

	// dbPath overrides the configured SQLite database path.
	dbPath string

	// logDir overrides the configured log directory.
	logDir string

	// logLevel overrides the configured log level.
	logLevel string
)

// rootCmd is the base command for the daemon.
var rootCmd = &cobra.Command{
	Use:   "syncd",
	Short: "Mail refresh coordination daemon",
	Long: `syncd coordinates mailbox-list refreshes, message-list refreshes,
and outbox sends across mail accounts. It deduplicates concurrent refresh
requests, tracks per-target status, sweeps stale mailboxes, and periodically
flushes pending outgoing messages.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "",
		"Path to YAML config file (default: built-in defaults)",
	)
	rootCmd.PersistentFlags().StringVar(
		&dbPath, "db", "",
		"Path to SQLite database (default: ~/.syncd/syncd.db)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logDir, "log-dir", "",
		"Directory for rotating log files (default: console only)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "level", "",
		"Log level: trace, debug, info, warn, error, critical",
	)

	// Add subcommands.
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(accountCmd)
}
