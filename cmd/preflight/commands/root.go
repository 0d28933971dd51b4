package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	btclogv2 "github.com/btcsuite/btclog/v2"
	"github.com/spf13/cobra"

	"github.com/preflightdev/preflight/internal/build"
)

var (
	// dbPath is the path to the SQLite snapshot database.
	dbPath string

	// logDir is the directory rotated log files are written to.
	logDir string

	// log is the dual-stream (console + rotating file) logger built in
	// PersistentPreRunE, used by every subcommand.
	log *slog.Logger

	logWriter *build.RotatingLogWriter
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Local code-review server for human/agent collaboration on diffs",
	Long: `Preflight serves a single local source of truth for reviews,
revisions, inline threads, and comments, so a human and a coding agent
can collaborate on a diff without either side needing push/pull access
to the other's tooling.`,
	PersistentPreRunE: setupLogger,
}

// Execute runs the CLI and returns the process exit code: 0 on success,
// 2 if cobra rejected the invocation before reaching a command's RunE
// (unknown command, bad flags), 1 if a command ran but failed.
func Execute() int {
	defer func() {
		if logWriter != nil {
			logWriter.Close()
		}
	}()

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}

	fmt.Fprintln(os.Stderr, err)
	if cmd.SilenceUsage {
		return 1
	}
	return 2
}

func setupLogger(cmd *cobra.Command, args []string) error {
	if logDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		logDir = filepath.Join(home, ".preflight", "logs")
	}

	cfg := build.DefaultLogRotatorConfig()
	cfg.LogDir = logDir
	cfg.Filename = "preflight.log"

	logWriter = build.NewRotatingLogWriter()
	if err := logWriter.InitLogRotator(cfg); err != nil {
		return fmt.Errorf("init log rotator: %w", err)
	}

	console := btclogv2.NewDefaultHandler(os.Stderr)
	file := btclogv2.NewDefaultHandler(logWriter)
	handlers := build.NewHandlerSet(console, file)

	log = slog.New(handlers)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&dbPath, "db", "",
		"Path to the snapshot SQLite database (default: ~/.preflight/preflight.db)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logDir, "log-dir", "",
		"Directory for rotated log files (default: ~/.preflight/logs)",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
