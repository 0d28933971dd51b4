package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/preflightdev/preflight/internal/engine"
	"github.com/preflightdev/preflight/internal/snapshot"
)

var (
	servePort  int
	serveFresh bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the review engine, persisting to the snapshot database",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "transport port (reserved; the HTTP/WebSocket transport is not yet implemented)")
	serveCmd.Flags().BoolVar(&serveFresh, "fresh", false, "discard any persisted snapshot and start empty")
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	e, err := engine.Open(engine.Options{
		DBPath:      dbPath,
		Snapshotter: snapshot.NewFake(),
		Fresh:       serveFresh,
		Log:         log,
	})
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer e.Close()

	log.Info("preflight engine started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutdown signal received")
	case <-ctx.Done():
	}

	return nil
}
