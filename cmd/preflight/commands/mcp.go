package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/preflightdev/preflight/internal/engine"
	"github.com/preflightdev/preflight/internal/mcpbridge"
	"github.com/preflightdev/preflight/internal/snapshot"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP bridge over stdio (stub; no tools registered yet)",
	RunE:  runMCP,
}

func init() {
	mcpCmd.Flags().IntVar(&mcpPort, "port", 0, "transport port (reserved; the HTTP/WebSocket transport is not yet implemented)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	e, err := engine.Open(engine.Options{
		DBPath:      dbPath,
		Snapshotter: snapshot.NewFake(),
		Log:         log,
	})
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer e.Close()

	bridge := mcpbridge.New(e.Store, log)
	return bridge.Run(context.Background())
}
