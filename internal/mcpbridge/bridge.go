// Package mcpbridge is a placeholder out-of-process tool-protocol
// adapter: it starts a bare MCP server over stdio with no tools
// registered. Wiring the thread/comment/revision tool handlers onto it
// is explicitly out of scope for this build; the subcommand exists only
// because spec.md's own CLI surface names it "for completeness."
package mcpbridge

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/preflightdev/preflight/internal/build"
	"github.com/preflightdev/preflight/internal/review"
)

// Server wraps the bare MCP server. Store is kept so a future build can
// register tools against it without re-plumbing the constructor.
type Server struct {
	mcp   *mcp.Server
	store *review.Store
	log   *slog.Logger
}

// New returns a Server with no tools registered.
func New(store *review.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "preflight",
			Version: build.Version(),
		}, nil),
		store: store,
		log:   log,
	}
}

// Run blocks serving the MCP protocol over stdio until ctx is cancelled
// or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("starting MCP bridge stub (no tools registered)")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
