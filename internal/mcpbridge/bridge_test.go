package mcpbridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/preflightdev/preflight/internal/content"
	"github.com/preflightdev/preflight/internal/events"
	"github.com/preflightdev/preflight/internal/presence"
	"github.com/preflightdev/preflight/internal/review"
)

func TestNewReturnsConfiguredServer(t *testing.T) {
	bus := events.New()
	store := review.New(review.Deps{
		Blobs:    content.New(),
		Bus:      bus,
		Presence: presence.New(bus),
	})

	s := New(store, nil)
	require.NotNil(t, s)
	require.NotNil(t, s.mcp)
	require.Same(t, store, s.store)
}
