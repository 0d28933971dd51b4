package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/preflightdev/preflight/internal/model"
	"github.com/preflightdev/preflight/internal/snapshot"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenCloseRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "preflight.db")
	fake := snapshot.NewFake()
	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("x")},
	})

	e, err := Open(Options{DBPath: dbPath, Snapshotter: fake, Log: testLogger()})
	require.NoError(t, err)

	r, err := e.Store.CreateReview(context.Background(), "t", "repo", "main")
	require.NoError(t, err)

	require.NoError(t, e.Close())

	e2, err := Open(Options{DBPath: dbPath, Snapshotter: fake, Log: testLogger()})
	require.NoError(t, err)
	defer e2.Close()

	got, err := e2.Store.GetReview(r.ID)
	require.NoError(t, err)
	require.Equal(t, r.Title, got.Title)
}

func TestFlushLoopPersistsWithoutExplicitClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "preflight.db")
	fake := snapshot.NewFake()
	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("x")},
	})

	e, err := Open(Options{DBPath: dbPath, Snapshotter: fake, Log: testLogger()})
	require.NoError(t, err)

	r, err := e.Store.CreateReview(context.Background(), "t", "repo", "main")
	require.NoError(t, err)

	// Only the background flush loop writes the snapshot row before Close.
	require.Eventually(t, func() bool {
		var n int
		err := e.db.QueryRow("SELECT COUNT(*) FROM snapshot").Scan(&n)
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, e.Close())

	e2, err := Open(Options{DBPath: dbPath, Snapshotter: fake, Log: testLogger()})
	require.NoError(t, err)
	defer e2.Close()

	_, err = e2.Store.GetReview(r.ID)
	require.NoError(t, err)
}

func TestFreshDiscardsPersistedSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "preflight.db")
	fake := snapshot.NewFake()
	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("x")},
	})

	e, err := Open(Options{DBPath: dbPath, Snapshotter: fake, Log: testLogger()})
	require.NoError(t, err)

	r, err := e.Store.CreateReview(context.Background(), "t", "repo", "main")
	require.NoError(t, err)

	require.NoError(t, e.Close())

	e2, err := Open(Options{DBPath: dbPath, Snapshotter: fake, Fresh: true, Log: testLogger()})
	require.NoError(t, err)
	defer e2.Close()

	_, err = e2.Store.GetReview(r.ID)
	require.Error(t, err)
}
