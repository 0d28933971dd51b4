// Package engine wires the review Store, its collaborators, and SQLite
// persistence into a single process-lifetime object: one per running
// `preflight serve`, matching spec.md §6's "a single persistent
// snapshot file" save policy.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/preflightdev/preflight/internal/content"
	"github.com/preflightdev/preflight/internal/diff"
	"github.com/preflightdev/preflight/internal/events"
	"github.com/preflightdev/preflight/internal/persist"
	"github.com/preflightdev/preflight/internal/presence"
	"github.com/preflightdev/preflight/internal/review"
	"github.com/preflightdev/preflight/internal/snapshot"
)

// FlushInterval is the minimum spacing between background persistence
// flushes while the dirty flag is set.
const FlushInterval = time.Second

// Engine bundles the review Store with the SQLite database it persists
// to, and runs the dirty-flag flush loop spec.md §6 calls for.
type Engine struct {
	Store *review.Store

	db    *sql.DB
	path  string
	log   *slog.Logger
	dirty atomic.Bool

	unsub func()
}

// Options configures Open.
type Options struct {
	// DBPath is the SQLite file to load from and persist to. Defaults
	// to persist.DefaultDBPath() if empty.
	DBPath string

	// Snapshotter supplies working-tree changes for new Revisions. If
	// nil, reviews can still be read but CreateReview/CreateRevision
	// fail RepoUnavailable — callers wire in a real implementation (or
	// snapshot.NewFake for local testing) before serving write traffic.
	Snapshotter snapshot.RepoSnapshotter

	// Fresh discards any persisted snapshot at DBPath before opening,
	// per spec.md §6's "serve --fresh". The engine still starts from an
	// on-disk database (so later saves have somewhere to land) but loads
	// nothing from it.
	Fresh bool

	Log *slog.Logger
}

// Open loads the persisted snapshot (if any) at DBPath, applies pending
// migrations, and returns a running Engine. Call Close on shutdown to
// flush synchronously and close the database.
func Open(opts Options) (*Engine, error) {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = persist.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	if opts.Fresh {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	db, err := persist.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	if err := persist.ApplyMigrations(db, opts.Log); err != nil {
		db.Close()
		if !errors.Is(err, persist.ErrSchemaTooNew) {
			return nil, err
		}
		// A newer-schema database is quarantined like a corrupt one.
		opts.Log.Error("database schema too new, quarantined and starting fresh", "path", dbPath, "cause", err)
		if err := os.Rename(dbPath, dbPath+".corrupt"); err != nil {
			return nil, err
		}
		if db, err = persist.OpenSQLite(dbPath); err != nil {
			return nil, err
		}
		if err := persist.ApplyMigrations(db, opts.Log); err != nil {
			db.Close()
			return nil, err
		}
	}

	blobs := content.New()
	bus := events.New()
	store := review.New(review.Deps{
		Blobs:       blobs,
		Bus:         bus,
		Presence:    presence.New(bus),
		Engine:      diff.New(),
		Snapshotter: opts.Snapshotter,
		Log:         opts.Log,
	})

	if err := persist.Load(db, dbPath, persist.Snapshotable{
		Store: store, Blobs: blobs,
	}, opts.Log); err != nil {
		db.Close()
		return nil, err
	}

	e := &Engine{Store: store, db: db, path: dbPath, log: opts.Log}

	sub := bus.Subscribe(events.Filter{}, 256)
	e.unsub = sub.Close
	go e.markDirtyLoop(sub)
	go e.flushLoop()

	return e, nil
}

// markDirtyLoop sets the dirty flag on every event the Store publishes,
// regardless of kind — any mutation warrants a future flush.
func (e *Engine) markDirtyLoop(sub *events.Subscription) {
	ctx := context.Background()
	for {
		_, outcome := sub.Wait(ctx, 0)
		switch outcome {
		case events.Cancelled:
			return
		case events.Delivered:
			e.dirty.Store(true)
		}
	}
}

// flushLoop flushes at most once per FlushInterval while dirty.
func (e *Engine) flushLoop() {
	ticker := time.NewTicker(FlushInterval)
	defer ticker.Stop()

	for range ticker.C {
		if !e.dirty.CompareAndSwap(true, false) {
			continue
		}
		if err := e.flush(); err != nil {
			e.log.Error("background snapshot flush failed", "error", err)
		}
	}
}

func (e *Engine) flush() error {
	return persist.Save(e.db, persist.Snapshotable{
		Store: e.Store, Blobs: e.Store.Blobs(),
	})
}

// Close performs a final synchronous flush and closes the database.
func (e *Engine) Close() error {
	if e.unsub != nil {
		e.unsub()
	}
	if err := e.flush(); err != nil {
		e.log.Error("final snapshot flush failed", "error", err)
	}
	return e.db.Close()
}
