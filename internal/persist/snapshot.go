package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/preflightdev/preflight/internal/content"
	"github.com/preflightdev/preflight/internal/review"
)

// Snapshotable is the pair of stores a DB persists: the review Store's
// graph, and the content Store's blobs.
type Snapshotable struct {
	Store *review.Store
	Blobs *content.Store
}

type diskGraph struct {
	Graph review.Graph `json:"graph"`
}

type blobRow struct {
	Hash     content.Handle
	Bytes    []byte
	RefCount int
}

// Save serializes the Store's graph and the ContentStore's blobs into a
// single transaction. Safe to call repeatedly; each call overwrites the
// prior snapshot row.
func Save(db *sql.DB, s Snapshotable) error {
	graphJSON, err := json.Marshal(diskGraph{Graph: s.Store.Export()})
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshot (id, graph_json, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET graph_json = excluded.graph_json, saved_at = excluded.saved_at`,
		graphJSON, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("write snapshot row: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM content_blobs"); err != nil {
		return fmt.Errorf("clear content_blobs: %w", err)
	}
	for h, bytes := range s.Blobs.Snapshot() {
		refCount := s.Blobs.RefCount(h)
		if refCount <= 0 {
			continue
		}
		_, err := tx.Exec(
			"INSERT INTO content_blobs (hash, bytes, ref_count) VALUES (?, ?, ?)",
			string(h), bytes, refCount,
		)
		if err != nil {
			return fmt.Errorf("write blob %s: %w", h, err)
		}
	}

	return tx.Commit()
}

// Load reads the persisted graph and blobs back into s. Per the
// all-or-nothing load policy, any failure reading or decoding them
// (unreadable rows, corrupt JSON) renames dbPath to dbPath+".corrupt" and
// returns a nil error with an empty Store — callers proceed with a
// fresh in-memory state rather than fail startup. A database stamped with
// a newer schema version is caught earlier, by ApplyMigrations.
func Load(db *sql.DB, dbPath string, s Snapshotable, log *slog.Logger) error {
	var graphJSON []byte
	err := db.QueryRow("SELECT graph_json FROM snapshot WHERE id = 1").Scan(&graphJSON)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return quarantine(dbPath, log, fmt.Errorf("read snapshot row: %w", err))
	}

	var dg diskGraph
	if err := json.Unmarshal(graphJSON, &dg); err != nil {
		return quarantine(dbPath, log, fmt.Errorf("unmarshal graph: %w", err))
	}

	rows, err := db.Query("SELECT hash, bytes, ref_count FROM content_blobs")
	if err != nil {
		return quarantine(dbPath, log, fmt.Errorf("read content_blobs: %w", err))
	}
	defer rows.Close()

	var blobs []blobRow
	for rows.Next() {
		var r blobRow
		var hash string
		if err := rows.Scan(&hash, &r.Bytes, &r.RefCount); err != nil {
			return quarantine(dbPath, log, fmt.Errorf("scan blob row: %w", err))
		}
		r.Hash = content.Handle(hash)
		blobs = append(blobs, r)
	}
	if err := rows.Err(); err != nil {
		return quarantine(dbPath, log, fmt.Errorf("iterate content_blobs: %w", err))
	}

	blobData := make(map[content.Handle][]byte, len(blobs))
	refCounts := make(map[content.Handle]int, len(blobs))
	for _, r := range blobs {
		blobData[r.Hash] = r.Bytes
		refCounts[r.Hash] = r.RefCount
	}

	s.Blobs.Restore(blobData, refCounts)
	s.Store.Import(dg.Graph)
	return nil
}

func quarantine(dbPath string, log *slog.Logger, cause error) error {
	corruptPath := dbPath + ".corrupt"
	if err := os.Rename(dbPath, corruptPath); err != nil {
		log.Error("failed to quarantine corrupt database",
			"path", dbPath, "rename_error", err, "cause", cause)
		return nil
	}
	log.Error("database load failed, quarantined and starting fresh",
		"path", dbPath, "quarantined_to", corruptPath, "cause", cause)
	return nil
}
