package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/preflightdev/preflight/internal/content"
	"github.com/preflightdev/preflight/internal/model"
)

// Builder turns a RepoSnapshotter's working-tree comparison into an
// immutable Revision, interning file content into a content.Store along
// the way. It is otherwise content-agnostic: it knows nothing about
// reviews, threads, or the Store's invariants beyond revision numbering.
type Builder struct {
	snapshotter RepoSnapshotter
	blobs       *content.Store
	log         *slog.Logger
}

// New returns a Builder backed by the given RepoSnapshotter and
// content.Store.
func New(snapshotter RepoSnapshotter, blobs *content.Store, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{snapshotter: snapshotter, blobs: blobs, log: log}
}

// Result is the output of a successful Build: the new Revision, its
// FileEntry records, and the fingerprint to compare against on the next
// call.
type Result struct {
	Revision *model.Revision
	Files    []*model.FileEntry
}

// Build requests a snapshot of repo against baseRef, classifies each
// change, interns content, and constructs (but does not insert) a
// Revision. priorFingerprint is the fingerprint of the review's most
// recent revision (empty string if this is the first); Build fails
// NoChanges if the new snapshot fingerprints identically.
func (b *Builder) Build(
	ctx context.Context, reviewID string, nextN int,
	trigger model.RevisionTrigger, message, priorFingerprint string,
	repo, baseRef string,
) (*Result, error) {

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultSnapshotTimeout)
		defer cancel()
	}

	changes, err := b.snapshotter.Snapshot(ctx, repo, baseRef)
	if err != nil {
		return nil, model.RepoUnavailable(err.Error())
	}

	if len(changes) == 0 {
		return nil, model.NoChanges()
	}

	fingerprint := computeFingerprint(changes)
	if priorFingerprint != "" && fingerprint == priorFingerprint {
		return nil, model.NoChanges()
	}

	now := time.Now().UTC()
	revisionID := uuid.NewString()

	rev := &model.Revision{
		ID:          revisionID,
		ReviewID:    reviewID,
		N:           nextN,
		Trigger:     trigger,
		Message:     message,
		CreatedAt:   now,
		Fingerprint: fingerprint,
	}

	files := make([]*model.FileEntry, 0, len(changes))
	for _, ch := range changes {
		status := classify(ch)

		fe := &model.FileEntry{
			ID:         uuid.NewString(),
			RevisionID: revisionID,
			Path:       normalizePath(ch.Path),
			OldPath:    normalizePath(ch.OldPath),
			Status:     status,
		}

		// Binary content is still interned so file_content/diff can report
		// its size; the engine skips line-level processing based on
		// fe.Status, not on whether content was stored.
		if ch.OldContent != nil {
			fe.OldHash = string(b.blobs.Put(ch.OldContent))
		}
		if ch.NewContent != nil {
			fe.NewHash = string(b.blobs.Put(ch.NewContent))
		}

		files = append(files, fe)
		rev.FileIDs = append(rev.FileIDs, fe.ID)
	}

	b.log.Info("built revision",
		"review_id", reviewID, "n", nextN, "files", len(files))

	return &Result{Revision: rev, Files: files}, nil
}

// classify applies the spec's deterministic, ordered status rules.
func classify(ch FileChange) model.FileStatus {
	switch {
	case ch.NewContent != nil && ch.OldContent == nil && ch.OldPath == "":
		return model.FileAdded
	case ch.OldContent != nil && ch.NewContent == nil:
		return model.FileDeleted
	case ch.OldPath != "" && ch.OldPath != ch.Path:
		return model.FileRenamed
	case isBinary(ch.OldContent) || isBinary(ch.NewContent):
		return model.FileBinary
	default:
		return model.FileModified
	}
}

func isBinary(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(p, "/")
}

// computeFingerprint is a sorted concatenation of (path, new_content_hash,
// old_content_hash, status) so that the same working-tree content always
// yields the same fingerprint irrespective of RepoSnapshotter's reported
// ordering.
func computeFingerprint(changes []FileChange) string {
	parts := make([]string, 0, len(changes))
	for _, ch := range changes {
		parts = append(parts, fmt.Sprintf(
			"%s\x00%s\x00%s\x00%s",
			normalizePath(ch.Path),
			hashOf(ch.NewContent),
			hashOf(ch.OldContent),
			classify(ch),
		))
	}
	sort.Strings(parts)

	h := sha256.Sum256([]byte(strings.Join(parts, "\x01")))
	return hex.EncodeToString(h[:])
}

func hashOf(data []byte) string {
	if data == nil {
		return ""
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
