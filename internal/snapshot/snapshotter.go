// Package snapshot defines the RepoSnapshotter capability interface
// through which the review engine observes a working tree's changes
// against a base reference, plus the RevisionBuilder that turns a
// snapshot into an immutable Revision. Real source-repository access is
// out of scope for this package; only the interface and an in-memory
// fake (used by tests and by callers with no repository backend wired
// in yet) live here.
package snapshot

import (
	"context"
	"time"

	"github.com/preflightdev/preflight/internal/model"
)

// FileChange is one entry the RepoSnapshotter yields for a working-tree
// comparison against a base reference.
type FileChange struct {
	Path       string
	OldPath    string // set only when Status == Renamed
	Status     model.FileStatus
	OldContent []byte // absent (nil) when the file has no old side
	NewContent []byte // absent (nil) when the file has no new side
}

// RepoSnapshotter is the sole component aware of the source-repository
// system. Implementations typically wrap a source-control tool; the core
// makes no assumption about the mechanism.
type RepoSnapshotter interface {
	// Snapshot enumerates the working-tree changes of repoDescriptor
	// against baseRef. Implementations should respect ctx's deadline and
	// return a wrapped context error on timeout so RevisionBuilder can map
	// it to RepoUnavailable.
	Snapshot(ctx context.Context, repoDescriptor, baseRef string) ([]FileChange, error)
}

// DefaultSnapshotTimeout is the implementation-defined timeout applied to
// RepoSnapshotter calls when the caller's context carries no deadline.
const DefaultSnapshotTimeout = 30 * time.Second
