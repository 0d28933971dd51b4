package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/preflightdev/preflight/internal/diff"
	"github.com/preflightdev/preflight/internal/model"
	"github.com/preflightdev/preflight/internal/snapshot"
)

func TestDiffReturnsHunksForModifiedFile(t *testing.T) {
	s, fake := newTestStore(t)
	ctx := context.Background()

	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("draft\n")},
	})
	r, err := s.CreateReview(ctx, "t", "repo", "main")
	require.NoError(t, err)

	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("line1\nline2\n")},
	})
	_, err = s.CreateRevision(ctx, r.ID, model.TriggerManual, "")
	require.NoError(t, err)

	fd, err := s.Diff(r.ID, "a.go", nil)
	require.NoError(t, err)
	require.Equal(t, "a.go", fd.Path)
	require.NotEmpty(t, fd.Hunks)
}

func TestInterdiffBetweenRevisions(t *testing.T) {
	s, fake := newTestStore(t)
	ctx := context.Background()

	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("draft\n")},
	})
	r, err := s.CreateReview(ctx, "t", "repo", "main")
	require.NoError(t, err)

	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("v1\n")},
	})
	_, err = s.CreateRevision(ctx, r.ID, model.TriggerManual, "")
	require.NoError(t, err)

	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileModified, OldContent: []byte("v1\n"), NewContent: []byte("v2\n")},
	})
	_, err = s.CreateRevision(ctx, r.ID, model.TriggerManual, "")
	require.NoError(t, err)

	// Revision 1 is CreateReview's initial snapshot; v1 and v2 are 2 and 3.
	fd, err := s.Interdiff(r.ID, "a.go", 2, 3)
	require.NoError(t, err)
	require.NotEmpty(t, fd.Hunks)
}

func TestFileContentReturnsLines(t *testing.T) {
	s, fake := newTestStore(t)
	ctx := context.Background()

	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("draft\n")},
	})
	r, err := s.CreateReview(ctx, "t", "repo", "main")
	require.NoError(t, err)

	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("one\ntwo\n")},
	})
	_, err = s.CreateRevision(ctx, r.ID, model.TriggerManual, "")
	require.NoError(t, err)

	// Revision 1 is CreateReview's initial snapshot.
	fc, err := s.FileContent(r.ID, "a.go", 2, diff.SideNew)
	require.NoError(t, err)
	require.Len(t, fc.Lines, 2)
}
