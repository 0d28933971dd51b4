package review

import (
	"github.com/preflightdev/preflight/internal/content"
	"github.com/preflightdev/preflight/internal/diff"
	"github.com/preflightdev/preflight/internal/model"
)

// Diff returns the structured diff for file at revisionN (the latest, if
// nil).
func (s *Store) Diff(reviewID, path string, revisionN *int) (diff.FileDiff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path = normalizePath(path)
	rev, err := s.resolveRevisionLocked(reviewID, revisionN)
	if err != nil {
		return diff.FileDiff{}, err
	}
	fe := s.findFileInRevisionLocked(rev, path)
	if fe == nil {
		return diff.FileDiff{}, model.NotFound("file", path)
	}

	old, _ := s.blobs.Get(content.Handle(fe.OldHash))
	new, _ := s.blobs.Get(content.Handle(fe.NewHash))

	return s.engine.Diff(fe.Path, fe.OldPath, old, new, fe.Status), nil
}

// Interdiff returns the diff between fromN and toN's new-side contents of
// the same file.
func (s *Store) Interdiff(reviewID, path string, fromN, toN int) (diff.FileDiff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path = normalizePath(path)

	fromN2, toN2 := fromN, toN
	fromRev, err := s.resolveRevisionLocked(reviewID, &fromN2)
	if err != nil {
		return diff.FileDiff{}, err
	}
	toRev, err := s.resolveRevisionLocked(reviewID, &toN2)
	if err != nil {
		return diff.FileDiff{}, err
	}

	var fromContent, toContent []byte
	if fe := s.findFileInRevisionLocked(fromRev, path); fe != nil {
		fromContent, _ = s.blobs.Get(content.Handle(fe.NewHash))
	}
	if fe := s.findFileInRevisionLocked(toRev, path); fe != nil {
		toContent, _ = s.blobs.Get(content.Handle(fe.NewHash))
	}

	return s.engine.Interdiff(path, fromContent, toContent), nil
}

// FileContent returns the numbered line listing for one side of a file at
// a given revision.
func (s *Store) FileContent(reviewID, path string, revisionN int, side diff.Side) (diff.FileContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path = normalizePath(path)
	n := revisionN
	rev, err := s.resolveRevisionLocked(reviewID, &n)
	if err != nil {
		return diff.FileContent{}, err
	}
	fe := s.findFileInRevisionLocked(rev, path)
	if fe == nil {
		return diff.FileContent{}, model.NotFound("file", path)
	}

	hash := fe.NewHash
	if side == diff.SideOld {
		hash = fe.OldHash
	}
	data, _ := s.blobs.Get(content.Handle(hash))

	return s.engine.FileContentFromBytes(fe.Path, data, side), nil
}
