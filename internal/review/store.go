// Package review implements the Store: the single source of truth for
// reviews, revisions, file entries, threads, and comments, plus the
// thread state machine and the diff/content-read operations layered on
// top of internal/diff and internal/content. Every mutation is
// serialized against a single sync.RWMutex (the "single notional lock"
// the engine's concurrency model calls for); readers acquire the lock in
// shared mode and may proceed concurrently with each other.
package review

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/preflightdev/preflight/internal/content"
	"github.com/preflightdev/preflight/internal/diff"
	"github.com/preflightdev/preflight/internal/events"
	"github.com/preflightdev/preflight/internal/model"
	"github.com/preflightdev/preflight/internal/presence"
	"github.com/preflightdev/preflight/internal/snapshot"
)

// Store is the in-memory graph of reviews, revisions, threads, and
// comments. The zero value is not usable; construct with New.
type Store struct {
	mu sync.RWMutex

	reviews  map[string]*model.Review
	revision map[string]*model.Revision // by revision id
	files    map[string]*model.FileEntry // by file entry id
	threads  map[string]*model.Thread
	comments map[string]*model.Comment

	blobs    *content.Store
	bus      *events.Bus
	presence *presence.Tracker
	engine   *diff.Engine
	builder  *snapshot.Builder

	log *slog.Logger
}

// Deps bundles the Store's collaborators.
type Deps struct {
	Blobs       *content.Store
	Bus         *events.Bus
	Presence    *presence.Tracker
	Engine      *diff.Engine
	Snapshotter snapshot.RepoSnapshotter
	Log         *slog.Logger
}

// New returns an empty Store wired to its collaborators.
func New(d Deps) *Store {
	if d.Blobs == nil {
		d.Blobs = content.New()
	}
	if d.Bus == nil {
		d.Bus = events.New()
	}
	if d.Presence == nil {
		d.Presence = presence.New(d.Bus)
	}
	if d.Engine == nil {
		d.Engine = diff.New()
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}

	s := &Store{
		reviews:  make(map[string]*model.Review),
		revision: make(map[string]*model.Revision),
		files:    make(map[string]*model.FileEntry),
		threads:  make(map[string]*model.Thread),
		comments: make(map[string]*model.Comment),
		blobs:    d.Blobs,
		bus:      d.Bus,
		presence: d.Presence,
		engine:   d.Engine,
		log:      d.Log,
	}
	if d.Snapshotter != nil {
		s.builder = snapshot.New(d.Snapshotter, d.Blobs, d.Log)
	}
	return s
}

// Bus exposes the EventBus the Store publishes to, so callers can
// subscribe_events / wait_for_event against it.
func (s *Store) Bus() *events.Bus { return s.bus }

// Presence exposes the AgentPresence tracker.
func (s *Store) Presence() *presence.Tracker { return s.presence }

// Blobs exposes the ContentStore, for transports rendering file_content.
func (s *Store) Blobs() *content.Store { return s.blobs }

// Graph is the Store's full state in a form suitable for JSON
// serialization: every review, revision, file entry, thread, and
// comment, independent of the ContentStore's blob bytes.
type Graph struct {
	Reviews  []*model.Review
	Revision []*model.Revision
	Files    []*model.FileEntry
	Threads  []*model.Thread
	Comments []*model.Comment
}

// Export snapshots the Store's full graph for persistence.
func (s *Store) Export() Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := Graph{
		Reviews:  make([]*model.Review, 0, len(s.reviews)),
		Revision: make([]*model.Revision, 0, len(s.revision)),
		Files:    make([]*model.FileEntry, 0, len(s.files)),
		Threads:  make([]*model.Thread, 0, len(s.threads)),
		Comments: make([]*model.Comment, 0, len(s.comments)),
	}
	for _, r := range s.reviews {
		g.Reviews = append(g.Reviews, cloneReview(r))
	}
	for _, r := range s.revision {
		g.Revision = append(g.Revision, cloneRevision(r))
	}
	for _, f := range s.files {
		g.Files = append(g.Files, cloneFileEntry(f))
	}
	for _, t := range s.threads {
		g.Threads = append(g.Threads, cloneThread(t))
	}
	for _, c := range s.comments {
		g.Comments = append(g.Comments, cloneComment(c))
	}
	return g
}

// Import replaces the Store's graph wholesale. Used once, at startup,
// before any other Store method is called.
func (s *Store) Import(g Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reviews = make(map[string]*model.Review, len(g.Reviews))
	s.revision = make(map[string]*model.Revision, len(g.Revision))
	s.files = make(map[string]*model.FileEntry, len(g.Files))
	s.threads = make(map[string]*model.Thread, len(g.Threads))
	s.comments = make(map[string]*model.Comment, len(g.Comments))

	for _, r := range g.Reviews {
		s.reviews[r.ID] = r
	}
	for _, r := range g.Revision {
		s.revision[r.ID] = r
	}
	for _, f := range g.Files {
		s.files[f.ID] = f
	}
	for _, t := range g.Threads {
		s.threads[t.ID] = t
	}
	for _, c := range g.Comments {
		s.comments[c.ID] = c
	}
}

func (s *Store) publish(kind model.EventKind, reviewID string, payload any) {
	s.bus.Publish(model.Event{
		Kind:      kind,
		ReviewID:  reviewID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

// --- Review commands -------------------------------------------------

// CreateReview creates a Review by requesting an initial snapshot from the
// RevisionBuilder. Fails RepoUnavailable or NoChanges (an empty working
// tree has nothing to review). The RepoSnapshotter/ContentStore I/O inside
// Build happens before the mutation lock is taken; the lock is held only
// for the commit step, per §4.1/§5's "no I/O while holding the lock".
func (s *Store) CreateReview(ctx context.Context, title, repo, baseRef string) (*model.Review, error) {
	if s.builder == nil {
		return nil, model.RepoUnavailable("no snapshotter configured")
	}

	now := time.Now().UTC()
	review := &model.Review{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    model.ReviewOpen,
		Repo:      repo,
		BaseRef:   baseRef,
		CreatedAt: now,
		ModifiedAt: now,
		ThreadIDs: make(map[string]struct{}),
	}

	res, err := s.builder.Build(ctx, review.ID, 1, model.TriggerManual, "", "", repo, baseRef)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.insertRevisionLocked(review, res)
	s.reviews[review.ID] = review
	s.mu.Unlock()

	s.publish(model.EventReviewCreated, review.ID, review)
	s.publish(model.EventRevisionCreated, review.ID, res.Revision)

	return cloneReview(review), nil
}

// FindOrCreateReview returns the lexicographically-latest open review
// whose repo descriptor matches, else creates one.
func (s *Store) FindOrCreateReview(ctx context.Context, repo, baseRef, title string) (*model.Review, error) {
	s.mu.RLock()
	var candidates []*model.Review
	for _, r := range s.reviews {
		if r.Status == model.ReviewOpen && r.Repo == repo {
			candidates = append(candidates, r)
		}
	}
	s.mu.RUnlock()

	if len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID > candidates[j].ID })
		return cloneReview(candidates[0]), nil
	}

	return s.CreateReview(ctx, title, repo, baseRef)
}

// GetReview returns a review by id.
func (s *Store) GetReview(id string) (*model.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, model.NotFound("review", id)
	}
	return cloneReview(r), nil
}

// ListReviews returns every review, ordered by creation time.
func (s *Store) ListReviews() []*model.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		out = append(out, cloneReview(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// UpdateReviewStatus sets a review's status. Closing a review with
// unresolved threads is permitted.
func (s *Store) UpdateReviewStatus(id string, status model.ReviewStatus) (*model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, model.NotFound("review", id)
	}

	r.Status = status
	r.ModifiedAt = time.Now().UTC()

	s.publish(model.EventReviewStatusChanged, id, r)
	return cloneReview(r), nil
}

// DeleteReview cascades removal of its revisions and threads, releasing
// content-store references.
func (s *Store) DeleteReview(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return model.NotFound("review", id)
	}
	s.deleteReviewLocked(r)

	s.publish(model.EventReviewDeleted, id, nil)
	return nil
}

// DeleteClosedReviews bulk-deletes every closed review.
func (s *Store) DeleteClosedReviews() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toDelete []*model.Review
	for _, r := range s.reviews {
		if r.Status == model.ReviewClosed {
			toDelete = append(toDelete, r)
		}
	}
	for _, r := range toDelete {
		s.deleteReviewLocked(r)
	}

	for _, r := range toDelete {
		s.publish(model.EventReviewDeleted, r.ID, nil)
	}
	return len(toDelete)
}

func (s *Store) deleteReviewLocked(r *model.Review) {
	for _, revID := range r.RevisionIDs {
		rev, ok := s.revision[revID]
		if !ok {
			continue
		}
		for _, fid := range rev.FileIDs {
			fe, ok := s.files[fid]
			if !ok {
				continue
			}
			s.blobs.Release(content.Handle(fe.OldHash))
			s.blobs.Release(content.Handle(fe.NewHash))
			delete(s.files, fid)
		}
		delete(s.revision, revID)
	}
	for tid := range r.ThreadIDs {
		t, ok := s.threads[tid]
		if !ok {
			continue
		}
		for _, cid := range t.CommentIDs {
			delete(s.comments, cid)
		}
		delete(s.threads, tid)
	}
	delete(s.reviews, r.ID)
}

// --- Revision commands -------------------------------------------------

// lastRevisionState returns the fingerprint of review r's most recent
// revision and the revision number the next one would take (empty/1 if r
// has none yet). Callers must hold s.mu, in either read or write mode.
func (s *Store) lastRevisionState(r *model.Review) (fingerprint string, nextN int) {
	nextN = 1
	if len(r.RevisionIDs) == 0 {
		return "", nextN
	}
	lastID := r.RevisionIDs[len(r.RevisionIDs)-1]
	if last, ok := s.revision[lastID]; ok {
		fingerprint = last.Fingerprint
		nextN = last.N + 1
	}
	return fingerprint, nextN
}

// CreateRevision delegates to the RevisionBuilder, inserting the result
// atomically on success. The RepoSnapshotter/ContentStore I/O inside Build
// runs with the mutation lock released; the lock is re-taken only for the
// commit step, per §4.1/§5's "no I/O while holding the lock". Because the
// lock is dropped across that call, a concurrent CreateRevision on the
// same review could commit first — the prior-fingerprint/next-number pair
// used to call Build is therefore re-validated under the commit lock: if
// it is stale, the build fails NoChanges when its fingerprint equals the
// now-latest revision's, and otherwise is inserted renumbered after it.
func (s *Store) CreateRevision(ctx context.Context, reviewID string, trigger model.RevisionTrigger, message string) (*model.Revision, error) {
	s.mu.RLock()
	r, ok := s.reviews[reviewID]
	if !ok {
		s.mu.RUnlock()
		return nil, model.NotFound("review", reviewID)
	}
	if s.builder == nil {
		s.mu.RUnlock()
		return nil, model.RepoUnavailable("no snapshotter configured")
	}
	repo, baseRef := r.Repo, r.BaseRef
	priorFingerprint, nextN := s.lastRevisionState(r)
	s.mu.RUnlock()

	res, err := s.builder.Build(ctx, reviewID, nextN, trigger, message, priorFingerprint, repo, baseRef)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	r, ok = s.reviews[reviewID]
	if !ok {
		s.mu.Unlock()
		return nil, model.NotFound("review", reviewID)
	}
	currentFingerprint, currentNextN := s.lastRevisionState(r)
	if currentNextN != nextN {
		// Another CreateRevision landed on this review while Build ran.
		// Re-check against the revision that's actually last now rather
		// than inserting a revision numbered out of sequence.
		if currentFingerprint == res.Revision.Fingerprint {
			s.mu.Unlock()
			return nil, model.NoChanges()
		}
		res.Revision.N = currentNextN
	}

	s.insertRevisionLocked(r, res)
	s.mu.Unlock()

	s.publish(model.EventRevisionCreated, reviewID, res.Revision)

	return cloneRevision(res.Revision), nil
}

func (s *Store) insertRevisionLocked(r *model.Review, res *snapshot.Result) {
	s.revision[res.Revision.ID] = res.Revision
	r.RevisionIDs = append(r.RevisionIDs, res.Revision.ID)
	for _, fe := range res.Files {
		s.files[fe.ID] = fe
	}
	r.ModifiedAt = time.Now().UTC()
}

// ListRevisions returns a review's revisions in number order.
func (s *Store) ListRevisions(reviewID string) ([]*model.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, model.NotFound("review", reviewID)
	}
	out := make([]*model.Revision, 0, len(r.RevisionIDs))
	for _, id := range r.RevisionIDs {
		out = append(out, cloneRevision(s.revision[id]))
	}
	return out, nil
}

// ListFiles returns the FileEntry records of a revision (the latest, if
// revisionN is nil).
func (s *Store) ListFiles(reviewID string, revisionN *int) ([]*model.FileEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rev, err := s.resolveRevisionLocked(reviewID, revisionN)
	if err != nil {
		return nil, err
	}

	out := make([]*model.FileEntry, 0, len(rev.FileIDs))
	for _, id := range rev.FileIDs {
		out = append(out, cloneFileEntry(s.files[id]))
	}
	return out, nil
}

func (s *Store) resolveRevisionLocked(reviewID string, revisionN *int) (*model.Revision, error) {
	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, model.NotFound("review", reviewID)
	}
	if len(r.RevisionIDs) == 0 {
		return nil, model.NotFound("revision", "latest")
	}

	if revisionN == nil {
		lastID := r.RevisionIDs[len(r.RevisionIDs)-1]
		return s.revision[lastID], nil
	}

	for _, id := range r.RevisionIDs {
		rev := s.revision[id]
		if rev.N == *revisionN {
			return rev, nil
		}
	}
	return nil, model.NotFound("revision", "")
}

func (s *Store) findFileInRevisionLocked(rev *model.Revision, path string) *model.FileEntry {
	for _, id := range rev.FileIDs {
		if fe := s.files[id]; fe != nil && fe.Path == path {
			return fe
		}
	}
	return nil
}

// --- helpers ------------------------------------------------------------

func cloneReview(r *model.Review) *model.Review {
	cp := *r
	cp.RevisionIDs = append([]string(nil), r.RevisionIDs...)
	cp.ThreadIDs = make(map[string]struct{}, len(r.ThreadIDs))
	for k := range r.ThreadIDs {
		cp.ThreadIDs[k] = struct{}{}
	}
	return &cp
}

func cloneRevision(r *model.Revision) *model.Revision {
	cp := *r
	cp.FileIDs = append([]string(nil), r.FileIDs...)
	return &cp
}

func cloneFileEntry(f *model.FileEntry) *model.FileEntry {
	cp := *f
	return &cp
}

func cloneThread(t *model.Thread) *model.Thread {
	cp := *t
	cp.CommentIDs = append([]string(nil), t.CommentIDs...)
	return &cp
}

func cloneComment(c *model.Comment) *model.Comment {
	cp := *c
	return &cp
}

func normalizePath(p string) string {
	return strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "/")
}
