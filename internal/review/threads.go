package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/preflightdev/preflight/internal/content"
	"github.com/preflightdev/preflight/internal/diff"
	"github.com/preflightdev/preflight/internal/model"
)

// CreateThread opens a new Thread anchored to file at [lineStart,
// lineEnd] in the latest revision's new-side numbering, with an initial
// comment. origin = ExplanationRequest permits an empty body; every other
// origin requires a non-empty body.
func (s *Store) CreateThread(
	reviewID, file string, lineStart, lineEnd int,
	origin model.ThreadOrigin, body string, author model.CommentAuthor,
) (*model.Thread, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, model.NotFound("review", reviewID)
	}

	if lineStart < 1 || lineEnd < 1 || lineStart > lineEnd {
		return nil, model.InvalidLineRange(lineStart, lineEnd)
	}

	if origin != model.OriginExplanationRequest && body == "" {
		return nil, model.InvalidArgument("comment body must not be empty")
	}

	file = normalizePath(file)
	rev, err := s.resolveRevisionLocked(reviewID, nil)
	if err != nil {
		return nil, err
	}
	fe := s.findFileInRevisionLocked(rev, file)
	if fe == nil {
		return nil, model.FileNotInLatestRevision(file)
	}
	if n := countNewSideLines(s, fe); n > 0 && lineEnd > n {
		return nil, model.InvalidLineRange(lineStart, lineEnd)
	}

	now := time.Now().UTC()
	thread := &model.Thread{
		ID:          uuid.NewString(),
		ReviewID:    reviewID,
		FilePath:    file,
		LineStart:   lineStart,
		LineEnd:     lineEnd,
		Origin:      origin,
		Status:      model.ThreadOpen,
		AgentStatus: model.AgentNone,
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	comment := &model.Comment{
		ID:        uuid.NewString(),
		ThreadID:  thread.ID,
		Author:    author,
		Body:      body,
		CreatedAt: now,
	}
	thread.CommentIDs = append(thread.CommentIDs, comment.ID)

	s.threads[thread.ID] = thread
	s.comments[comment.ID] = comment
	r.ThreadIDs[thread.ID] = struct{}{}

	s.publish(model.EventThreadCreated, reviewID, thread)
	s.publish(model.EventCommentAdded, reviewID, comment)

	return cloneThread(thread), nil
}

// countNewSideLines returns the number of new-side lines in fe's content,
// or 0 if unknown (binary, or new side absent) — in which case line-range
// validation against the file's extent is skipped.
func countNewSideLines(s *Store, fe *model.FileEntry) int {
	if fe.Status == model.FileBinary || fe.NewHash == "" {
		return 0
	}
	data, ok := s.blobs.Get(content.Handle(fe.NewHash))
	if !ok {
		return 0
	}
	fc := s.engine.FileContentFromBytes(fe.Path, data, diff.SideNew)
	return len(fc.Lines)
}

// ListThreads returns a review's threads, optionally filtered by file.
func (s *Store) ListThreads(reviewID string, file *string) ([]*model.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, model.NotFound("review", reviewID)
	}

	out := make([]*model.Thread, 0, len(r.ThreadIDs))
	for id := range r.ThreadIDs {
		t := s.threads[id]
		if t == nil {
			continue
		}
		if file != nil && t.FilePath != normalizePath(*file) {
			continue
		}
		out = append(out, cloneThread(t))
	}
	return out, nil
}

// GetComments returns a thread's comments in chronological order.
func (s *Store) GetComments(threadID string) ([]*model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[threadID]
	if !ok {
		return nil, model.NotFound("thread", threadID)
	}

	out := make([]*model.Comment, 0, len(t.CommentIDs))
	for _, id := range t.CommentIDs {
		out = append(out, cloneComment(s.comments[id]))
	}
	return out, nil
}

// AddComment appends a Comment to a thread. A human comment clears any
// agent-status acknowledgement, per the thread state machine.
func (s *Store) AddComment(threadID string, author model.CommentAuthor, body string) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		return nil, model.NotFound("thread", threadID)
	}
	if body == "" {
		return nil, model.InvalidArgument("comment body must not be empty")
	}

	now := time.Now().UTC()
	comment := &model.Comment{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Author:    author,
		Body:      body,
		CreatedAt: now,
	}
	s.comments[comment.ID] = comment
	t.CommentIDs = append(t.CommentIDs, comment.ID)
	t.ModifiedAt = now

	ProcessEvent(t, CommentAddedEvent{Author: author})

	s.publish(model.EventCommentAdded, t.ReviewID, comment)
	return cloneComment(comment), nil
}

// UpdateThreadStatus transitions a thread's resolution status. Idempotent.
// Resolving discards any agent-status; reopening resets it to None.
func (s *Store) UpdateThreadStatus(threadID string, status model.ThreadStatus) (*model.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		return nil, model.NotFound("thread", threadID)
	}

	ProcessEvent(t, ThreadStatusChangedEvent{Status: status})
	t.ModifiedAt = time.Now().UTC()

	s.publish(model.EventThreadStatusChanged, t.ReviewID, t)
	return cloneThread(t), nil
}

// SetAgentStatus moves a thread's agent-status sub-state to Seen or
// Working. Fails NotOpen on a resolved thread.
func (s *Store) SetAgentStatus(threadID string, status model.AgentStatus) (*model.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		return nil, model.NotFound("thread", threadID)
	}
	if t.Status != model.ThreadOpen {
		return nil, model.NotOpen(threadID)
	}

	ProcessEvent(t, AgentStatusSetEvent{Status: status})
	t.ModifiedAt = time.Now().UTC()

	s.publish(model.EventThreadAcknowledged, t.ReviewID, t)
	return cloneThread(t), nil
}

// PokeThread emits a transient thread_poked signal without mutating any
// field. Idempotent rate-limiting is left to callers.
func (s *Store) PokeThread(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		return model.NotFound("thread", threadID)
	}
	if t.Status != model.ThreadOpen {
		return model.NotOpen(threadID)
	}

	s.publish(model.EventThreadPoked, t.ReviewID, struct{ ThreadID string }{threadID})
	return nil
}

// RequestRevision emits revision_requested, a pure signal to the agent
// that does not change any Store state.
func (s *Store) RequestRevision(reviewID string) error {
	s.mu.RLock()
	_, ok := s.reviews[reviewID]
	s.mu.RUnlock()

	if !ok {
		return model.NotFound("review", reviewID)
	}

	s.publish(model.EventRevisionRequested, reviewID, nil)
	return nil
}
