// Package model defines the data types shared across the review engine:
// reviews, revisions, file entries, threads, comments, and events.
package model

import "time"

// ReviewStatus is the lifecycle state of a Review.
type ReviewStatus string

const (
	ReviewOpen   ReviewStatus = "open"
	ReviewClosed ReviewStatus = "closed"
)

// RevisionTrigger identifies what caused a Revision to be created.
type RevisionTrigger string

const (
	TriggerAgent  RevisionTrigger = "agent"
	TriggerManual RevisionTrigger = "manual"
)

// FileStatus classifies how a FileEntry differs from its predecessor.
type FileStatus string

const (
	FileAdded    FileStatus = "added"
	FileModified FileStatus = "modified"
	FileDeleted  FileStatus = "deleted"
	FileRenamed  FileStatus = "renamed"
	FileBinary   FileStatus = "binary"
)

// ThreadOrigin records why a Thread was opened.
type ThreadOrigin string

const (
	OriginComment           ThreadOrigin = "comment"
	OriginExplanationRequest ThreadOrigin = "explanation_request"
	OriginAgentExplanation  ThreadOrigin = "agent_explanation"
)

// ThreadStatus is the two-state resolution machine for a Thread.
type ThreadStatus string

const (
	ThreadOpen     ThreadStatus = "open"
	ThreadResolved ThreadStatus = "resolved"
)

// AgentStatus is the transient acknowledgement sub-state of an open Thread.
type AgentStatus string

const (
	AgentNone    AgentStatus = "none"
	AgentSeen    AgentStatus = "seen"
	AgentWorking AgentStatus = "working"
)

// CommentAuthor identifies who wrote a Comment.
type CommentAuthor string

const (
	AuthorHuman CommentAuthor = "human"
	AuthorAgent CommentAuthor = "agent"
)

// Review is a top-level collaboration session covering a set of changes in
// one repository.
type Review struct {
	ID         string
	Title      string
	Status     ReviewStatus
	Repo       string
	BaseRef    string
	CreatedAt  time.Time
	ModifiedAt time.Time

	// RevisionIDs is ordered 1..N matching Revision.N.
	RevisionIDs []string
	ThreadIDs   map[string]struct{}
}

// Revision is an immutable numbered snapshot of a review's changes against
// its base reference.
type Revision struct {
	ID          string
	ReviewID    string
	N           int
	Trigger     RevisionTrigger
	Message     string
	CreatedAt   time.Time
	Fingerprint string
	FileIDs     []string
}

// FileEntry is one file within one revision, with status and content
// references into the ContentStore.
type FileEntry struct {
	ID         string
	RevisionID string
	Path       string
	OldPath    string
	Status     FileStatus

	// OldHash/NewHash are content-store hashes; empty string means absent
	// (Added has no OldHash, Deleted has no NewHash, Binary has neither).
	OldHash string
	NewHash string
}

// Thread is an inline conversation anchored to a file and a line range at
// its birth revision.
type Thread struct {
	ID          string
	ReviewID    string
	FilePath    string
	LineStart   int
	LineEnd     int
	Origin      ThreadOrigin
	Status      ThreadStatus
	AgentStatus AgentStatus
	CreatedAt   time.Time
	ModifiedAt  time.Time
	CommentIDs  []string
}

// Comment is an immutable message belonging to exactly one Thread.
type Comment struct {
	ID        string
	ThreadID  string
	Author    CommentAuthor
	Body      string
	CreatedAt time.Time
}

// EventKind is the closed set of event kinds the EventBus transports.
type EventKind string

const (
	EventReviewCreated        EventKind = "review_created"
	EventReviewStatusChanged  EventKind = "review_status_changed"
	EventReviewDeleted        EventKind = "review_deleted"
	EventRevisionCreated      EventKind = "revision_created"
	EventThreadCreated        EventKind = "thread_created"
	EventCommentAdded         EventKind = "comment_added"
	EventThreadStatusChanged  EventKind = "thread_status_changed"
	EventThreadAcknowledged   EventKind = "thread_acknowledged"
	EventThreadPoked          EventKind = "thread_poked"
	EventRevisionRequested    EventKind = "revision_requested"
	EventAgentPresenceChanged EventKind = "agent_presence_changed"
	EventDropped              EventKind = "event_dropped"
)

// Event is a tagged record published by the Store to the EventBus.
type Event struct {
	Kind      EventKind
	ReviewID  string
	Timestamp time.Time
	Payload   any
}
