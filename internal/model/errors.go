package model

import (
	"errors"
	"fmt"
)

// ErrKind is the closed taxonomy of error kinds a command can fail with.
type ErrKind string

const (
	KindNotFound               ErrKind = "not_found"
	KindInvalidArgument        ErrKind = "invalid_argument"
	KindFileNotInLatestRevision ErrKind = "file_not_in_latest_revision"
	KindNoChanges              ErrKind = "no_changes"
	KindRepoUnavailable        ErrKind = "repo_unavailable"
	KindNotOpen                ErrKind = "not_open"
	KindConflict               ErrKind = "conflict"
	KindInternal               ErrKind = "internal"
)

// Sentinel errors wrapped by StoreError. Callers that only care about the
// underlying condition can errors.Is against these directly; callers that
// need the closed-taxonomy Kind for transport mapping use Kind().
var (
	ErrNotFound               = errors.New("not found")
	ErrEmptyBody              = errors.New("comment body must not be empty")
	ErrInvalidLineRange       = errors.New("invalid line range")
	ErrFileNotInLatestRevision = errors.New("file not present in latest revision")
	ErrNoChanges              = errors.New("no changes since prior revision")
	ErrRepoUnavailable        = errors.New("repository unavailable")
	ErrNotOpen                = errors.New("thread is not open")
	ErrConflict               = errors.New("conflict")
	ErrInternal               = errors.New("internal error")
)

// StoreError is the concrete error type every command returns on failure.
// It pairs a closed-taxonomy Kind with a human-readable message and wraps
// the sentinel that produced it, so callers can use either errors.Is or a
// Kind switch.
type StoreError struct {
	kind ErrKind
	msg  string
	err  error
}

func (e *StoreError) Error() string {
	if e.msg == "" {
		return e.err.Error()
	}
	return e.msg
}

func (e *StoreError) Unwrap() error { return e.err }

// Kind returns the closed-taxonomy error kind for transport-level mapping.
func (e *StoreError) Kind() ErrKind { return e.kind }

func newErr(kind ErrKind, sentinel error, msg string) *StoreError {
	return &StoreError{kind: kind, err: sentinel, msg: msg}
}

func NotFound(what, id string) error {
	return newErr(KindNotFound, ErrNotFound, fmt.Sprintf("%s not found: %s", what, id))
}

func InvalidArgument(msg string) error {
	return newErr(KindInvalidArgument, ErrEmptyBody, msg)
}

func InvalidLineRange(start, end int) error {
	return newErr(
		KindInvalidArgument, ErrInvalidLineRange,
		fmt.Sprintf("invalid line range [%d, %d]", start, end),
	)
}

func FileNotInLatestRevision(path string) error {
	return newErr(
		KindFileNotInLatestRevision, ErrFileNotInLatestRevision,
		fmt.Sprintf("file not in latest revision: %s", path),
	)
}

func NoChanges() error {
	return newErr(KindNoChanges, ErrNoChanges, "no changes since prior revision")
}

func RepoUnavailable(reason string) error {
	return newErr(
		KindRepoUnavailable, ErrRepoUnavailable,
		fmt.Sprintf("repository unavailable: %s", reason),
	)
}

func NotOpen(id string) error {
	return newErr(KindNotOpen, ErrNotOpen, fmt.Sprintf("thread not open: %s", id))
}

func Internal(err error) error {
	return newErr(KindInternal, ErrInternal, fmt.Sprintf("internal error: %v", err))
}

// KindOf extracts the closed-taxonomy Kind from any error produced by this
// package, defaulting to KindInternal for anything else.
func KindOf(err error) ErrKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.kind
	}
	return KindInternal
}
