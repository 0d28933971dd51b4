package snapshot

import (
	"context"
	"sync"
)

// Fake is an in-memory RepoSnapshotter used by tests and by any transport
// that has not wired in a real source-repository backend. Callers seed it
// with the FileChange list a given (repo, base_ref) pair should yield.
type Fake struct {
	mu   sync.Mutex
	runs map[string][]FileChange
	errs map[string]error
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		runs: make(map[string][]FileChange),
		errs: make(map[string]error),
	}
}

func key(repo, baseRef string) string { return repo + "\x00" + baseRef }

// Seed registers the FileChange list Snapshot should return for the given
// (repo, baseRef) pair. Calling Seed again for the same pair replaces the
// prior value, letting tests simulate a working tree changing between
// successive create_revision calls.
func (f *Fake) Seed(repo, baseRef string, changes []FileChange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[key(repo, baseRef)] = changes
	delete(f.errs, key(repo, baseRef))
}

// SeedError makes Snapshot fail for the given (repo, baseRef) pair.
func (f *Fake) SeedError(repo, baseRef string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[key(repo, baseRef)] = err
}

func (f *Fake) Snapshot(ctx context.Context, repo, baseRef string) ([]FileChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.errs[key(repo, baseRef)]; ok {
		return nil, err
	}
	return f.runs[key(repo, baseRef)], nil
}
