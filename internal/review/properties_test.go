package review

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/preflightdev/preflight/internal/events"
	"github.com/preflightdev/preflight/internal/model"
	"github.com/preflightdev/preflight/internal/snapshot"
)

// findThread looks up a single thread by id among a review's threads, for
// property tests that only need to re-read state already known to exist.
func findThread(s *Store, reviewID, threadID string) (*model.Thread, error) {
	threads, err := s.ListThreads(reviewID, nil)
	if err != nil {
		return nil, err
	}
	for _, th := range threads {
		if th.ID == threadID {
			return th, nil
		}
	}
	return nil, model.NotFound("thread", threadID)
}

// TestRevisionNumbersAreDenseAndMonotonic checks the invariant that a
// review's revision numbers form 1..N with no gaps and no repeats, for any
// sequence of CreateRevision calls with randomly drawn content; a call whose
// draw repeats the prior revision fails NoChanges and adds no revision.
func TestRevisionNumbersAreDenseAndMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, fake := newTestStore(t)
		ctx := context.Background()

		fake.Seed("repo", "main", []snapshot.FileChange{
			{Path: "a.go", Status: model.FileAdded, NewContent: []byte("seed")},
		})
		r, err := s.CreateReview(ctx, "t", "repo", "main")
		if err != nil {
			t.Fatal(err)
		}

		n := rapid.IntRange(0, 8).Draw(t, "numRevisions")
		for i := 0; i < n; i++ {
			fake.Seed("repo", "main", []snapshot.FileChange{
				{
					Path:       "a.go",
					Status:     model.FileModified,
					OldContent: []byte("seed"),
					NewContent: []byte(rapid.StringN(1, 16, -1).Draw(t, "content")),
				},
			})
			if _, err := s.CreateRevision(ctx, r.ID, model.TriggerManual, ""); err != nil {
				// a random byte slice may coincide with the prior
				// revision's content; NoChanges is an acceptable outcome,
				// not a property violation.
				if model.KindOf(err) == model.KindNoChanges {
					continue
				}
				t.Fatal(err)
			}
		}

		revisions, err := s.ListRevisions(r.ID)
		if err != nil {
			t.Fatal(err)
		}
		for i, rev := range revisions {
			if rev.N != i+1 {
				t.Fatalf("revision numbers not dense: index %d has N=%d", i, rev.N)
			}
		}
	})
}

// TestResolvedThreadAlwaysHasNoAgentStatus checks property 4 of spec §8:
// update_thread_status(Resolved) followed by reading agent-status always
// yields None, regardless of what agent-status the thread carried before
// resolving.
func TestResolvedThreadAlwaysHasNoAgentStatus(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, fake := newTestStore(t)
		ctx := context.Background()

		fake.Seed("repo", "main", []snapshot.FileChange{
			{Path: "a.go", Status: model.FileAdded, NewContent: []byte("one\ntwo\nthree\n")},
		})
		r, err := s.CreateReview(ctx, "t", "repo", "main")
		if err != nil {
			t.Fatal(err)
		}

		th, err := s.CreateThread(r.ID, "a.go", 1, 1, model.OriginComment, "hi", model.AuthorHuman)
		if err != nil {
			t.Fatal(err)
		}

		if rapid.Bool().Draw(t, "setAgentStatus") {
			status := model.AgentSeen
			if rapid.Bool().Draw(t, "working") {
				status = model.AgentWorking
			}
			if _, err := s.SetAgentStatus(th.ID, status); err != nil {
				t.Fatal(err)
			}
		}

		got, err := s.UpdateThreadStatus(th.ID, model.ThreadResolved)
		if err != nil {
			t.Fatal(err)
		}
		if got.AgentStatus != model.AgentNone {
			t.Fatalf("resolved thread has agent-status %q, want None", got.AgentStatus)
		}
	})
}

// TestHumanCommentAlwaysClearsAgentStatus checks property 5 of spec §8: any
// add_comment(Human, ...) on an open thread leaves its agent-status at None,
// no matter what sequence of set_agent_status/add_comment calls preceded it.
func TestHumanCommentAlwaysClearsAgentStatus(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, fake := newTestStore(t)
		ctx := context.Background()

		fake.Seed("repo", "main", []snapshot.FileChange{
			{Path: "a.go", Status: model.FileAdded, NewContent: []byte("one\ntwo\n")},
		})
		r, err := s.CreateReview(ctx, "t", "repo", "main")
		if err != nil {
			t.Fatal(err)
		}
		th, err := s.CreateThread(r.ID, "a.go", 1, 1, model.OriginComment, "hi", model.AuthorHuman)
		if err != nil {
			t.Fatal(err)
		}

		steps := rapid.IntRange(0, 6).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "action") {
			case 0:
				if _, err := s.SetAgentStatus(th.ID, model.AgentSeen); err != nil {
					t.Fatal(err)
				}
			case 1:
				if _, err := s.SetAgentStatus(th.ID, model.AgentWorking); err != nil {
					t.Fatal(err)
				}
			case 2:
				if _, err := s.AddComment(th.ID, model.AuthorAgent, "agent reply"); err != nil {
					t.Fatal(err)
				}
			}
		}

		if _, err := s.AddComment(th.ID, model.AuthorHuman, "human reply"); err != nil {
			t.Fatal(err)
		}

		got, err := findThread(s, r.ID, th.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.AgentStatus != model.AgentNone {
			t.Fatalf("agent-status after human comment is %q, want None", got.AgentStatus)
		}
	})
}

// TestEverySuccessfulMutationPublishesOneMatchingEvent checks property 6 of
// spec §8: a live subscription with an empty filter receives exactly one
// event per successful mutation, in the order the mutations were issued.
func TestEverySuccessfulMutationPublishesOneMatchingEvent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, fake := newTestStore(t)
		ctx := context.Background()
		sub := s.SubscribeEvents("", nil, 64)
		defer sub.Close()

		fake.Seed("repo", "main", []snapshot.FileChange{
			{Path: "a.go", Status: model.FileAdded, NewContent: []byte("one\ntwo\n")},
		})
		r, err := s.CreateReview(ctx, "t", "repo", "main")
		if err != nil {
			t.Fatal(err)
		}
		drain(t, sub, 2) // review_created, revision_created

		th, err := s.CreateThread(r.ID, "a.go", 1, 1, model.OriginComment, "hi", model.AuthorHuman)
		if err != nil {
			t.Fatal(err)
		}
		drain(t, sub, 2) // thread_created, comment_added

		n := rapid.IntRange(0, 5).Draw(t, "numOps")
		for i := 0; i < n; i++ {
			if _, err := s.AddComment(th.ID, model.AuthorAgent, "reply"); err != nil {
				t.Fatal(err)
			}
			drain(t, sub, 1)
		}
	})
}

// drain takes n events from sub and fails the test if one does not arrive.
// Publish returns only after every matching subscriber's queue holds the
// event, so they are already queued; a timeout of 0 still waits up to
// events.DefaultWaitTimeout per event. Events beyond n stay queued.
func drain(t *rapid.T, sub *AgentSubscription, n int) {
	for i := 0; i < n; i++ {
		_, outcome := sub.WaitForEvent(context.Background(), 0)
		if outcome != events.Delivered {
			t.Fatalf("expected a queued event, got outcome %v", outcome)
		}
	}
}
