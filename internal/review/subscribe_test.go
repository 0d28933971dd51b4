package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/preflightdev/preflight/internal/events"
	"github.com/preflightdev/preflight/internal/model"
	"github.com/preflightdev/preflight/internal/snapshot"
)

func TestSubscribeEventsReceivesMatchingEvent(t *testing.T) {
	s, fake := newTestStore(t)
	ctx := context.Background()

	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("draft\n")},
	})
	r, err := s.CreateReview(ctx, "t", "repo", "main")
	require.NoError(t, err)

	sub := s.SubscribeEvents(r.ID, []model.EventKind{model.EventThreadCreated}, 4)
	defer sub.Close()

	require.Equal(t, 1, s.Presence().Count(r.ID))

	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("x")},
	})
	_, err = s.CreateRevision(ctx, r.ID, model.TriggerManual, "")
	require.NoError(t, err)

	_, err = s.CreateThread(r.ID, "a.go", 1, 1, model.OriginComment, "hi", model.AuthorHuman)
	require.NoError(t, err)

	evt, outcome := sub.WaitForEvent(ctx, time.Second)
	require.Equal(t, events.Delivered, outcome)
	require.Equal(t, model.EventThreadCreated, evt.Kind)
}

func TestSubscribeEventsCloseDetachesPresence(t *testing.T) {
	s, fake := newTestStore(t)
	ctx := context.Background()

	fake.Seed("repo", "main", []snapshot.FileChange{
		{Path: "a.go", Status: model.FileAdded, NewContent: []byte("draft\n")},
	})
	r, err := s.CreateReview(ctx, "t", "repo", "main")
	require.NoError(t, err)

	sub := s.SubscribeEvents(r.ID, nil, 4)
	require.Equal(t, 1, s.Presence().Count(r.ID))

	sub.Close()
	require.Equal(t, 0, s.Presence().Count(r.ID))
}
