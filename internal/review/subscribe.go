package review

import (
	"context"
	"time"

	"github.com/preflightdev/preflight/internal/events"
	"github.com/preflightdev/preflight/internal/model"
)

// AgentSubscription pairs an EventBus subscription with the AgentPresence
// detach callback, so closing it both drops the subscription and decrements
// the review's attachment count.
type AgentSubscription struct {
	sub    *events.Subscription
	detach func()
}

// SubscribeEvents registers a new subscription with the given filter. If
// reviewID is non-empty, the subscription also counts toward that
// review's AgentPresence.
func (s *Store) SubscribeEvents(reviewID string, kinds []model.EventKind, queueSize int) *AgentSubscription {
	filter := events.Filter{ReviewID: reviewID}
	if len(kinds) > 0 {
		filter.Kinds = make(map[model.EventKind]bool, len(kinds))
		for _, k := range kinds {
			filter.Kinds[k] = true
		}
	}

	sub := s.bus.Subscribe(filter, queueSize)

	var detach func()
	if reviewID != "" {
		detach = s.presence.Attach(reviewID)
	}

	return &AgentSubscription{sub: sub, detach: detach}
}

// WaitForEvent blocks until a matching event arrives, the timeout
// elapses, or the subscription is cancelled.
func (s *AgentSubscription) WaitForEvent(ctx context.Context, timeout time.Duration) (model.Event, events.Outcome) {
	return s.sub.Wait(ctx, timeout)
}

// Close drops the subscription and, if scoped to a review, decrements its
// AgentPresence count.
func (s *AgentSubscription) Close() {
	s.sub.Close()
	if s.detach != nil {
		s.detach()
	}
}
