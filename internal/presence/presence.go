// Package presence implements AgentPresence: per-review reference
// counting of active agent subscriptions, publishing agent_presence_changed
// transitions on the EventBus as the count crosses zero in either
// direction.
package presence

import (
	"sync"
	"time"

	"github.com/preflightdev/preflight/internal/events"
	"github.com/preflightdev/preflight/internal/model"
)

// PresenceChanged is the payload carried by an agent_presence_changed
// event.
type PresenceChanged struct {
	Connected bool
}

// Tracker tracks, per review, how many agent subscriptions are currently
// attached. It is reference-counted by subscription, not by process: two
// wait_for_event subscriptions scoped to the same review both count.
type Tracker struct {
	mu    sync.Mutex
	bus   *events.Bus
	count map[string]int
}

// New returns a Tracker that publishes transitions onto bus.
func New(bus *events.Bus) *Tracker {
	return &Tracker{bus: bus, count: make(map[string]int)}
}

// Attach increments the reference count for reviewID, publishing
// agent_presence_changed{connected:true} on the 0->1 transition. It
// returns a detach func to call, typically via defer, when the
// subscription ends; calls after the first are no-ops.
func (t *Tracker) Attach(reviewID string) (detach func()) {
	t.mu.Lock()
	t.count[reviewID]++
	connected := t.count[reviewID] == 1
	t.mu.Unlock()

	if connected {
		t.publish(reviewID, true)
	}

	var once sync.Once
	return func() {
		once.Do(func() { t.detach(reviewID) })
	}
}

func (t *Tracker) detach(reviewID string) {
	t.mu.Lock()
	t.count[reviewID]--
	disconnected := t.count[reviewID] <= 0
	if disconnected {
		delete(t.count, reviewID)
	}
	t.mu.Unlock()

	if disconnected {
		t.publish(reviewID, false)
	}
}

func (t *Tracker) publish(reviewID string, connected bool) {
	t.bus.Publish(model.Event{
		Kind:      model.EventAgentPresenceChanged,
		ReviewID:  reviewID,
		Timestamp: time.Now().UTC(),
		Payload:   PresenceChanged{Connected: connected},
	})
}

// Count reports the current attachment count for a review, for tests and
// diagnostics.
func (t *Tracker) Count(reviewID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count[reviewID]
}
