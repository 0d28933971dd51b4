package review

import "github.com/preflightdev/preflight/internal/model"

// ThreadEvent is the sealed interface for transitions the thread state
// machine accepts. A Thread's state space is two small orthogonal axes
// (Status x AgentStatus) rather than a linear sequence, so transitions
// are expressed as direct field mutations on a ThreadState value instead
// of a proliferation of per-state types.
type ThreadEvent interface {
	applyTo(*ThreadState)
}

// ThreadState is the mutable state a ThreadEvent transitions.
type ThreadState struct {
	Status      model.ThreadStatus
	AgentStatus model.AgentStatus
}

// CommentAddedEvent fires whenever a comment (human or agent) is appended
// to the thread: any new comment clears the prior agent-status
// acknowledgement.
type CommentAddedEvent struct{ Author model.CommentAuthor }

func (CommentAddedEvent) applyTo(s *ThreadState) { s.AgentStatus = model.AgentNone }

// AgentStatusSetEvent fires on set_agent_status(Seen|Working).
type AgentStatusSetEvent struct{ Status model.AgentStatus }

func (e AgentStatusSetEvent) applyTo(s *ThreadState) { s.AgentStatus = e.Status }

// ThreadStatusChangedEvent fires on update_thread_status. Resolving
// discards agent-status; reopening resets it to None.
type ThreadStatusChangedEvent struct{ Status model.ThreadStatus }

func (e ThreadStatusChangedEvent) applyTo(s *ThreadState) {
	s.Status = e.Status
	s.AgentStatus = model.AgentNone
}

// ProcessEvent applies a ThreadEvent to a Thread's state in place.
func ProcessEvent(t *model.Thread, event ThreadEvent) {
	state := ThreadState{Status: t.Status, AgentStatus: t.AgentStatus}
	event.applyTo(&state)
	t.Status = state.Status
	t.AgentStatus = state.AgentStatus
}
