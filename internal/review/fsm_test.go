package review

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/preflightdev/preflight/internal/model"
)

func TestProcessEventCommentClearsAgentStatus(t *testing.T) {
	th := &model.Thread{Status: model.ThreadOpen, AgentStatus: model.AgentWorking}
	ProcessEvent(th, CommentAddedEvent{Author: model.AuthorHuman})
	require.Equal(t, model.AgentNone, th.AgentStatus)
}

func TestProcessEventAgentStatusSet(t *testing.T) {
	th := &model.Thread{Status: model.ThreadOpen, AgentStatus: model.AgentNone}
	ProcessEvent(th, AgentStatusSetEvent{Status: model.AgentSeen})
	require.Equal(t, model.AgentSeen, th.AgentStatus)
}

func TestProcessEventStatusChangeResetsAgentStatus(t *testing.T) {
	th := &model.Thread{Status: model.ThreadOpen, AgentStatus: model.AgentWorking}
	ProcessEvent(th, ThreadStatusChangedEvent{Status: model.ThreadResolved})
	require.Equal(t, model.ThreadResolved, th.Status)
	require.Equal(t, model.AgentNone, th.AgentStatus)
}
