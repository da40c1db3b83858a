// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package conversation drives the turn loop between a requester and the
// paper search assistant, executing tool calls in between, until the
// assistant signals completion or the auto-reply budget runs out.
package conversation

import (
	"errors"
	"log/slog"

	"github.com/pdiddy/paper-assistant/internal/metrics"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

// Participant names used in transcripts.
const (
	AssistantName = "PaperSearchAssistant"
	RequesterName = "UserQueryProxy"
)

// ErrTerminated is returned when appending to a finished conversation.
var ErrTerminated = errors.New("conversation terminated")

// State is the position of a conversation in its turn cycle.
type State int

const (
	AwaitingAssistantTurn State = iota
	AwaitingToolResult
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingAssistantTurn:
		return "awaiting_assistant_turn"
	case AwaitingToolResult:
		return "awaiting_tool_result"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Conversation is an append-only transcript plus its state. Terminated is
// absorbing.
type Conversation struct {
	transcript types.Transcript
	state      State
}

// New starts a conversation with the requester's task message.
func New(task string) *Conversation {
	c := &Conversation{state: AwaitingAssistantTurn}
	c.record(types.Turn{Role: types.RoleRequester, Name: RequesterName, Content: task})
	return c
}

// State returns the current state.
func (c *Conversation) State() State { return c.state }

// Transcript returns a copy of the turns recorded so far.
func (c *Conversation) Transcript() types.Transcript {
	turns := make([]types.Turn, len(c.transcript.Turns))
	copy(turns, c.transcript.Turns)
	return types.Transcript{Turns: turns}
}

// Append records a turn and advances the state: an assistant turn with tool
// calls moves to AwaitingToolResult, any other turn to
// AwaitingAssistantTurn.
func (c *Conversation) Append(turn types.Turn) (types.Turn, error) {
	if c.state == Terminated {
		return types.Turn{}, ErrTerminated
	}
	stored := c.record(turn)
	if turn.Role == types.RoleAssistant && turn.HasToolCalls() {
		c.state = AwaitingToolResult
	} else {
		c.state = AwaitingAssistantTurn
	}
	return stored, nil
}

// Terminate ends the conversation.
func (c *Conversation) Terminate() {
	if c.state != Terminated {
		slog.Debug("conversation terminated", "turns", c.transcript.Len())
	}
	c.state = Terminated
}

func (c *Conversation) record(turn types.Turn) types.Turn {
	stored := c.transcript.Append(turn)
	metrics.TurnAppended(string(stored.Role))
	slog.Debug("turn appended",
		"ordinal", stored.Ordinal,
		"role", string(stored.Role),
		"name", stored.Name,
		"tool_calls", len(stored.ToolCalls),
		"content", stored.Content)
	return stored
}
