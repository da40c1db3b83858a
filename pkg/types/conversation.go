// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleRequester Role = "requester"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the assistant. Arguments holds
// the raw JSON object produced by the model.
type ToolCall struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Arguments string `json:"arguments" yaml:"arguments"`
}

// Turn is one message in a conversation.
type Turn struct {
	// Ordinal is the zero-based position of the turn in its transcript.
	Ordinal int `json:"ordinal" yaml:"ordinal"`

	Role Role `json:"role" yaml:"role"`

	// Name is the display name of the sender (e.g. "PaperSearchAssistant").
	Name string `json:"name" yaml:"name"`

	// Content is the message text. For tool turns it is the tool payload.
	Content string `json:"content" yaml:"content"`

	// ToolCalls is set on assistant turns that invoke tools.
	ToolCalls []ToolCall `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`

	// ToolCallID links a tool turn to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty" yaml:"tool_call_id,omitempty"`

	// ToolName is the tool that produced a tool turn.
	ToolName string `json:"tool_name,omitempty" yaml:"tool_name,omitempty"`
}

// HasToolCalls reports whether the turn requests tool invocations.
func (t Turn) HasToolCalls() bool { return len(t.ToolCalls) > 0 }

// Transcript is the ordered record of all turns in one task's conversation.
// Turns are only ever appended.
type Transcript struct {
	Turns []Turn `json:"turns" yaml:"turns"`
}

// Append adds a turn, assigning its ordinal, and returns the stored copy.
func (t *Transcript) Append(turn Turn) Turn {
	turn.Ordinal = len(t.Turns)
	t.Turns = append(t.Turns, turn)
	return turn
}

// Len returns the number of turns.
func (t Transcript) Len() int { return len(t.Turns) }

// Last returns the most recent turn and false when the transcript is empty.
func (t Transcript) Last() (Turn, bool) {
	if len(t.Turns) == 0 {
		return Turn{}, false
	}
	return t.Turns[len(t.Turns)-1], true
}
