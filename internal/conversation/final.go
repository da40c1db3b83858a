// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package conversation

import (
	"encoding/json"
	"strings"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// NoFinalResponse is returned by FinalResponse when no assistant message
// qualifies.
const NoFinalResponse = "No final response from the assistant was found."

// FinalResponse returns the content of the latest assistant turn that has no
// tool calls, is not blank, and is not a serialized tool-call payload. It
// never returns "".
func FinalResponse(t types.Transcript) string {
	for i := len(t.Turns) - 1; i >= 0; i-- {
		turn := t.Turns[i]
		if turn.Role != types.RoleAssistant || turn.HasToolCalls() {
			continue
		}
		if strings.TrimSpace(turn.Content) == "" || isToolCallPayload(turn.Content) {
			continue
		}
		return turn.Content
	}
	return NoFinalResponse
}

// isToolCallPayload reports whether s is a JSON object (or an array whose
// first element is an object) carrying a "tool_calls" key.
func isToolCallPayload(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return false
	}
	var obj map[string]json.RawMessage
	if s[0] == '[' {
		var arr []map[string]json.RawMessage
		if err := json.Unmarshal([]byte(s), &arr); err != nil || len(arr) == 0 {
			return false
		}
		obj = arr[0]
	} else if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return false
	}
	_, ok := obj["tool_calls"]
	return ok
}
