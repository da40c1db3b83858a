// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package critic

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// systemPrompt is the rubric given to the critic model.
const systemPrompt = `You are an AI Critic Agent. Your role is to evaluate the performance of another AI agent,
the 'PaperSearchAssistant', which is designed to find research papers using a tool.

You will be given:
1. The original 'User Prompt' given to the PaperSearchAssistant.
2. The 'Agent's Final Response' (the last message from PaperSearchAssistant intended for the user).
3. The full 'Conversation History' between the User Proxy and the PaperSearchAssistant.

Based on this information, evaluate the PaperSearchAssistant's performance according to the following criteria,
providing a score from 1 (Poor) to 5 (Excellent) for each:

1.  **Completeness (1-5):** Did the agent fully address every aspect of the user's prompt (topic, year constraints, citation constraints, number of papers requested)?
    Consider if all parts of the request were covered in the final response or if the agent acknowledged limitations.
2.  **Quality/Accuracy (1-5):**
    - Was the response accurate (did it find relevant papers that actually match the criteria mentioned in the prompt)? You'll need to infer this from the agent's response; you don't have ground truth access to a database. Assume the agent's reported paper details (title, year, citations) are true *if the tool was called*.
    - If the tool was NOT called and the agent hallucinated papers, score this very low (1).
    - Was the information presented clearly, well-organized, and easy to understand?
3.  **Robustness (1-5):**
    - How well did the agent handle ambiguous prompts? Did it ask good, relevant clarifying questions if needed (check conversation history)?
    - How did it handle edge cases or impossible requests? Did it use its tool appropriately and report 'no results' or 'error' sensibly, or did it fail/hallucinate?
4.  **Tool Usage (1-5):** (Refer to conversation history for actual tool calls if any)
    - Did the agent correctly identify when to use its 'search_research_papers' tool?
    - Did it extract parameters for the tool reasonably correctly from the user's prompt? (e.g., topic, year, year_filter, min_citations, limit).
    - Did it correctly interpret the tool's output (both success and error messages)? Check if its summary matches what the tool provided.
    - If no tool call was made when one was clearly appropriate, score this low. If a tool call was made unnecessarily, also score lower.
5.  **Efficiency/Conciseness (1-5):**
    - Did the agent achieve the task with a reasonable number of conversational turns (check conversation history)? Too much back-and-forth for simple queries is inefficient.
    - Was the final answer concise and to the point, without unnecessary chatter after fulfilling the request?

Provide your evaluation as a JSON object with the following fields:
- "completeness_score": integer (1-5)
- "quality_accuracy_score": integer (1-5)
- "robustness_score": integer (1-5)
- "tool_usage_score": integer (1-5)
- "efficiency_conciseness_score": integer (1-5)
- "overall_assessment": (string) A brief overall summary of the agent's performance on this specific task.
- "positive_feedback": (string) Specific positive aspects, with examples from the response or history.
- "areas_for_improvement": (string) Specific areas where the agent could improve, with examples. Mention if the tool was not called but should have been, or if it hallucinated.

Focus your evaluation solely on the provided prompt, response, and history. Do not make assumptions beyond this data.
Be objective and fair.
`

var requestTmpl = template.Must(template.New("critic-request").Parse(`
User Prompt to PaperSearchAssistant:
------------------------------------
{{.Prompt}}
------------------------------------

PaperSearchAssistant's Final Response to User:
---------------------------------------------
{{.Final}}
---------------------------------------------

Full Conversation History (UserQueryProxy and PaperSearchAssistant):
------------------------------------------------------------------
{{.History}}
------------------------------------------------------------------

Please provide your evaluation as a JSON object based on the criteria outlined in your system message.
`))

// renderRequest builds the critic's user message.
func renderRequest(prompt, final string, t types.Transcript) (string, error) {
	var buf bytes.Buffer
	err := requestTmpl.Execute(&buf, struct {
		Prompt, Final, History string
	}{Prompt: prompt, Final: final, History: FormatHistory(t)})
	if err != nil {
		return "", fmt.Errorf("rendering critic request: %w", err)
	}
	return buf.String(), nil
}

// FormatHistory renders a transcript as one block per turn:
//
//	From <name> (<role>):
//	<content>
//	-------
func FormatHistory(t types.Transcript) string {
	blocks := make([]string, 0, t.Len())
	for _, turn := range t.Turns {
		role := historyRole(turn.Role)
		name := turn.Name
		if name == "" {
			name = role
		}
		blocks = append(blocks, fmt.Sprintf("From %s (%s):\n%s\n-------", name, role, historyContent(turn)))
	}
	return strings.Join(blocks, "\n")
}

func historyRole(r types.Role) string {
	switch r {
	case types.RoleRequester:
		return "user"
	case types.RoleAssistant:
		return "assistant"
	case types.RoleTool:
		return "tool"
	}
	return "unknown"
}

type historyToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

func historyContent(turn types.Turn) string {
	switch {
	case turn.HasToolCalls():
		calls := make([]historyToolCall, len(turn.ToolCalls))
		for i, tc := range turn.ToolCalls {
			calls[i].ID = tc.ID
			calls[i].Type = "function"
			calls[i].Function.Name = tc.Name
			calls[i].Function.Arguments = tc.Arguments
		}
		data, err := json.Marshal(calls)
		if err != nil {
			return "Tool Call Suggested: []"
		}
		return "Tool Call Suggested: " + string(data)
	case turn.Role == types.RoleTool:
		return "Tool Response: " + turn.Content
	}
	return turn.Content
}
