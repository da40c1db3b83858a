// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/pdiddy/paper-assistant/internal/tool"
)

// assistantPromptTmpl is the assistant's system prompt. The tool schema is
// embedded so providers without native tool metadata still see it.
var assistantPromptTmpl = template.Must(template.New("assistant").Parse(`You are a helpful AI assistant specialized in finding research papers.
You have access to a function '{{.ToolName}}' to search Semantic Scholar.
Its schema is: {{.Schema}}

When a user asks for research papers, analyze their request to extract:
- The 'topic' (required).
- An optional 'year' and 'year_filter' (in, before, after).
- An optional 'min_citations'.
- An optional 'limit' on the number of results (default to 5 if not specified).

If any required information for the tool is missing or ambiguous, ask clarifying questions.
When you have enough information, call the '{{.ToolName}}' function.
Do not make up answers or paper details. Only provide information returned by the function.

After receiving the JSON string result from the function:
- If it's an error message, inform the user about the error in plain language.
- If it's a list of papers, present the information clearly. For each paper, mention: Title, Authors, Year, Citation Count, and URL or DOI.
- If the tool returns a "No papers found" message, tell the user that no matching papers were found.

Reply {{.Marker}} when the task is fully complete.
`))

// AssistantPrompt renders the assistant system prompt for def, instructing
// the model to finish with marker.
func AssistantPrompt(def tool.Definition, marker string) (string, error) {
	schema, err := json.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("encoding tool schema: %w", err)
	}
	var buf bytes.Buffer
	err = assistantPromptTmpl.Execute(&buf, struct {
		ToolName string
		Schema   string
		Marker   string
	}{ToolName: def.Name, Schema: string(schema), Marker: marker})
	if err != nil {
		return "", fmt.Errorf("rendering assistant prompt: %w", err)
	}
	return buf.String(), nil
}
