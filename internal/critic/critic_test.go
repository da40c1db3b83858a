// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package critic

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-assistant/internal/llm"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

const validVerdict = `{"completeness_score": 4, "quality_accuracy_score": 5, "robustness_score": 3, "tool_usage_score": 5, "efficiency_conciseness_score": 4, "overall_assessment": "Solid.", "positive_feedback": "Called the tool.", "areas_for_improvement": "None."}`

type fakeModel struct {
	reply llm.Reply
	err   error
	got   llm.Request
}

func (f *fakeModel) Chat(_ context.Context, req llm.Request) (llm.Reply, error) {
	f.got = req
	return f.reply, f.err
}

func sampleTranscript() types.Transcript {
	var tr types.Transcript
	tr.Append(types.Turn{Role: types.RoleRequester, Name: "UserQueryProxy", Content: "Find 3 papers on transformers"})
	tr.Append(types.Turn{Role: types.RoleAssistant, Name: "PaperSearchAssistant", ToolCalls: []types.ToolCall{{ID: "c1", Name: "search_research_papers", Arguments: `{"topic":"transformers"}`}}})
	tr.Append(types.Turn{Role: types.RoleTool, Name: "UserQueryProxy", Content: `{"message":"No papers found matching your criteria."}`, ToolCallID: "c1"})
	tr.Append(types.Turn{Role: types.RoleAssistant, Name: "PaperSearchAssistant", Content: "No papers found. TERMINATE"})
	return tr
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around fence", "Here you go:\n```json\n{\"a\": 1}\n```\nThanks", `{"a": 1}`},
		{"no fence", "  {\"a\": 1}  ", `{"a": 1}`},
		{"unclosed fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"fence on one line", "```{\"a\": 1}```", `{"a": 1}`},
		{"json block after prose block", "```text\nnote\n```\n```json\n{\"a\": 1}\n```", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestExtractStrict(t *testing.T) {
	for _, raw := range []string{validVerdict, "```json\n" + validVerdict + "\n```", "```\n" + validVerdict + "\n```"} {
		res := Extract(raw)
		require.True(t, res.OK(), raw)
		assert.Equal(t, 4, res.Verdict.CompletenessScore)
		assert.Equal(t, 5, res.Verdict.ToolUsageScore)
		assert.Equal(t, "Solid.", res.Verdict.OverallAssessment)
	}
}

func TestExtractBackticksInsideValue(t *testing.T) {
	advice := "Wrap the list in ```markdown``` fences."
	raw := strings.Replace(validVerdict, `"None."`, `"`+advice+`"`, 1)
	require.NotEqual(t, validVerdict, raw)

	res := Extract(raw)
	require.True(t, res.OK(), "failure: %+v", res.Failure)
	assert.Equal(t, advice, res.Verdict.AreasForImprovement)
	assert.Equal(t, 3, res.Verdict.RobustnessScore)

	fenced := Extract("```json\n" + validVerdict + "\n```")
	require.True(t, fenced.OK())
	res.Verdict.AreasForImprovement = fenced.Verdict.AreasForImprovement
	assert.Equal(t, fenced.Verdict, res.Verdict)
}

func TestExtractRepairs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"trailing comma", `{"completeness_score": 4, "quality_accuracy_score": 5, "robustness_score": 3, "tool_usage_score": 5, "efficiency_conciseness_score": 4, "overall_assessment": "ok",}`},
		{"single quotes", `{'completeness_score': 4, 'quality_accuracy_score': 5, 'robustness_score': 3, 'tool_usage_score': 5, 'efficiency_conciseness_score': 4, 'overall_assessment': 'it said "fine"'}`},
		{"unquoted keys", `{completeness_score: 4, quality_accuracy_score: 5, robustness_score: 3, tool_usage_score: 5, efficiency_conciseness_score: 4}`},
		{"prose around", "Here is my evaluation:\n" + validVerdict + "\nLet me know if you need more."},
		{"missing closer", `{"completeness_score": 4, "quality_accuracy_score": 5, "robustness_score": 3, "tool_usage_score": 5, "efficiency_conciseness_score": 4, "overall_assessment": "cut off`},
		{"smart quotes", `{“completeness_score”: 4, “quality_accuracy_score”: 5, “robustness_score”: 3, “tool_usage_score”: 5, “efficiency_conciseness_score”: 4}`},
		{"missing comma", "{\"completeness_score\": 4\n\"quality_accuracy_score\": 5, \"robustness_score\": 3, \"tool_usage_score\": 5, \"efficiency_conciseness_score\": 4}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.raw)
			require.True(t, res.OK(), "failure: %+v", res.Failure)
			assert.Equal(t, 4, res.Verdict.CompletenessScore)
			assert.Equal(t, 4, res.Verdict.EfficiencyConcisenessScore)
		})
	}
}

func TestExtractFailure(t *testing.T) {
	raw := "```json\nI cannot evaluate this.\n```"
	res := Extract(raw)
	require.False(t, res.OK())
	assert.Equal(t, errDecode, res.Failure.Error)
	assert.Equal(t, raw, res.Failure.OriginalRawResponse)
	assert.Equal(t, "I cannot evaluate this.", res.Failure.MarkdownStrippedResponse)
	assert.NotEmpty(t, res.Failure.FixedAttemptResponse)
}

func TestExtractRejectsOutOfRangeScores(t *testing.T) {
	raw := strings.Replace(validVerdict, `"robustness_score": 3`, `"robustness_score": 9`, 1)
	res := Extract(raw)
	require.False(t, res.OK())
	assert.Contains(t, res.Failure.Error, errValidation)
	assert.Contains(t, res.Failure.Error, "RobustnessScore")
}

func TestRepairIdempotentOnValidJSON(t *testing.T) {
	inputs := []string{
		validVerdict,
		`{"a":[1,2.5e+3,-4],"b":{"c":null,"d":true,"e":false},"f":"quote \" and \\ and é"}`,
		`[]`,
		`{"ünïcode":"“smart” inside"}`,
	}
	for _, in := range inputs {
		assert.Equal(t, in, Repair(in))
		assert.Equal(t, Repair(in), Repair(Repair(in)))
	}
}

func TestRepairCases(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"python literals", `{'ok': True, 'no': False, 'none': None}`, `{"ok": true, "no": false, "none": null}`},
		{"nested missing closers", `{"a": [1, {"b": 2`, `{"a": [1, {"b": 2}]}`},
		{"mismatched closer", `{"a": [1}`, `{"a": [1]}`},
		{"trailing garbage after value", `{"a": 1}} trailing`, `{"a": 1}`},
		{"prose before value", "Verdict follows: {\"a\": 1}", `{"a": 1}`},
		{"array trailing comma", `[1, 2, ]`, `[1, 2]`},
		{"bare word value", `{"a": yes}`, `{"a": "yes"}`},
		{"raw newline in string", "{\"a\": \"line1\nline2\"}", `{"a": "line1\nline2"}`},
		{"escaped single quote", `{'a': 'it\'s'}`, `{"a": "it's"}`},
		{"brackets inside string", `{"a": "x}y", "b": [1`, `{"a": "x}y", "b": [1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, Repair(tt.in))
		})
	}
}

func TestRepairEmpty(t *testing.T) {
	assert.Empty(t, Repair("   "))

	res := Extract("")
	require.False(t, res.OK())
	assert.Equal(t, errDecode, res.Failure.Error)
	assert.Empty(t, res.Failure.FixedAttemptResponse)
}

func TestEvaluate(t *testing.T) {
	m := &fakeModel{reply: llm.Reply{Content: "```json\n" + validVerdict + "\n```"}}
	res := New(m).Evaluate(context.Background(), "Find 3 papers on transformers", "No papers found. TERMINATE", sampleTranscript())

	require.True(t, res.OK())
	assert.Equal(t, 3, res.Verdict.RobustnessScore)

	assert.Contains(t, m.got.System, "You are an AI Critic Agent")
	assert.Empty(t, m.got.Tools)
	require.Len(t, m.got.Turns, 1)
	req := m.got.Turns[0].Content
	assert.Contains(t, req, "User Prompt to PaperSearchAssistant:\n------------------------------------\nFind 3 papers on transformers\n")
	assert.Contains(t, req, "PaperSearchAssistant's Final Response to User:")
	assert.Contains(t, req, "From UserQueryProxy (user):\nFind 3 papers on transformers\n-------")
	assert.Contains(t, req, `Tool Call Suggested: [{"id":"c1","type":"function","function":{"name":"search_research_papers","arguments":"{\"topic\":\"transformers\"}"}}]`)
	assert.Contains(t, req, "From UserQueryProxy (tool):\nTool Response: {\"message\"")
}

func TestEvaluateModelError(t *testing.T) {
	m := &fakeModel{err: errors.New("rate limited")}
	res := New(m).Evaluate(context.Background(), "p", "f", sampleTranscript())
	require.False(t, res.OK())
	assert.Contains(t, res.Failure.Error, "rate limited")
	assert.Empty(t, res.Failure.OriginalRawResponse)
}

func TestFormatHistory(t *testing.T) {
	var tr types.Transcript
	tr.Append(types.Turn{Role: types.RoleRequester, Content: "hi"})
	tr.Append(types.Turn{Role: types.RoleAssistant, Name: "PaperSearchAssistant", Content: "hello"})
	assert.Equal(t, "From user (user):\nhi\n-------\nFrom PaperSearchAssistant (assistant):\nhello\n-------", FormatHistory(tr))
}
