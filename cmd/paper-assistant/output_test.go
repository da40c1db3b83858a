// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

func TestFormatSearchOutputTable(t *testing.T) {
	year := 2023
	result := types.PapersResult([]types.PaperRecord{
		{Title: strings.Repeat("Graph ", 12), Authors: "A. One, B. Two", Year: &year, CitationCount: 120},
		{Title: "Untimed", CitationCount: 51},
	})

	var buf bytes.Buffer
	require.NoError(t, formatSearchOutput(&buf, result, false))
	out := buf.String()
	assert.Contains(t, out, "Rank  Title")
	assert.Contains(t, out, strings.Repeat("-", 110))
	assert.Contains(t, out, "...  2023  120")
	assert.Contains(t, out, "Untimed")
	assert.Contains(t, out, "\n2 results\n")
}

func TestFormatSearchOutputSentences(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatSearchOutput(&buf, types.NoResults(), false))
	assert.Equal(t, "No papers found matching your criteria.\n", buf.String())

	buf.Reset()
	require.NoError(t, formatSearchOutput(&buf, types.ErrorResult("Topic cannot be empty.", ""), false))
	assert.Contains(t, buf.String(), "Topic cannot be empty.")

	buf.Reset()
	require.NoError(t, formatSearchOutput(&buf, types.NoResults(), true))
	assert.JSONEq(t, `{"message":"No papers found matching your criteria."}`, buf.String())
}

func TestOutcome(t *testing.T) {
	verdict := &types.CriticResult{Verdict: &types.CriticVerdict{
		CompletenessScore: 5, QualityAccuracyScore: 4, RobustnessScore: 3, ToolUsageScore: 2, EfficiencyConcisenessScore: 1,
	}}
	assert.Equal(t, "5 4 3 2 1", outcome(types.EvalRecord{CriticEvaluation: verdict}))
	assert.Equal(t, "error: boom", outcome(types.EvalRecord{ErrorDuringProcessing: "boom"}))
	assert.Equal(t, "critic failed", outcome(types.EvalRecord{CriticEvaluation: &types.CriticResult{Failure: &types.ExtractionFailure{Error: "x"}}}))
	assert.Equal(t, "-", outcome(types.EvalRecord{}))
}

func TestWriteTranscript(t *testing.T) {
	var tr types.Transcript
	tr.Append(types.Turn{Role: types.RoleRequester, Name: "UserQueryProxy", Content: "papers on rl"})
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "t.json")
	require.NoError(t, writeTranscript(jsonPath, tr))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content": "papers on rl"`)

	yamlPath := filepath.Join(dir, "t.yaml")
	require.NoError(t, writeTranscript(yamlPath, tr))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "content: papers on rl")
}
