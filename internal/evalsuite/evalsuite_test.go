// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evalsuite

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-assistant/internal/store"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

type fakeDriver struct {
	fail  map[string]error
	empty map[string]bool
	tasks []string
}

func (d *fakeDriver) Run(_ context.Context, task string) (types.Transcript, error) {
	d.tasks = append(d.tasks, task)
	var tr types.Transcript
	if d.empty[task] {
		return tr, nil
	}
	tr.Append(types.Turn{Role: types.RoleRequester, Content: task})
	if err := d.fail[task]; err != nil {
		return tr, err
	}
	tr.Append(types.Turn{Role: types.RoleAssistant, Content: "answer to " + task + " TERMINATE"})
	return tr, nil
}

type fakeCritic struct {
	scores map[string]int
	calls  int
}

func (c *fakeCritic) Evaluate(_ context.Context, prompt, _ string, _ types.Transcript) types.CriticResult {
	c.calls++
	score, ok := c.scores[prompt]
	if !ok {
		return types.CriticResult{Failure: &types.ExtractionFailure{Error: "Failed to decode JSON from critic even after fixing", OriginalRawResponse: "??"}}
	}
	return types.CriticResult{Verdict: &types.CriticVerdict{
		CompletenessScore:          score,
		QualityAccuracyScore:       score,
		RobustnessScore:            score,
		ToolUsageScore:             score,
		EfficiencyConcisenessScore: score,
	}}
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), sc.Text())
		lines = append(lines, m)
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestBuiltinPrompts(t *testing.T) {
	prompts := BuiltinPrompts()
	require.Len(t, prompts, 8)
	for i, p := range prompts {
		assert.Equal(t, i+1, p.ID)
		assert.NotEmpty(t, p.Text)
	}
	assert.Equal(t, "I need some recent papers on reinforcement learning.", prompts[2].Text)
	assert.Equal(t, "Search for papers on '' with 10 citations.", prompts[6].Text)
}

func TestSelect(t *testing.T) {
	prompts := BuiltinPrompts()

	all, err := Select(prompts, nil)
	require.NoError(t, err)
	assert.Len(t, all, 8)

	some, err := Select(prompts, []int{6, 3})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, 6, some[0].ID)
	assert.Equal(t, 3, some[1].ID)

	_, err = Select(prompts, []int{9})
	assert.ErrorContains(t, err, "no prompt with id 9")
}

func TestLoadSuite(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantIDs []int
		errMsg  string
	}{
		{
			name:    "explicit and positional ids",
			content: "prompts:\n  - id: 10\n    text: first\n  - text: second\n",
			wantIDs: []int{10, 2},
		},
		{name: "empty suite", content: "prompts: []\n", errMsg: "has no prompts"},
		{name: "duplicate ids", content: "prompts:\n  - id: 1\n    text: a\n  - id: 1\n    text: b\n", errMsg: "duplicate prompt id 1"},
		{name: "bad yaml", content: "prompts: [\n", errMsg: "parsing suite file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "suite.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			prompts, err := LoadSuite(path)
			if tt.errMsg != "" {
				assert.ErrorContains(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)
			var ids []int
			for _, p := range prompts {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	_, err := LoadSuite(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading suite file")
}

func TestRunWritesOneLinePerPrompt(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out", "results.jsonl")
	require.NoError(t, os.MkdirAll(filepath.Dir(output), 0o755))
	require.NoError(t, os.WriteFile(output, []byte("stale line\n"), 0o644))

	prompts := []Prompt{{ID: 3, Text: "good"}, {ID: 5, Text: "broken"}, {ID: 7, Text: "garbled"}, {ID: 8, Text: "better"}}
	driver := &fakeDriver{fail: map[string]error{"broken": errors.New("model unavailable")}}
	critic := &fakeCritic{scores: map[string]int{"good": 3, "better": 5}}
	r := &Runner{Driver: driver, Critic: critic, Output: output}

	var progress bytes.Buffer
	summary, err := r.Run(context.Background(), prompts, &progress)
	require.NoError(t, err)

	lines := readLines(t, output)
	require.Len(t, lines, 4)

	assert.EqualValues(t, 1, lines[0]["prompt_id_in_run"])
	assert.EqualValues(t, 3, lines[0]["overall_prompt_id"])
	assert.Equal(t, "good", lines[0]["user_prompt"])
	assert.Equal(t, "answer to good TERMINATE", lines[0]["agent_final_response"])
	assert.EqualValues(t, 3, lines[0]["critic_evaluation"].(map[string]any)["completeness_score"])

	assert.EqualValues(t, 2, lines[1]["prompt_id_in_run"])
	assert.Equal(t, "model unavailable", lines[1]["error_during_processing"])
	assert.NotContains(t, lines[1], "critic_evaluation")

	failure := lines[2]["critic_evaluation"].(map[string]any)
	assert.Equal(t, "Failed to decode JSON from critic even after fixing", failure["error"])

	assert.Equal(t, 3, critic.calls)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Evaluated)
	assert.Equal(t, 1, summary.ExtractionFailures)
	assert.Equal(t, 1, summary.Errors)
	avg, ok := summary.Average(types.CriterionToolUsage)
	require.True(t, ok)
	assert.InDelta(t, 4.0, avg, 1e-9)

	assert.Contains(t, progress.String(), "[2/4] prompt 5: broken")
	assert.Contains(t, progress.String(), "error: model unavailable")
}

func TestRunEmptyTranscriptSkipsCritic(t *testing.T) {
	output := filepath.Join(t.TempDir(), "results.jsonl")
	driver := &fakeDriver{empty: map[string]bool{"silent": true}}
	critic := &fakeCritic{}
	r := &Runner{Driver: driver, Critic: critic, Output: output}

	_, err := r.Run(context.Background(), []Prompt{{ID: 1, Text: "silent"}}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, critic.calls)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"critic_evaluation":{"error":"No conversation history available for critic."}`)
	assert.Contains(t, string(data), `"agent_final_response":"No final response from the assistant was found."`)
}

func TestRunStopsOnCancel(t *testing.T) {
	output := filepath.Join(t.TempDir(), "results.jsonl")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := &fakeDriver{}
	r := &Runner{Driver: driver, Critic: &fakeCritic{}, Output: output}
	_, err := r.Run(ctx, BuiltinPrompts(), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, driver.tasks)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestRunRecordsToStore(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewStore(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer s.Close()

	r := &Runner{
		Driver: &fakeDriver{},
		Critic: &fakeCritic{scores: map[string]int{"a": 2, "b": 4}},
		Output: filepath.Join(dir, "results.jsonl"),
		Store:  s,
		Model:  "open-mistral-nemo",
	}
	summary, err := r.Run(context.Background(), []Prompt{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}, &bytes.Buffer{})
	require.NoError(t, err)
	require.NotEmpty(t, summary.RunID)

	ctx := context.Background()
	run, err := s.GetRun(ctx, summary.RunID)
	require.NoError(t, err)
	assert.True(t, run.Finished())
	assert.Equal(t, 2, run.ResultCount)
	assert.Equal(t, "open-mistral-nemo", run.Model)

	avgs, n, err := s.Averages(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for c, v := range summary.Averages() {
		assert.InDelta(t, v, avgs[c], 1e-9, string(c))
	}
}

func TestSummaryPrint(t *testing.T) {
	var s Summary
	s.add(types.EvalRecord{CriticEvaluation: &types.CriticResult{Verdict: &types.CriticVerdict{
		CompletenessScore: 4, QualityAccuracyScore: 3, RobustnessScore: 5, ToolUsageScore: 2, EfficiencyConcisenessScore: 1,
	}}})
	s.add(types.EvalRecord{ErrorDuringProcessing: "x"})

	var buf bytes.Buffer
	s.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "CRITERION")
	assert.Contains(t, out, strings.Repeat("-", 40))
	assert.Contains(t, out, "completeness_score              4.00")
	assert.Contains(t, out, "efficiency_conciseness_score    1.00")
	assert.Contains(t, out, "prompts: 2, evaluated: 1, critic failures: 0, errors: 1")

	buf.Reset()
	Summary{Total: 1, Errors: 1}.Print(&buf)
	assert.Contains(t, buf.String(), "No successful evaluations to summarize.")
}
