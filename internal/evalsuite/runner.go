// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evalsuite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paper-assistant/internal/conversation"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

// DefaultOutput is the results file used when none is configured.
const DefaultOutput = "evaluation_results.jsonl"

// noHistory is recorded as the critic evaluation of an empty transcript.
const noHistory = "No conversation history available for critic."

// Driver runs one task to completion.
type Driver interface {
	Run(ctx context.Context, task string) (types.Transcript, error)
}

// Evaluator grades a finished conversation.
type Evaluator interface {
	Evaluate(ctx context.Context, prompt, final string, t types.Transcript) types.CriticResult
}

// Recorder persists run history. *store.Store satisfies it.
type Recorder interface {
	BeginRun(ctx context.Context, model string, promptCount int) (string, error)
	RecordResult(ctx context.Context, runID string, rec types.EvalRecord) error
	FinishRun(ctx context.Context, runID string) error
}

// Runner executes a prompt selection.
type Runner struct {
	Driver Driver
	Critic Evaluator

	// Output is the JSONL results file. It is truncated when a run starts.
	Output string

	// Store is optional.
	Store Recorder

	// Model is recorded with the run in Store.
	Model string
}

// Run processes prompts in order, appending one JSON line per prompt to
// Output as soon as the prompt finishes. A prompt whose conversation fails
// is recorded with its error and the run continues. Progress is written to
// w.
func (r *Runner) Run(ctx context.Context, prompts []Prompt, w io.Writer) (Summary, error) {
	output := r.Output
	if output == "" {
		output = DefaultOutput
	}
	if err := truncate(output); err != nil {
		return Summary{}, err
	}

	var runID string
	if r.Store != nil {
		id, err := r.Store.BeginRun(ctx, r.Model, len(prompts))
		if err != nil {
			return Summary{}, fmt.Errorf("recording run: %w", err)
		}
		runID = id
	}

	fmt.Fprintf(w, "running %d prompts\n", len(prompts))

	summary := Summary{RunID: runID, Output: output}
	for i, p := range prompts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		fmt.Fprintf(w, "\n[%d/%d] prompt %d: %s\n", i+1, len(prompts), p.ID, p.Text)
		rec := r.runPrompt(ctx, i+1, p, w)
		summary.add(rec)

		if err := appendRecord(output, rec); err != nil {
			return summary, err
		}
		if r.Store != nil {
			if err := r.Store.RecordResult(ctx, runID, rec); err != nil {
				slog.Warn("recording result failed", "run", runID, "prompt", p.ID, "error", err)
			}
		}
	}

	if r.Store != nil {
		if err := r.Store.FinishRun(ctx, runID); err != nil {
			slog.Warn("finishing run failed", "run", runID, "error", err)
		}
	}

	fmt.Fprintf(w, "\nresults written to %s\n", output)
	return summary, nil
}

func (r *Runner) runPrompt(ctx context.Context, idInRun int, p Prompt, w io.Writer) types.EvalRecord {
	rec := types.EvalRecord{
		PromptIDInRun:   idInRun,
		OverallPromptID: p.ID,
		UserPrompt:      p.Text,
	}

	transcript, err := r.Driver.Run(ctx, p.Text)
	if err != nil {
		slog.Error("conversation failed", "prompt", p.ID, "error", err)
		fmt.Fprintf(w, "error: %v\n", err)
		rec.ErrorDuringProcessing = err.Error()
		return rec
	}

	rec.AgentFinalResponse = conversation.FinalResponse(transcript)
	fmt.Fprintf(w, "final response:\n%s\n", indent(rec.AgentFinalResponse))

	var result types.CriticResult
	if transcript.Len() == 0 {
		slog.Warn("no conversation history recorded, skipping critic", "prompt", p.ID)
		result = types.CriticResult{Failure: &types.ExtractionFailure{Error: noHistory}}
	} else {
		result = r.Critic.Evaluate(ctx, p.Text, rec.AgentFinalResponse, transcript)
	}
	rec.CriticEvaluation = &result

	if result.OK() {
		fmt.Fprintf(w, "critic: %s\n", scoreLine(*result.Verdict))
	} else {
		fmt.Fprintf(w, "critic failed: %s\n", result.Failure.Error)
	}
	return rec
}

func truncate(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("truncating results file: %w", err)
	}
	return f.Close()
}

func appendRecord(path string, rec types.EvalRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling result for prompt %d: %w", rec.OverallPromptID, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening results file: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("appending result for prompt %d: %w", rec.OverallPromptID, err)
	}
	return f.Close()
}

func scoreLine(v types.CriticVerdict) string {
	parts := make([]string, len(types.Criteria))
	for i, c := range types.Criteria {
		parts[i] = fmt.Sprintf("%s=%d", strings.TrimSuffix(string(c), "_score"), v.Score(c))
	}
	return strings.Join(parts, " ")
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
