// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package critic grades a finished paper-search conversation with a second
// model call and turns the model's free-form reply into a rubric verdict.
package critic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/pdiddy/paper-assistant/internal/llm"
	"github.com/pdiddy/paper-assistant/internal/metrics"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = validator.New()

// Name is the critic's display name.
const Name = "PaperSearchCriticAgent"

// Failure messages.
const (
	errDecode     = "Failed to decode JSON from critic even after fixing"
	errModelCall  = "Critic model call failed"
	errValidation = "Critic verdict failed validation"
)

// Critic evaluates conversations with a chat model.
type Critic struct {
	Model llm.ChatModel
}

// New returns a critic backed by m.
func New(m llm.ChatModel) *Critic {
	return &Critic{Model: m}
}

// Evaluate scores the assistant's handling of prompt. It never returns an
// error: a failed model call or an unparseable reply yields a result whose
// Failure is set.
func (c *Critic) Evaluate(ctx context.Context, prompt, final string, t types.Transcript) types.CriticResult {
	result := c.evaluate(ctx, prompt, final, t)
	if result.OK() {
		metrics.CriticEvaluated("verdict")
	} else {
		metrics.CriticEvaluated("extraction_failure")
	}
	return result
}

func (c *Critic) evaluate(ctx context.Context, prompt, final string, t types.Transcript) types.CriticResult {
	request, err := renderRequest(prompt, final, t)
	if err != nil {
		return failure(err.Error(), "", "", "")
	}

	reply, err := c.Model.Chat(ctx, llm.Request{
		System: systemPrompt,
		Turns:  []types.Turn{{Role: types.RoleRequester, Name: "user", Content: request}},
	})
	if err != nil {
		slog.Warn("critic model call failed", "error", err)
		return failure(fmt.Sprintf("%s: %v", errModelCall, err), "", "", "")
	}

	slog.Debug("critic raw response", "content", reply.Content)
	return Extract(reply.Content)
}

// fencePattern matches a fenced code block with an optional language tag.
var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")

// StripFences returns the interior of the first fenced code block in s
// that holds a JSON object or array, else of the first fenced block, else s
// trimmed. An opening fence without a closing one is dropped.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if blocks := fencePattern.FindAllStringSubmatch(s, -1); blocks != nil {
		for _, m := range blocks {
			inner := strings.TrimSpace(m[1])
			if strings.HasPrefix(inner, "{") || strings.HasPrefix(inner, "[") {
				return inner
			}
		}
		return strings.TrimSpace(blocks[0][1])
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexAny(s, "\n{["); i >= 0 && s[i] == '\n' {
			s = s[i+1:]
		} else if i >= 0 {
			s = s[i:]
		}
	}
	return strings.TrimSpace(s)
}

// Extract turns a critic reply into a verdict. A reply that is already a
// JSON object is parsed as is; otherwise fences are stripped, then the text
// is parsed strictly, then repaired and parsed again. Verdicts with scores
// outside 1-5 are rejected.
func Extract(raw string) types.CriticResult {
	trimmed := strings.TrimSpace(raw)
	if v, err := parseVerdict(trimmed); err == nil {
		return verdictResult(v, raw, trimmed, "")
	}

	stripped := StripFences(raw)
	v, err := parseVerdict(stripped)
	if err == nil {
		return verdictResult(v, raw, stripped, "")
	}

	repaired := Repair(stripped)
	v, err = parseVerdict(repaired)
	if err != nil {
		slog.Warn("critic reply could not be parsed", "error", err)
		return failure(errDecode, raw, stripped, repaired)
	}
	return verdictResult(v, raw, stripped, repaired)
}

func verdictResult(v types.CriticVerdict, raw, stripped, repaired string) types.CriticResult {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		msg := err.Error()
		if errors.As(err, &verrs) {
			var parts []string
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s must be between 1 and 5, got %v", fe.Field(), fe.Value()))
			}
			msg = strings.Join(parts, "; ")
		}
		return failure(fmt.Sprintf("%s: %s", errValidation, msg), raw, stripped, repaired)
	}
	return types.CriticResult{Verdict: &v}
}

// parseVerdict decodes s, which must be a single JSON object.
func parseVerdict(s string) (types.CriticVerdict, error) {
	var v types.CriticVerdict
	if !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return v, errors.New("critic reply is not a JSON object")
	}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return v, err
	}
	return v, nil
}

func failure(msg, raw, stripped, repaired string) types.CriticResult {
	return types.CriticResult{Failure: &types.ExtractionFailure{
		Error:                    msg,
		OriginalRawResponse:      raw,
		MarkdownStrippedResponse: stripped,
		FixedAttemptResponse:     repaired,
	}}
}
