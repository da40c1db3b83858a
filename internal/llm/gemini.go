// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// GeminiModel talks to the Gemini API through function declarations.
type GeminiModel struct {
	client      *genai.Client
	model       string
	temperature float32
	seed        int32
	maxTokens   int32
}

func init() {
	RegisterProvider("gemini", func(ctx context.Context, cfg types.LLMConfig) (ChatModel, error) {
		return NewGeminiModel(ctx, cfg)
	})
}

// NewGeminiModel builds a Gemini model from cfg.
func NewGeminiModel(ctx context.Context, cfg types.LLMConfig) (*GeminiModel, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	slog.Info("gemini client initialized", "model", cfg.Model)
	return &GeminiModel{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		seed:        int32(cfg.Seed),
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

// Chat implements ChatModel.
func (m *GeminiModel) Chat(ctx context.Context, req Request) (Reply, error) {
	temperature := m.temperature
	seed := m.seed
	gcfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
		Seed:        &seed,
	}
	if m.maxTokens > 0 {
		gcfg.MaxOutputTokens = m.maxTokens
	}
	if req.System != "" {
		gcfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	if len(req.Tools) > 0 {
		var fds []*genai.FunctionDeclaration
		for _, d := range req.Tools {
			fd := &genai.FunctionDeclaration{Name: d.Name, Description: d.Description}
			if d.Parameters != nil {
				raw, err := json.Marshal(d.Parameters)
				if err != nil {
					return Reply{}, fmt.Errorf("encoding tool schema: %w", err)
				}
				var schema genai.Schema
				if err := json.Unmarshal(raw, &schema); err != nil {
					return Reply{}, fmt.Errorf("converting tool schema: %w", err)
				}
				fd.Parameters = &schema
			}
			fds = append(fds, fd)
		}
		gcfg.Tools = []*genai.Tool{{FunctionDeclarations: fds}}
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, geminiContents(req.Turns), gcfg)
	if err != nil {
		return Reply{}, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Reply{}, fmt.Errorf("gemini returned no candidates")
	}

	var reply Reply
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			reply.Content += part.Text
		}
		if fc := part.FunctionCall; fc != nil {
			id := fc.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", len(reply.ToolCalls))
			}
			reply.ToolCalls = append(reply.ToolCalls, types.ToolCall{
				ID:        id,
				Name:      fc.Name,
				Arguments: encodeArguments(fc.Args),
			})
		}
	}
	slog.Debug("gemini chat reply", "model", m.model, "finish_reason", resp.Candidates[0].FinishReason, "tool_calls", len(reply.ToolCalls))
	return reply, nil
}

// geminiContents maps turns onto Gemini roles: requester and tool turns are
// "user", assistant turns are "model".
func geminiContents(turns []types.Turn) []*genai.Content {
	var contents []*genai.Content
	for _, t := range turns {
		switch t.Role {
		case types.RoleAssistant:
			var parts []*genai.Part
			if t.Content != "" {
				parts = append(parts, &genai.Part{Text: t.Content})
			}
			for _, tc := range t.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Name,
					Args: decodeArguments(tc.Arguments),
				}})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		case types.RoleTool:
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
					ID:       t.ToolCallID,
					Name:     t.ToolName,
					Response: map[string]any{"result": t.Content},
				}}},
			})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: t.Content}}})
		}
	}
	return contents
}
