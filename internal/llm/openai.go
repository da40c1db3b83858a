// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/sashabaranov/go-openai"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// OpenAIModel talks to any OpenAI-compatible chat completions API. The
// default endpoint is Mistral's.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
	seed        int
	maxTokens   int
}

func init() {
	RegisterProvider("openai", func(_ context.Context, cfg types.LLMConfig) (ChatModel, error) {
		return NewOpenAIModel(cfg), nil
	})
	RegisterProvider("mistral", func(_ context.Context, cfg types.LLMConfig) (ChatModel, error) {
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultBaseURL
		}
		return NewOpenAIModel(cfg), nil
	})
}

// NewOpenAIModel builds an OpenAI-compatible model from cfg.
func NewOpenAIModel(cfg types.LLMConfig) *OpenAIModel {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	slog.Info("initializing openai-compatible client", "model", model, "base_url", oc.BaseURL)
	return &OpenAIModel{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		temperature: cfg.Temperature,
		seed:        cfg.Seed,
		maxTokens:   cfg.MaxTokens,
	}
}

// Chat implements ChatModel.
func (m *OpenAIModel) Chat(ctx context.Context, req Request) (Reply, error) {
	creq := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: openaiMessages(req),
		// A zero temperature is dropped by omitempty; the smallest float
		// keeps sampling deterministic.
		Temperature: m.temperature,
	}
	if creq.Temperature == 0 {
		creq.Temperature = math.SmallestNonzeroFloat32
	}
	seed := m.seed
	creq.Seed = &seed
	if m.maxTokens > 0 {
		creq.MaxTokens = m.maxTokens
	}
	for _, d := range req.Tools {
		creq.Tools = append(creq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}

	slog.Debug("openai chat request", "model", m.model, "messages", len(creq.Messages), "tools", len(creq.Tools))
	resp, err := m.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return Reply{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, errors.New("openai chat completion returned no choices")
	}

	msg := resp.Choices[0].Message
	reply := Reply{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, types.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	slog.Debug("openai chat reply", "finish_reason", resp.Choices[0].FinishReason, "tool_calls", len(reply.ToolCalls))
	return reply, nil
}

func openaiMessages(req Request) []openai.ChatCompletionMessage {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, t := range req.Turns {
		switch t.Role {
		case types.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: t.Content}
			for _, tc := range t.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			msgs = append(msgs, msg)
		case types.RoleTool:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    t.Content,
				Name:       t.ToolName,
				ToolCallID: t.ToolCallID,
			})
		default:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: t.Content})
		}
	}
	return msgs
}
