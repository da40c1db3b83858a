// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// OllamaModel talks to a local or remote Ollama server.
type OllamaModel struct {
	client  *api.Client
	model   string
	options map[string]any
}

func init() {
	RegisterProvider("ollama", func(_ context.Context, cfg types.LLMConfig) (ChatModel, error) {
		return NewOllamaModel(cfg, nil)
	})
}

// NewOllamaModel builds an Ollama model from cfg. An empty BaseURL falls
// back to OLLAMA_HOST and the client default.
func NewOllamaModel(cfg types.LLMConfig, httpClient *http.Client) (*OllamaModel, error) {
	var client *api.Client
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama base URL: %w", err)
		}
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		client = api.NewClient(u, httpClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("creating ollama client: %w", err)
		}
	}

	options := map[string]any{
		"temperature": cfg.Temperature,
		"seed":        cfg.Seed,
	}
	if cfg.MaxTokens > 0 {
		options["num_predict"] = cfg.MaxTokens
	}

	slog.Info("ollama client initialized", "model", cfg.Model, "base_url", cfg.BaseURL)
	return &OllamaModel{client: client, model: cfg.Model, options: options}, nil
}

// Chat implements ChatModel with a single non-streaming request.
func (m *OllamaModel) Chat(ctx context.Context, req Request) (Reply, error) {
	var tools api.Tools
	if len(req.Tools) > 0 {
		raw, err := json.Marshal(toolSchemas(req.Tools))
		if err != nil {
			return Reply{}, fmt.Errorf("encoding tools: %w", err)
		}
		if err := json.Unmarshal(raw, &tools); err != nil {
			return Reply{}, fmt.Errorf("converting tools: %w", err)
		}
	}

	msgs, err := ollamaMessages(req)
	if err != nil {
		return Reply{}, err
	}

	stream := false
	creq := &api.ChatRequest{
		Model:    m.model,
		Messages: msgs,
		Tools:    tools,
		Stream:   &stream,
		Options:  m.options,
	}

	var reply Reply
	err = m.client.Chat(ctx, creq, func(resp api.ChatResponse) error {
		reply.Content += resp.Message.Content
		for i, tc := range resp.Message.ToolCalls {
			id := tc.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", len(reply.ToolCalls)+i)
			}
			reply.ToolCalls = append(reply.ToolCalls, types.ToolCall{
				ID:        id,
				Name:      tc.Function.Name,
				Arguments: encodeArguments(tc.Function.Arguments),
			})
		}
		return nil
	})
	if err != nil {
		return Reply{}, fmt.Errorf("ollama chat: %w", err)
	}
	slog.Debug("ollama chat reply", "model", m.model, "tool_calls", len(reply.ToolCalls))
	return reply, nil
}

func ollamaMessages(req Request) ([]api.Message, error) {
	var msgs []api.Message
	if req.System != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: req.System})
	}
	for _, t := range req.Turns {
		switch t.Role {
		case types.RoleAssistant:
			msg := api.Message{Role: "assistant", Content: t.Content}
			for _, tc := range t.ToolCalls {
				var args api.ToolCallFunctionArguments
				raw, err := json.Marshal(decodeArguments(tc.Arguments))
				if err != nil {
					return nil, fmt.Errorf("encoding tool arguments: %w", err)
				}
				if err := json.Unmarshal(raw, &args); err != nil {
					return nil, fmt.Errorf("converting tool arguments: %w", err)
				}
				msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
					ID: tc.ID,
					Function: api.ToolCallFunction{
						Name:      tc.Name,
						Arguments: args,
					},
				})
			}
			msgs = append(msgs, msg)
		case types.RoleTool:
			msgs = append(msgs, api.Message{
				Role:       "tool",
				Content:    t.Content,
				ToolName:   t.ToolName,
				ToolCallID: t.ToolCallID,
			})
		default:
			msgs = append(msgs, api.Message{Role: "user", Content: t.Content})
		}
	}
	return msgs, nil
}
