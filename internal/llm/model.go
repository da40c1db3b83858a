// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm adapts chat model providers to a single turn-based interface.
// Providers register a factory under their name; New selects one from the
// configured provider.
package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/pdiddy/paper-assistant/internal/tool"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Provider defaults.
const (
	DefaultProvider = "openai"
	DefaultBaseURL  = "https://api.mistral.ai/v1"
	DefaultModel    = "open-mistral-nemo"
	DefaultSeed     = 42
)

// Request is one model call: a system prompt, the conversation so far, and
// the tools the model may call.
type Request struct {
	System string
	Turns  []types.Turn
	Tools  []tool.Definition
}

// Reply is the model's next assistant message.
type Reply struct {
	Content   string
	ToolCalls []types.ToolCall
}

// ChatModel produces the next assistant message for a conversation.
type ChatModel interface {
	Chat(ctx context.Context, req Request) (Reply, error)
}

// Factory builds a ChatModel from configuration.
type Factory func(ctx context.Context, cfg types.LLMConfig) (ChatModel, error)

var providers = map[string]Factory{}

// RegisterProvider makes a provider available to New.
func RegisterProvider(name string, f Factory) {
	providers[name] = f
}

// Providers lists the registered provider names.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the ChatModel for cfg.Provider (DefaultProvider when empty).
func New(ctx context.Context, cfg types.LLMConfig) (ChatModel, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		name = DefaultProvider
	}
	f, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q (available: %s)", cfg.Provider, strings.Join(Providers(), ", "))
	}
	cfg.Provider = name
	if cfg.NeedsAPIKey() && cfg.APIKey == "" {
		return nil, fmt.Errorf("llm provider %q requires an API key", name)
	}
	return f(ctx, cfg)
}

// toolSchemas renders definitions in the OpenAI function-tool shape, which
// is also what the ollama API accepts.
func toolSchemas(defs []tool.Definition) []map[string]any {
	out := make([]map[string]any, 0, len(defs))
	for _, d := range defs {
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        d.Name,
				"description": d.Description,
				"parameters":  d.Parameters,
			},
		})
	}
	return out
}

// decodeArguments parses raw tool-call arguments, yielding an empty map for
// blank or malformed input.
func decodeArguments(raw string) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}

// encodeArguments marshals provider-native arguments back to a JSON string.
func encodeArguments(v any) string {
	if v == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
