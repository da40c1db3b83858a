// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-assistant/internal/tool"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

func searchDefinition() tool.Definition {
	return tool.Definition{
		Name:        "search_research_papers",
		Description: "Searches for research papers.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"topic": map[string]any{"type": "string"}},
			"required":   []string{"topic"},
		},
	}
}

func sampleTurns() []types.Turn {
	return []types.Turn{
		{Role: types.RoleRequester, Name: "UserQueryProxy", Content: "Find papers on nlp"},
		{Role: types.RoleAssistant, Name: "PaperSearchAssistant", ToolCalls: []types.ToolCall{{ID: "call_1", Name: "search_research_papers", Arguments: `{"topic":"nlp"}`}}},
		{Role: types.RoleTool, Name: "UserQueryProxy", Content: `[]`, ToolCallID: "call_1", ToolName: "search_research_papers"},
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), types.LLMConfig{Provider: "hal9000", APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), types.LLMConfig{Provider: "openai"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires an API key")
}

func TestProvidersRegistered(t *testing.T) {
	assert.Equal(t, []string{"gemini", "mistral", "ollama", "openai"}, Providers())
}

func TestOpenAIChatToolCall(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "cmpl-1",
			"object": "chat.completion",
			"model": "open-mistral-nemo",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_9",
						"type": "function",
						"function": {"name": "search_research_papers", "arguments": "{\"topic\":\"transformer models in NLP\",\"year\":2021}"}
					}]
				}
			}]
		}`)
	}))
	defer ts.Close()

	m, err := New(context.Background(), types.LLMConfig{Provider: "openai", BaseURL: ts.URL, APIKey: "test-key", Seed: 42})
	require.NoError(t, err)

	reply, err := m.Chat(context.Background(), Request{
		System: "You are a helpful AI assistant.",
		Turns:  sampleTurns(),
		Tools:  []tool.Definition{searchDefinition()},
	})
	require.NoError(t, err)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "call_9", reply.ToolCalls[0].ID)
	assert.Equal(t, "search_research_papers", reply.ToolCalls[0].Name)
	assert.JSONEq(t, `{"topic":"transformer models in NLP","year":2021}`, reply.ToolCalls[0].Arguments)

	assert.Equal(t, DefaultModel, body["model"])
	assert.EqualValues(t, 42, body["seed"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[2].(map[string]any)["role"])
	toolMsg := msgs[3].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_1", toolMsg["tool_call_id"])
	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
}

func TestOpenAIChatError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer ts.Close()

	m := NewOpenAIModel(types.LLMConfig{BaseURL: ts.URL, APIKey: "nope"})
	_, err := m.Chat(context.Background(), Request{Turns: sampleTurns()[:1]})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai chat completion")
}

func TestOllamaChat(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"llama3.1","message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"search_research_papers","arguments":{"topic":"graph neural networks"}}}]},"done":true}`)
	}))
	defer ts.Close()

	m, err := New(context.Background(), types.LLMConfig{Provider: "ollama", Model: "llama3.1", BaseURL: ts.URL})
	require.NoError(t, err)

	reply, err := m.Chat(context.Background(), Request{
		System: "system prompt",
		Turns:  sampleTurns(),
		Tools:  []tool.Definition{searchDefinition()},
	})
	require.NoError(t, err)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "search_research_papers", reply.ToolCalls[0].Name)
	assert.Equal(t, "call_0", reply.ToolCalls[0].ID)
	assert.JSONEq(t, `{"topic":"graph neural networks"}`, reply.ToolCalls[0].Arguments)

	assert.Equal(t, false, body["stream"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, "tool", msgs[3].(map[string]any)["role"])
}

func TestArgumentHelpers(t *testing.T) {
	assert.Equal(t, map[string]any{}, decodeArguments(""))
	assert.Equal(t, map[string]any{}, decodeArguments("{broken"))
	assert.Equal(t, map[string]any{"topic": "nlp"}, decodeArguments(`{"topic":"nlp"}`))
	assert.Equal(t, "{}", encodeArguments(nil))
	assert.JSONEq(t, `{"limit":3}`, encodeArguments(map[string]any{"limit": 3}))
}

func TestGeminiContents(t *testing.T) {
	contents := geminiContents(sampleTurns())
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	assert.Equal(t, "nlp", contents[1].Parts[0].FunctionCall.Args["topic"])
	assert.Equal(t, "user", contents[2].Role)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, "search_research_papers", contents[2].Parts[0].FunctionResponse.Name)
}
