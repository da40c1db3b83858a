// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool exposes capabilities the assistant may invoke during a
// conversation. Every invocation is synchronous and always yields a single
// string payload, never a Go error.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/pdiddy/paper-assistant/internal/metrics"
)

// Definition is the metadata handed to chat model adapters: a name, a
// description, and a JSON Schema object describing the arguments.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Tool is a capability callable by the assistant.
type Tool interface {
	Definition() Definition
	// Invoke runs the tool with raw JSON arguments and returns its payload.
	Invoke(ctx context.Context, arguments string) string
}

// Registry maps tool names to implementations.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns a registry holding tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Definition().Name] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the definitions of all registered tools sorted by name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Invoke runs the named tool. Unknown names yield an error payload.
func (r *Registry) Invoke(ctx context.Context, name, arguments string) string {
	t, ok := r.Get(name)
	if !ok {
		return ErrorPayload(fmt.Sprintf("Unknown tool %q.", name))
	}
	metrics.ToolInvoked(name)
	return t.Invoke(ctx, arguments)
}

// ErrorPayload encodes msg as an {"error": msg} payload.
func ErrorPayload(msg string) string {
	data, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error": "encoding error payload"}`
	}
	return string(data)
}
