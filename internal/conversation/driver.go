// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/paper-assistant/internal/llm"
	"github.com/pdiddy/paper-assistant/internal/tool"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

// Defaults for Driver settings.
const (
	DefaultMaxAutoReplies    = 10
	DefaultTerminationMarker = "TERMINATE"
)

// Driver runs conversations between a requester and the assistant model.
type Driver struct {
	Model     llm.ChatModel
	Tools     *tool.Registry
	Requester Requester

	// System is the assistant system prompt.
	System string

	// MaxAutoReplies caps requester messages and tool-result injections.
	MaxAutoReplies int

	// TerminationMarker ends the conversation when an assistant message
	// ends with it (after trimming trailing whitespace).
	TerminationMarker string

	// OnTurn, when set, observes each turn as it is appended.
	OnTurn func(types.Turn)
}

// NewDriver builds a driver from cfg. An empty system prompt is rendered
// from the registry's search tool.
func NewDriver(model llm.ChatModel, tools *tool.Registry, requester Requester, cfg types.ConversationConfig) (*Driver, error) {
	d := &Driver{
		Model:             model,
		Tools:             tools,
		Requester:         requester,
		MaxAutoReplies:    cfg.MaxAutoReplies,
		TerminationMarker: cfg.TerminationMarker,
	}
	if d.MaxAutoReplies <= 0 {
		d.MaxAutoReplies = DefaultMaxAutoReplies
	}
	if d.TerminationMarker == "" {
		d.TerminationMarker = DefaultTerminationMarker
	}
	if d.Requester == nil {
		d.Requester = AutoRequester{Text: cfg.AutoReply}
	}

	if tools == nil {
		return d, nil
	}
	if t, ok := tools.Get(tool.SearchToolName); ok {
		prompt, err := AssistantPrompt(t.Definition(), d.TerminationMarker)
		if err != nil {
			return nil, err
		}
		d.System = prompt
	}
	return d, nil
}

// Run drives one conversation for task and returns its transcript. A model
// failure aborts the run; the partial transcript is returned with the error.
func (d *Driver) Run(ctx context.Context, task string) (types.Transcript, error) {
	conv := New(task)
	d.observe(conv)

	var defs []tool.Definition
	if d.Tools != nil {
		defs = d.Tools.Definitions()
	}

	autoReplies := 0
	for conv.State() != Terminated {
		reply, err := d.Model.Chat(ctx, llm.Request{System: d.System, Turns: conv.Transcript().Turns, Tools: defs})
		if err != nil {
			conv.Terminate()
			return conv.Transcript(), fmt.Errorf("assistant turn %d: %w", conv.Transcript().Len(), err)
		}

		if _, err := conv.Append(types.Turn{
			Role:      types.RoleAssistant,
			Name:      AssistantName,
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		}); err != nil {
			return conv.Transcript(), err
		}
		d.observe(conv)

		if d.isTermination(reply.Content) {
			slog.Debug("termination marker received")
			conv.Terminate()
			break
		}
		if autoReplies >= d.MaxAutoReplies {
			slog.Info("auto-reply limit reached", "limit", d.MaxAutoReplies)
			conv.Terminate()
			break
		}

		if conv.State() == AwaitingToolResult {
			for _, call := range reply.ToolCalls {
				payload := d.invoke(ctx, call)
				if _, err := conv.Append(types.Turn{
					Role:       types.RoleTool,
					Name:       RequesterName,
					Content:    payload,
					ToolCallID: call.ID,
					ToolName:   call.Name,
				}); err != nil {
					return conv.Transcript(), err
				}
				d.observe(conv)
			}
			autoReplies++
			continue
		}

		last, _ := conv.Transcript().Last()
		msg, ok, err := d.Requester.Reply(ctx, last)
		if err != nil {
			conv.Terminate()
			return conv.Transcript(), fmt.Errorf("requester reply: %w", err)
		}
		if !ok {
			conv.Terminate()
			break
		}
		if _, err := conv.Append(types.Turn{Role: types.RoleRequester, Name: RequesterName, Content: msg}); err != nil {
			return conv.Transcript(), err
		}
		d.observe(conv)
		autoReplies++
	}

	return conv.Transcript(), nil
}

func (d *Driver) invoke(ctx context.Context, call types.ToolCall) string {
	if d.Tools == nil {
		return tool.ErrorPayload(fmt.Sprintf("Unknown tool %q.", call.Name))
	}
	slog.Debug("invoking tool", "tool", call.Name, "arguments", call.Arguments)
	return d.Tools.Invoke(ctx, call.Name, call.Arguments)
}

func (d *Driver) isTermination(content string) bool {
	return strings.HasSuffix(strings.TrimRight(content, " \t\r\n"), d.TerminationMarker)
}

func (d *Driver) observe(c *Conversation) {
	if d.OnTurn == nil {
		return
	}
	if t, ok := c.Transcript().Last(); ok {
		d.OnTurn(t)
	}
}
