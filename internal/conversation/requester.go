// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package conversation

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// DefaultAutoReply is sent when the assistant replies without calling a tool
// or finishing.
const DefaultAutoReply = "Please continue. Reply TERMINATE when the task is fully complete."

// Requester produces the next requester message after a plain assistant
// reply. ok is false when the requester ends the conversation.
type Requester interface {
	Reply(ctx context.Context, last types.Turn) (msg string, ok bool, err error)
}

// AutoRequester always answers with the same text.
type AutoRequester struct {
	Text string
}

// Reply implements Requester.
func (a AutoRequester) Reply(_ context.Context, _ types.Turn) (string, bool, error) {
	if a.Text == "" {
		return DefaultAutoReply, true, nil
	}
	return a.Text, true, nil
}

// LineRequester reads replies from a line-oriented input such as a terminal.
// A blank line, "exit", or end of input stops the conversation.
type LineRequester struct {
	scanner *bufio.Scanner
	prompt  io.Writer
}

// NewLineRequester reads from in and writes a "> " prompt to prompt (which
// may be nil).
func NewLineRequester(in io.Reader, prompt io.Writer) *LineRequester {
	return &LineRequester{scanner: bufio.NewScanner(in), prompt: prompt}
}

// Reply implements Requester.
func (l *LineRequester) Reply(ctx context.Context, _ types.Turn) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if l.prompt != nil {
		fmt.Fprint(l.prompt, "> ")
	}
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", false, fmt.Errorf("reading reply: %w", err)
		}
		return "", false, nil
	}
	line := strings.TrimSpace(l.scanner.Text())
	if line == "" || strings.EqualFold(line, "exit") {
		return "", false, nil
	}
	return line, true, nil
}
