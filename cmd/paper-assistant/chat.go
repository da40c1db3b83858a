// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-assistant/internal/conversation"
	"github.com/pdiddy/paper-assistant/internal/metrics"
	"github.com/pdiddy/paper-assistant/internal/search"
	"github.com/pdiddy/paper-assistant/internal/tool"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat [request]",
	Short: "Ask the assistant for papers",
	Long: `Chat sends a paper request to the assistant, which calls the search tool
as needed and answers when it is done. Without --interactive the requester
replies automatically until the assistant ends its message with the
termination marker or the auto-reply cap is reached.

With --interactive each assistant message is answered from standard input;
a blank line or "exit" ends the conversation.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	interactive, _ := cmd.Flags().GetBool("interactive")
	stdin := bufio.NewReader(os.Stdin)

	task := strings.TrimSpace(strings.Join(args, " "))
	if task == "" {
		if !interactive {
			return fmt.Errorf("request required: pass it as arguments or use --interactive")
		}
		fmt.Fprint(os.Stdout, "Request: ")
		line, err := stdin.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading request: %w", err)
		}
		if task = strings.TrimSpace(line); task == "" {
			return fmt.Errorf("request required")
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	model, err := newChatModel(cmd.Context(), cfg.LLM)
	if err != nil {
		return err
	}

	var requester conversation.Requester
	if interactive {
		requester = conversation.NewLineRequester(stdin, os.Stdout)
	}
	tools := tool.NewRegistry(tool.NewSearchTool(search.NewClient(cfg.Search)))
	driver, err := conversation.NewDriver(model, tools, requester, cfg.Conversation)
	if err != nil {
		return err
	}
	driver.OnTurn = func(turn types.Turn) { printTurn(os.Stdout, turn) }

	transcript, runErr := driver.Run(cmd.Context(), task)

	fmt.Fprintf(os.Stdout, "\nFinal response:\n%s\n", conversation.FinalResponse(transcript))

	if path, _ := cmd.Flags().GetString("transcript"); path != "" {
		if err := writeTranscript(path, transcript); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Transcript written to %s\n", path)
	}
	if path := flagOrConfig(cmd, "metrics-file", "eval.metrics_file"); path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			return err
		}
	}
	return runErr
}

func printTurn(w io.Writer, turn types.Turn) {
	fmt.Fprintf(w, "\n%s (%s):\n", turn.Name, turn.Role)
	switch {
	case turn.HasToolCalls():
		if strings.TrimSpace(turn.Content) != "" {
			fmt.Fprintln(w, turn.Content)
		}
		for _, tc := range turn.ToolCalls {
			fmt.Fprintf(w, "-> %s(%s) [%s]\n", tc.Name, tc.Arguments, tc.ID)
		}
	case turn.Role == types.RoleTool:
		if r, err := search.ParsePayload(turn.Content); err == nil {
			fmt.Fprint(w, search.Describe(r))
		} else {
			fmt.Fprintln(w, turn.Content)
		}
	default:
		fmt.Fprintln(w, turn.Content)
	}
	fmt.Fprintln(w, strings.Repeat("-", 80))
}

// writeTranscript saves a transcript as JSON for a .json path and YAML
// otherwise.
func writeTranscript(path string, t types.Transcript) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(t, "", "  ")
	} else {
		data, err = yaml.Marshal(t)
	}
	if err != nil {
		return fmt.Errorf("marshaling transcript: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	chatCmd.Flags().Bool("interactive", false, "answer the assistant from standard input")
	chatCmd.Flags().Int("max-auto-replies", 0, "cap on automatic replies, tool results included (default from config)")
	chatCmd.Flags().String("transcript", "", "write the transcript to this file (.json or .yaml)")
	chatCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file after the chat")

	viper.BindPFlag("conversation.max_auto_replies", chatCmd.Flags().Lookup("max-auto-replies"))

	rootCmd.AddCommand(chatCmd)
}
