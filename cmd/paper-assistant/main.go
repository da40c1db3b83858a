// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-assistant CLI: one-shot paper
// searches, tool-using chat sessions, and the graded evaluation suite.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-assistant/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the paper-assistant CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-assistant",
	Short: "Find research papers through a tool-using chat assistant",
	Long: `paper-assistant answers research paper requests with a chat model that
calls a Semantic Scholar search tool. It can run a single search directly,
hold a conversation with the assistant, or run the evaluation suite in which
a critic model grades the assistant's answers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}

		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", secrets.Names(s))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-assistant.yaml or ~/.config/paper-assistant/paper-assistant.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "diagnostic log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("provider", "", "chat model provider (openai, mistral, ollama, gemini)")
	rootCmd.PersistentFlags().String("model", "", "chat model name")

	viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("provider"))
	viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("model"))
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-assistant")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-assistant"))
		}
	}

	viper.SetEnvPrefix("PAPER_ASSISTANT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging(cmd *cobra.Command) error {
	name, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("invalid --log-level %q: use debug, info, warn, or error", name)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
