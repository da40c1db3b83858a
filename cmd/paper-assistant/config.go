// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-assistant/internal/conversation"
	"github.com/pdiddy/paper-assistant/internal/evalsuite"
	"github.com/pdiddy/paper-assistant/internal/llm"
	"github.com/pdiddy/paper-assistant/internal/search"
	"github.com/pdiddy/paper-assistant/internal/secrets"
	"github.com/pdiddy/paper-assistant/internal/store"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

func setDefaults() {
	viper.SetDefault("search.base_url", search.DefaultBaseURL)
	viper.SetDefault("search.timeout", search.DefaultTimeout)
	viper.SetDefault("search.user_agent", "paper-assistant/"+version)
	viper.SetDefault("search.api_key", "")

	viper.SetDefault("llm.provider", llm.DefaultProvider)
	viper.SetDefault("llm.model", llm.DefaultModel)
	viper.SetDefault("llm.base_url", "")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.temperature", 0)
	viper.SetDefault("llm.seed", llm.DefaultSeed)
	viper.SetDefault("llm.max_tokens", 0)

	viper.SetDefault("conversation.max_auto_replies", conversation.DefaultMaxAutoReplies)
	viper.SetDefault("conversation.termination_marker", conversation.DefaultTerminationMarker)
	viper.SetDefault("conversation.auto_reply", conversation.DefaultAutoReply)

	viper.SetDefault("eval.output", evalsuite.DefaultOutput)
	viper.SetDefault("eval.db_path", "")
	viper.SetDefault("eval.metrics_file", "")
}

// loadConfig decodes the merged configuration and fills credentials from
// the loaded secrets.
func loadConfig() (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.LLM.APIKey = secrets.Resolve(loadedSecrets, secrets.LLMAPIKey, cfg.LLM.APIKey, secrets.LLMAPIKeyEnv)
	cfg.Search.APIKey = secrets.Resolve(loadedSecrets, secrets.SemanticScholarAPIKey, cfg.Search.APIKey, "")
	return cfg, nil
}

// newChatModel builds the configured model. A key-based provider without a
// credential is a startup error.
func newChatModel(ctx context.Context, cfg types.LLMConfig) (llm.ChatModel, error) {
	if cfg.NeedsAPIKey() && cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key for llm provider %q: write it to %s/%s or set %s",
			cfg.Provider, secrets.DefaultDir, secrets.LLMAPIKey, secrets.LLMAPIKeyEnv)
	}
	return llm.New(ctx, cfg)
}

func openStore(path string) (*store.Store, error) {
	if path == "" {
		path = store.DefaultPath
	}
	return store.NewStore(path)
}

// flagOrConfig returns the string flag name when set, else the config key.
func flagOrConfig(cmd *cobra.Command, name, key string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return viper.GetString(key)
}
