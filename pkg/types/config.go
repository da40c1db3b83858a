package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single HTTP request (one search page), not a whole search.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the paper search client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the bulk paper search endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is an optional Semantic Scholar API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// LLMConfig holds settings for the chat model used by the assistant and critic.
type LLMConfig struct {
	// Provider selects the adapter: "openai" (any OpenAI-compatible API,
	// including Mistral), "ollama", or "gemini".
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "open-mistral-nemo").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey is the provider credential. Loaded once at startup.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Temperature is the sampling temperature (default 0).
	Temperature float32 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// Seed makes sampling reproducible where the provider supports it.
	Seed int `json:"seed" yaml:"seed" mapstructure:"seed"`

	// MaxTokens caps the completion length; zero leaves the provider default.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" mapstructure:"max_tokens"`
}

// NeedsAPIKey reports whether the configured provider requires a credential.
func (c LLMConfig) NeedsAPIKey() bool {
	return c.Provider != "ollama"
}

// ConversationConfig holds settings for the requester/assistant turn loop.
type ConversationConfig struct {
	// MaxAutoReplies caps automatic requester replies, tool results included (default 10).
	MaxAutoReplies int `json:"max_auto_replies" yaml:"max_auto_replies" mapstructure:"max_auto_replies"`

	// TerminationMarker ends the conversation when an assistant message ends with it.
	TerminationMarker string `json:"termination_marker" yaml:"termination_marker" mapstructure:"termination_marker"`

	// AutoReply is the requester's reply to a plain assistant message.
	AutoReply string `json:"auto_reply" yaml:"auto_reply" mapstructure:"auto_reply"`
}

// EvalConfig holds settings for the evaluation suite.
type EvalConfig struct {
	// Output is the JSONL results file, truncated at the start of each run.
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// DBPath is an optional SQLite run-history database.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty" mapstructure:"db_path"`

	// MetricsFile is an optional Prometheus textfile written after the run.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// AppConfig groups all component configurations.
type AppConfig struct {
	Search       SearchConfig       `json:"search" yaml:"search" mapstructure:"search"`
	LLM          LLMConfig          `json:"llm" yaml:"llm" mapstructure:"llm"`
	Conversation ConversationConfig `json:"conversation" yaml:"conversation" mapstructure:"conversation"`
	Eval         EvalConfig         `json:"eval" yaml:"eval" mapstructure:"eval"`
}
