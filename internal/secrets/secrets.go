// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets finds the API keys paper-assistant needs. A credential is
// taken from the first of these that is set:
//
//  1. an explicit value from a flag or the config file,
//  2. a file in the secrets directory (.secrets/ by default) named after the
//     key, whose trimmed contents are the value,
//  3. the key's environment variable, if it has one.
//
// The chat model key is llm-api-key with MISTRAL_API_KEY as its environment
// fallback. The Semantic Scholar key is semantic-scholar-api-key and has no
// fallback; searches run unauthenticated without it.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDir is the secrets directory, relative to the working directory.
const DefaultDir = ".secrets"

// Key file names.
const (
	LLMAPIKey             = "llm-api-key"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
)

// LLMAPIKeyEnv is read when neither a configured chat model key nor an
// llm-api-key file exists.
const LLMAPIKeyEnv = "MISTRAL_API_KEY"

// Load reads every regular, non-hidden file in dir into a map of file name
// to trimmed contents. Empty files are skipped. A missing directory yields an
// empty map; an unreadable file is logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	loaded := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "error", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			loaded[name] = value
		}
	}
	return loaded, nil
}

// Names returns the loaded key names, sorted. Values are never exposed.
func Names(loaded map[string]string) []string {
	names := make([]string, 0, len(loaded))
	for k := range loaded {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Resolve picks a credential: an explicit value wins, then the secret named
// key, then the environment variable env. It returns "" when none is set.
func Resolve(loaded map[string]string, key, explicit, env string) string {
	if explicit != "" {
		return explicit
	}
	if v, ok := loaded[key]; ok {
		return v
	}
	if env != "" {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}
