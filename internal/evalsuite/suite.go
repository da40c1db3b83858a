// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evalsuite runs a fixed set of prompts through the paper search
// conversation, grades each result with the critic, and records the outcome.
package evalsuite

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Prompt is one suite entry. ID is 1-based and stable across selections.
type Prompt struct {
	ID   int    `yaml:"id" json:"id"`
	Text string `yaml:"text" json:"text"`
}

// SuiteFile is the on-disk form of a prompt suite.
type SuiteFile struct {
	Prompts []Prompt `yaml:"prompts"`
}

var builtin = []string{
	// Typical.
	"Find 3 research papers on 'transformer models in NLP' published in 2021 with more than 200 citations.",
	"Show me one highly cited paper about 'CRISPR gene editing applications' published before 2019. By highly cited, I mean over 1000 citations.",
	// Ambiguous.
	"I need some recent papers on reinforcement learning.",
	"Find good papers about AI ethics.",
	// Complex.
	"Can you get me up to 5 papers on 'graph neural networks' published after 2022, but I only want those with at least 50 citations?",
	// Edge cases.
	"Find research papers on 'time travel feasibility' published in the year 2500.",
	"Search for papers on '' with 10 citations.",
	"I want papers on 'the history of aether physics' with exactly -5 citations published before 1900.",
}

// BuiltinPrompts returns the default suite.
func BuiltinPrompts() []Prompt {
	prompts := make([]Prompt, len(builtin))
	for i, text := range builtin {
		prompts[i] = Prompt{ID: i + 1, Text: text}
	}
	return prompts
}

// LoadSuite reads a YAML suite file. Prompts without an ID are numbered by
// position.
func LoadSuite(path string) ([]Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}

	var sf SuiteFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing suite file %s: %w", path, err)
	}
	if len(sf.Prompts) == 0 {
		return nil, fmt.Errorf("suite file %s has no prompts", path)
	}

	seen := make(map[int]bool, len(sf.Prompts))
	for i := range sf.Prompts {
		if sf.Prompts[i].ID == 0 {
			sf.Prompts[i].ID = i + 1
		}
		if seen[sf.Prompts[i].ID] {
			return nil, fmt.Errorf("suite file %s: duplicate prompt id %d", path, sf.Prompts[i].ID)
		}
		seen[sf.Prompts[i].ID] = true
	}
	return sf.Prompts, nil
}

// Select returns the prompts with the given IDs, in the order given. No IDs
// selects all prompts.
func Select(prompts []Prompt, ids []int) ([]Prompt, error) {
	if len(ids) == 0 {
		return prompts, nil
	}
	byID := make(map[int]Prompt, len(prompts))
	for _, p := range prompts {
		byID[p.ID] = p
	}

	selected := make([]Prompt, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("no prompt with id %d (suite has %d prompts)", id, len(prompts))
		}
		selected = append(selected, p)
	}
	return selected, nil
}
