// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// RunReport is a run with its results and score averages, as exported.
type RunReport struct {
	Run       Run                `json:"run" yaml:"run"`
	Evaluated int                `json:"evaluated" yaml:"evaluated"`
	Averages  map[string]float64 `json:"averages" yaml:"averages"`
	Results   []types.EvalRecord `json:"results" yaml:"results"`
}

// Report assembles the report for one run. An empty ID selects the most
// recent run.
func (s *Store) Report(ctx context.Context, runID string) (RunReport, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return RunReport{}, err
	}
	results, err := s.Results(ctx, run.ID)
	if err != nil {
		return RunReport{}, err
	}
	avgs, n, err := s.Averages(ctx, run.ID)
	if err != nil {
		return RunReport{}, err
	}

	report := RunReport{Run: run, Evaluated: n, Averages: make(map[string]float64, len(avgs)), Results: results}
	for c, v := range avgs {
		report.Averages[string(c)] = v
	}
	return report, nil
}

// ExportYAML writes the report for runID to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, runID string, w io.Writer) error {
	report, err := s.Report(ctx, runID)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the report for runID to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, runID string, w io.Writer) error {
	report, err := s.Report(ctx, runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
