// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evalsuite

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// Summary holds per-criterion averages over the verdicts of a run.
type Summary struct {
	RunID  string
	Output string

	Total              int
	Evaluated          int
	ExtractionFailures int
	Errors             int

	sums map[types.Criterion]int
}

func (s *Summary) add(rec types.EvalRecord) {
	s.Total++
	switch {
	case rec.Failed():
		s.Errors++
	case rec.CriticEvaluation != nil && rec.CriticEvaluation.OK():
		s.Evaluated++
		if s.sums == nil {
			s.sums = make(map[types.Criterion]int, len(types.Criteria))
		}
		for _, c := range types.Criteria {
			s.sums[c] += rec.CriticEvaluation.Verdict.Score(c)
		}
	default:
		s.ExtractionFailures++
	}
}

// Average returns the mean score for c over successful verdicts. ok is false
// when there are none.
func (s Summary) Average(c types.Criterion) (avg float64, ok bool) {
	if s.Evaluated == 0 {
		return 0, false
	}
	return float64(s.sums[c]) / float64(s.Evaluated), true
}

// Averages returns the mean score of every criterion, or nil when no
// prompt produced a verdict.
func (s Summary) Averages() map[types.Criterion]float64 {
	if s.Evaluated == 0 {
		return nil
	}
	out := make(map[types.Criterion]float64, len(types.Criteria))
	for _, c := range types.Criteria {
		out[c], _ = s.Average(c)
	}
	return out
}

// PrintAverages writes a criterion table for avgs, for n evaluated prompts.
func PrintAverages(w io.Writer, avgs map[types.Criterion]float64, n int) {
	if n == 0 || len(avgs) == 0 {
		fmt.Fprintln(w, "No successful evaluations to summarize.")
		return
	}
	fmt.Fprintf(w, "%-30s  %s\n", "CRITERION", "AVERAGE")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for _, c := range types.Criteria {
		if v, ok := avgs[c]; ok {
			fmt.Fprintf(w, "%-30s  %.2f\n", c, v)
		} else {
			fmt.Fprintf(w, "%-30s  %s\n", c, "-")
		}
	}
	fmt.Fprintf(w, "\n%d evaluated\n", n)
}

// Print writes the summary table followed by the outcome counts.
func (s Summary) Print(w io.Writer) {
	PrintAverages(w, s.Averages(), s.Evaluated)
	fmt.Fprintf(w, "prompts: %d, evaluated: %d, critic failures: %d, errors: %d\n",
		s.Total, s.Evaluated, s.ExtractionFailures, s.Errors)
	if s.RunID != "" {
		fmt.Fprintf(w, "run: %s\n", s.RunID)
	}
}
