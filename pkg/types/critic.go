// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// CriticVerdict is the rubric score record produced by the critic model.
type CriticVerdict struct {
	CompletenessScore          int    `json:"completeness_score" yaml:"completeness_score" validate:"min=1,max=5"`
	QualityAccuracyScore       int    `json:"quality_accuracy_score" yaml:"quality_accuracy_score" validate:"min=1,max=5"`
	RobustnessScore            int    `json:"robustness_score" yaml:"robustness_score" validate:"min=1,max=5"`
	ToolUsageScore             int    `json:"tool_usage_score" yaml:"tool_usage_score" validate:"min=1,max=5"`
	EfficiencyConcisenessScore int    `json:"efficiency_conciseness_score" yaml:"efficiency_conciseness_score" validate:"min=1,max=5"`
	OverallAssessment          string `json:"overall_assessment" yaml:"overall_assessment"`
	PositiveFeedback           string `json:"positive_feedback" yaml:"positive_feedback"`
	AreasForImprovement        string `json:"areas_for_improvement" yaml:"areas_for_improvement"`
}

// Criterion names a rubric score.
type Criterion string

const (
	CriterionCompleteness          Criterion = "completeness_score"
	CriterionQualityAccuracy       Criterion = "quality_accuracy_score"
	CriterionRobustness            Criterion = "robustness_score"
	CriterionToolUsage             Criterion = "tool_usage_score"
	CriterionEfficiencyConciseness Criterion = "efficiency_conciseness_score"
)

// Criteria lists the rubric scores in report order.
var Criteria = []Criterion{
	CriterionCompleteness,
	CriterionQualityAccuracy,
	CriterionRobustness,
	CriterionToolUsage,
	CriterionEfficiencyConciseness,
}

// Score returns the verdict's score for c, or 0 for an unknown criterion.
func (v CriticVerdict) Score(c Criterion) int {
	switch c {
	case CriterionCompleteness:
		return v.CompletenessScore
	case CriterionQualityAccuracy:
		return v.QualityAccuracyScore
	case CriterionRobustness:
		return v.RobustnessScore
	case CriterionToolUsage:
		return v.ToolUsageScore
	case CriterionEfficiencyConciseness:
		return v.EfficiencyConcisenessScore
	}
	return 0
}

// ExtractionFailure records why a critic response could not be turned into a
// verdict, with the intermediate texts kept for offline diagnosis.
type ExtractionFailure struct {
	Error                    string `json:"error" yaml:"error"`
	OriginalRawResponse      string `json:"original_raw_response,omitempty" yaml:"original_raw_response,omitempty"`
	MarkdownStrippedResponse string `json:"markdown_stripped_response,omitempty" yaml:"markdown_stripped_response,omitempty"`
	FixedAttemptResponse     string `json:"fixed_attempt_response,omitempty" yaml:"fixed_attempt_response,omitempty"`
}

// CriticResult holds exactly one of Verdict or Failure.
type CriticResult struct {
	Verdict *CriticVerdict     `yaml:"verdict,omitempty"`
	Failure *ExtractionFailure `yaml:"failure,omitempty"`
}

// OK reports whether the critic produced a verdict.
func (r CriticResult) OK() bool { return r.Verdict != nil }

// MarshalJSON encodes the verdict object, or the failure object when no
// verdict was produced.
func (r CriticResult) MarshalJSON() ([]byte, error) {
	if r.Verdict != nil {
		return json.Marshal(r.Verdict)
	}
	if r.Failure != nil {
		return json.Marshal(r.Failure)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes either shape. An object carrying an "error" key is a
// failure; anything else is a verdict.
func (r *CriticResult) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = CriticResult{}
		return nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if _, ok := probe["error"]; ok {
		var f ExtractionFailure
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*r = CriticResult{Failure: &f}
		return nil
	}
	var v CriticVerdict
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = CriticResult{Verdict: &v}
	return nil
}
