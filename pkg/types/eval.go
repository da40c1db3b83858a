// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EvalRecord is one line of the evaluation results file. A record carries
// either a final response with its critic evaluation, or the error that
// stopped the prompt from being processed.
type EvalRecord struct {
	// PromptIDInRun is the 1-based position of the prompt in this run.
	PromptIDInRun int `json:"prompt_id_in_run" yaml:"prompt_id_in_run"`

	// OverallPromptID is the prompt's 1-based ID in the full suite.
	OverallPromptID int `json:"overall_prompt_id" yaml:"overall_prompt_id"`

	UserPrompt string `json:"user_prompt" yaml:"user_prompt"`

	AgentFinalResponse string        `json:"agent_final_response,omitempty" yaml:"agent_final_response,omitempty"`
	CriticEvaluation   *CriticResult `json:"critic_evaluation,omitempty" yaml:"critic_evaluation,omitempty"`

	ErrorDuringProcessing string `json:"error_during_processing,omitempty" yaml:"error_during_processing,omitempty"`
}

// Failed reports whether the prompt could not be processed.
func (r EvalRecord) Failed() bool { return r.ErrorDuringProcessing != "" }
