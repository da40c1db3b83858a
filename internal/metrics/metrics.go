// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the process counters for searches, tool calls,
// conversation turns, and critic results. Counters live in a dedicated
// Prometheus registry and are written as a textfile after CLI runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paper_assistant"

// Registry is the registry every collector in this package belongs to.
var Registry = prometheus.NewRegistry()

var (
	searchRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_requests_total",
		Help:      "Paper searches by outcome (papers, no_results, error).",
	}, []string{"outcome"})

	searchPages = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_pages_total",
		Help:      "Upstream search pages requested.",
	})

	toolInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_invocations_total",
		Help:      "Tool invocations by tool name.",
	}, []string{"tool"})

	conversationTurns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conversation_turns_total",
		Help:      "Conversation turns appended, by role.",
	}, []string{"role"})

	criticResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "critic_results_total",
		Help:      "Critic evaluations by result (verdict, extraction_failure).",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(searchRequests, searchPages, toolInvocations, conversationTurns, criticResults)
}

// SearchCompleted counts one finished search with the given outcome kind.
func SearchCompleted(outcome string) { searchRequests.WithLabelValues(outcome).Inc() }

// PageFetched counts one upstream page request.
func PageFetched() { searchPages.Inc() }

// ToolInvoked counts one tool invocation.
func ToolInvoked(tool string) { toolInvocations.WithLabelValues(tool).Inc() }

// TurnAppended counts one conversation turn.
func TurnAppended(role string) { conversationTurns.WithLabelValues(role).Inc() }

// CriticEvaluated counts one critic result.
func CriticEvaluated(result string) { criticResults.WithLabelValues(result).Inc() }

// WriteTextfile writes every counter to path in the Prometheus text format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
