// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// NoResultsMessage is the message carried by the no-results payload.
const NoResultsMessage = "No papers found matching your criteria."

type messagePayload struct {
	Message string `json:"message"`
}

type errorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Payload encodes a result as the JSON string handed back to the assistant:
// an indented array of papers, a {"message": ...} object for no results, or
// an {"error": ..., "details": ...} object.
func Payload(r types.SearchResult) string {
	var v any
	switch r.Kind {
	case types.ResultPapers:
		papers := r.Papers
		if papers == nil {
			papers = []types.PaperRecord{}
		}
		v = papers
	case types.ResultNoResults:
		v = messagePayload{Message: NoResultsMessage}
	default:
		v = errorPayload{Error: r.Message, Details: r.Details}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// Only reachable with unmarshalable values, which PaperRecord never holds.
		return fmt.Sprintf(`{"error": %q}`, "encoding search result: "+err.Error())
	}
	return string(data)
}

// ParsePayload decodes a payload produced by Payload.
func ParsePayload(s string) (types.SearchResult, error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "[") {
		var papers []types.PaperRecord
		if err := json.Unmarshal([]byte(trimmed), &papers); err != nil {
			return types.SearchResult{}, fmt.Errorf("parsing paper list: %w", err)
		}
		if len(papers) == 0 {
			return types.NoResults(), nil
		}
		return types.PapersResult(papers), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return types.SearchResult{}, fmt.Errorf("parsing payload: %w", err)
	}
	if _, ok := obj["error"]; ok {
		var ep errorPayload
		if err := json.Unmarshal([]byte(trimmed), &ep); err != nil {
			return types.SearchResult{}, fmt.Errorf("parsing error payload: %w", err)
		}
		return types.ErrorResult(ep.Error, ep.Details), nil
	}
	if _, ok := obj["message"]; ok {
		return types.NoResults(), nil
	}
	return types.SearchResult{}, errors.New("payload is neither a paper list, a message, nor an error")
}

// Describe renders a result as plain text for people: a numbered paper list,
// a no-results sentence, or an error sentence.
func Describe(r types.SearchResult) string {
	var b strings.Builder
	switch r.Kind {
	case types.ResultPapers:
		fmt.Fprintf(&b, "Found %d paper(s):\n", len(r.Papers))
		for i, p := range r.Papers {
			fmt.Fprintf(&b, "\n%d. %s\n", i+1, p.Title)
			if p.Authors != "" {
				fmt.Fprintf(&b, "   Authors:   %s\n", p.Authors)
			}
			if p.Year != nil {
				fmt.Fprintf(&b, "   Year:      %d\n", *p.Year)
			}
			fmt.Fprintf(&b, "   Citations: %d\n", p.CitationCount)
			if p.DOI != nil && *p.DOI != "" {
				fmt.Fprintf(&b, "   DOI:       %s\n", *p.DOI)
			}
			if p.URL != nil && *p.URL != "" {
				fmt.Fprintf(&b, "   URL:       %s\n", *p.URL)
			}
		}
	case types.ResultNoResults:
		b.WriteString(NoResultsMessage + "\n")
	default:
		fmt.Fprintf(&b, "The search failed: %s\n", r.Message)
		if r.Details != "" {
			fmt.Fprintf(&b, "Details: %s\n", r.Details)
		}
	}
	return b.String()
}
