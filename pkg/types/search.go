// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for paper-assistant: the
// search query and its normalized results, conversation transcripts, critic
// verdicts, and per-component configuration.
package types

// DefaultLimit is the number of papers returned when a query does not set one.
const DefaultLimit = 5

// YearFilter selects how SearchQuery.Year constrains publication year.
type YearFilter string

const (
	YearIn     YearFilter = "in"
	YearBefore YearFilter = "before"
	YearAfter  YearFilter = "after"
)

// SearchQuery holds the parameters of one paper search. It is built per tool
// invocation and discarded afterwards.
type SearchQuery struct {
	// Topic is the free-text search string. Required.
	Topic string `json:"topic" yaml:"topic"`

	// Year is the reference year for YearFilter. When YearFilter is empty the
	// search is restricted to exactly this year.
	Year *int `json:"year,omitempty" yaml:"year,omitempty"`

	// YearFilter is one of "in", "before", "after". Ignored without Year.
	// Any other value disables year filtering.
	YearFilter YearFilter `json:"year_filter,omitempty" yaml:"year_filter,omitempty"`

	// MinCitations is the minimum citation count; nil means no filter.
	MinCitations *int `json:"min_citations,omitempty" yaml:"min_citations,omitempty" validate:"omitempty,gte=0"`

	// Limit is the maximum number of papers to return. Zero means DefaultLimit.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty" validate:"gte=0"`
}

// EffectiveLimit returns Limit, or DefaultLimit when Limit is unset.
func (q SearchQuery) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// PaperRecord is a paper normalized from the upstream search API. Nullable
// fields marshal as JSON null so the assistant sees every key.
type PaperRecord struct {
	PaperID       *string `json:"paperId" yaml:"paper_id"`
	Title         string  `json:"title" yaml:"title"`
	Authors       string  `json:"authors" yaml:"authors"`
	Year          *int    `json:"year" yaml:"year"`
	CitationCount int     `json:"citationCount" yaml:"citation_count"`
	URL           *string `json:"url" yaml:"url"`
	DOI           *string `json:"doi" yaml:"doi"`
}

// ResultKind tags a SearchResult.
type ResultKind string

const (
	ResultPapers    ResultKind = "papers"
	ResultNoResults ResultKind = "no_results"
	ResultError     ResultKind = "error"
)

// SearchResult is the outcome of a search: a non-empty list of papers, an
// explicit no-results marker, or an error with a human-readable message.
type SearchResult struct {
	Kind    ResultKind    `json:"kind" yaml:"kind"`
	Papers  []PaperRecord `json:"papers,omitempty" yaml:"papers,omitempty"`
	Message string        `json:"message,omitempty" yaml:"message,omitempty"`
	Details string        `json:"details,omitempty" yaml:"details,omitempty"`
}

// PapersResult returns a papers outcome.
func PapersResult(papers []PaperRecord) SearchResult {
	return SearchResult{Kind: ResultPapers, Papers: papers}
}

// NoResults returns the no-results outcome.
func NoResults() SearchResult {
	return SearchResult{Kind: ResultNoResults}
}

// ErrorResult returns an error outcome with an optional detail string.
func ErrorResult(message, details string) SearchResult {
	return SearchResult{Kind: ResultError, Message: message, Details: details}
}

// IsError reports whether the result is an error outcome.
func (r SearchResult) IsError() bool { return r.Kind == ResultError }
