// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-assistant/internal/search"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

// SearchToolName is the name the assistant uses to call the paper search.
const SearchToolName = "search_research_papers"

const searchDescription = `Searches for research papers on Semantic Scholar based on topic,
publication year (and a filter: "in", "before", "after"), and minimum citations.
Returns a JSON string containing a list of found papers or an error message.`

// Searcher runs a paper search. *search.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, q types.SearchQuery) types.SearchResult
}

// SearchTool adapts a Searcher to the tool contract.
type SearchTool struct {
	Searcher Searcher
}

// NewSearchTool returns the search_research_papers tool backed by s.
func NewSearchTool(s Searcher) *SearchTool {
	return &SearchTool{Searcher: s}
}

// Definition implements Tool.
func (t *SearchTool) Definition() Definition {
	return Definition{
		Name:        SearchToolName,
		Description: searchDescription,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topic": map[string]any{
					"type":        "string",
					"description": "The research topic or keywords to search for (e.g., 'machine learning', 'CRISPR gene editing'). This is a required field.",
				},
				"year": map[string]any{
					"type":        "integer",
					"description": "Optional. The target year for filtering (e.g., 2020). Used in conjunction with year_filter.",
				},
				"year_filter": map[string]any{
					"type":        "string",
					"description": "Optional. How to use the year: 'in' (published in the given year), 'before' (published before the given year, e.g., year=2020 means up to 2019), 'after' (published after the given year, e.g., year=2020 means from 2021 onwards). Requires 'year' to be set.",
					"enum":        []string{"in", "before", "after"},
				},
				"min_citations": map[string]any{
					"type":        "integer",
					"description": "Optional. The minimum number of citations a paper should have (e.g., 100). If not provided, no citation filter is applied.",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Optional. The maximum number of papers to return. Defaults to 5 if not specified by the user, but the agent can choose a different limit if appropriate.",
					"default":     types.DefaultLimit,
				},
			},
			"required": []string{"topic"},
		},
	}
}

// Invoke implements Tool. Arguments that cannot be decoded produce an error
// payload without running a search.
func (t *SearchTool) Invoke(ctx context.Context, arguments string) string {
	q, err := ParseSearchArguments(arguments)
	if err != nil {
		return ErrorPayload(fmt.Sprintf("Invalid arguments for %s: %v", SearchToolName, err))
	}
	return search.Payload(t.Searcher.Search(ctx, q))
}

// searchArguments mirrors the tool schema. Numbers are accepted as JSON
// numbers or numeric strings since models emit both.
type searchArguments struct {
	Topic        string  `json:"topic"`
	Year         flexInt `json:"year"`
	YearFilter   string  `json:"year_filter"`
	MinCitations flexInt `json:"min_citations"`
	Limit        flexInt `json:"limit"`
}

// ParseSearchArguments decodes the raw JSON arguments of a search call.
// Empty arguments decode as an empty query, which the search rejects.
func ParseSearchArguments(arguments string) (types.SearchQuery, error) {
	var args searchArguments
	if s := strings.TrimSpace(arguments); s != "" {
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			return types.SearchQuery{}, err
		}
	}

	q := types.SearchQuery{
		Topic:        args.Topic,
		YearFilter:   types.YearFilter(strings.ToLower(strings.TrimSpace(args.YearFilter))),
		Year:         args.Year.ptr(),
		MinCitations: args.MinCitations.ptr(),
	}
	if args.Limit.Valid {
		q.Limit = args.Limit.Value
	}
	return q, nil
}

// flexInt decodes an optional integer from a JSON number, a numeric string,
// or null. Null and the empty string leave it unset.
type flexInt struct {
	Value int
	Valid bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexInt{}
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = flexInt{}
			return nil
		}
	}

	if n, err := strconv.Atoi(s); err == nil {
		*f = flexInt{Value: n, Valid: true}
		return nil
	}
	fv, err := strconv.ParseFloat(s, 64)
	if err != nil || fv != math.Trunc(fv) || math.Abs(fv) > math.MaxInt32 {
		return fmt.Errorf("expected an integer, got %s", string(data))
	}
	*f = flexInt{Value: int(fv), Valid: true}
	return nil
}

func (f flexInt) ptr() *int {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}
