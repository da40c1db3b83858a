// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// semanticFields is the fixed projection requested for every paper.
const semanticFields = "paperId,title,authors,year,citationCount,url,externalIds"

var validate = validator.New()

// errEmptyTopic is returned for a missing or blank topic.
var errEmptyTopic = errors.New("Topic cannot be empty.")

// validateQuery checks a query before any network call. A blank topic,
// negative citation threshold, or negative limit is rejected.
func validateQuery(q types.SearchQuery) error {
	if strings.TrimSpace(q.Topic) == "" {
		return errEmptyTopic
	}
	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			var msgs []string
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(q, fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func fieldMessage(q types.SearchQuery, fe validator.FieldError) string {
	switch fe.Field() {
	case "MinCitations":
		return fmt.Sprintf("min_citations must be zero or greater, got %d", *q.MinCitations)
	case "Limit":
		return fmt.Sprintf("limit must be a positive number, got %d", q.Limit)
	default:
		return fmt.Sprintf("invalid %s: %v", fe.Field(), fe.Value())
	}
}

// buildParams maps a validated query onto the bulk search API parameters.
// The before/after filters are exclusive of the given year.
func buildParams(q types.SearchQuery) url.Values {
	params := url.Values{
		"query":  {q.Topic},
		"fields": {semanticFields},
	}

	if yr := yearParam(q); yr != "" {
		params.Set("year", yr)
	}

	if q.MinCitations != nil {
		params.Set("minCitationCount", strconv.Itoa(*q.MinCitations))
	}
	return params
}

// yearParam returns the year filter string: "2020", "-2019", "2021-", or ""
// when no usable filter is present.
func yearParam(q types.SearchQuery) string {
	if q.Year == nil {
		return ""
	}
	y := *q.Year

	switch q.YearFilter {
	case "", types.YearIn:
		return strconv.Itoa(y)
	case types.YearBefore:
		return fmt.Sprintf("-%d", y-1)
	case types.YearAfter:
		return fmt.Sprintf("%d-", y+1)
	default:
		slog.Warn("invalid year_filter, year filtering skipped", "year_filter", string(q.YearFilter), "year", y)
		return ""
	}
}
