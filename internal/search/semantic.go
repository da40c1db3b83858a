// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the Semantic Scholar bulk paper search API and
// returns normalized results as a tagged outcome that is always safe to hand
// to a language model.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/paper-assistant/internal/httputil"
	"github.com/pdiddy/paper-assistant/internal/metrics"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

// DefaultBaseURL is the Semantic Scholar bulk paper search endpoint.
const DefaultBaseURL = "https://api.semanticscholar.org/graph/v1/paper/search/bulk"

// DefaultTimeout bounds each page request.
const DefaultTimeout = 20 * time.Second

// Client runs paginated searches against the bulk search endpoint.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	APIKey    string
	UserAgent string
}

// NewClient builds a Client from cfg, applying the default endpoint and
// per-request timeout when unset.
func NewClient(cfg types.SearchConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		BaseURL:   base,
		APIKey:    cfg.APIKey,
		UserAgent: cfg.UserAgent,
	}
}

// Search validates q, fetches pages until q's limit is reached or the
// upstream stops returning a continuation token, and returns the outcome.
// It never returns a Go error or panics: validation errors, transport
// failures, and unexpected faults all become error outcomes, and a failed
// page discards everything accumulated so far.
func (c *Client) Search(ctx context.Context, q types.SearchQuery) (result types.SearchResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("search panicked", "panic", r)
			result = types.ErrorResult(fmt.Sprintf("An unexpected programming error occurred: %v", r), "")
		}
		metrics.SearchCompleted(string(result.Kind))
	}()

	if err := validateQuery(q); err != nil {
		return types.ErrorResult(err.Error(), "")
	}

	limit := q.EffectiveLimit()
	params := buildParams(q)
	slog.Info("searching Semantic Scholar", "params", params.Encode(), "limit", limit)

	var papers []types.PaperRecord
	token := ""
	for len(papers) < limit {
		page, err := c.fetchPage(ctx, params, token)
		if err != nil {
			return errorOutcome(err)
		}

		for _, raw := range page.Data {
			if rec, ok := normalize(raw); ok {
				papers = append(papers, rec)
			}
			if len(papers) >= limit {
				break
			}
		}

		token = page.nextToken()
		if token == "" {
			break
		}
	}

	if len(papers) == 0 {
		return types.NoResults()
	}
	if len(papers) > limit {
		papers = papers[:limit]
	}
	return types.PapersResult(papers)
}

// fetchPage issues one GET for the given continuation token ("" for the
// first page) and decodes the response.
func (c *Client) fetchPage(ctx context.Context, params url.Values, token string) (semanticResponse, error) {
	pageParams := url.Values{}
	for k, v := range params {
		pageParams[k] = v
	}
	if token != "" {
		pageParams.Set("token", token)
	}

	reqURL := c.BaseURL + "?" + pageParams.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return semanticResponse{}, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	metrics.PageFetched()
	resp, err := httputil.Do(ctx, c.HTTP, req)
	if err != nil {
		return semanticResponse{}, err
	}
	defer resp.Body.Close()

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return semanticResponse{}, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return sr, nil
}

// errorOutcome converts a page failure into an error result. HTTP failures
// carry the upstream body as details.
func errorOutcome(err error) types.SearchResult {
	var te *httputil.TransportError
	if errors.As(err, &te) {
		slog.Warn("search request failed", "kind", te.Kind.String(), "status", te.StatusCode, "error", te.Error())
		if te.Kind == httputil.KindHTTP {
			return types.ErrorResult(te.Error(), te.Body)
		}
		return types.ErrorResult(te.Error(), "")
	}
	slog.Error("search failed", "error", err)
	return types.ErrorResult(fmt.Sprintf("An unexpected programming error occurred: %v", err), "")
}
