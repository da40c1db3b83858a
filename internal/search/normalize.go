// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// Semantic Scholar bulk search JSON structures. Every field may be null.
type semanticResponse struct {
	Total int             `json:"total"`
	Token *string         `json:"token"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       *string              `json:"paperId"`
	Title         *string              `json:"title"`
	Authors       []semanticAuthor     `json:"authors"`
	Year          *int                 `json:"year"`
	CitationCount *int                 `json:"citationCount"`
	URL           *string              `json:"url"`
	ExternalIDs   *semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID *string `json:"authorId"`
	Name     *string `json:"name"`
}

type semanticExternalIDs struct {
	DOI *string `json:"DOI"`
}

// nextToken returns the continuation token, or "" when the upstream signals
// exhaustion.
func (r semanticResponse) nextToken() string {
	if r.Token == nil {
		return ""
	}
	return *r.Token
}

// normalize maps one raw record to a PaperRecord. Records without a title
// are discarded (ok is false).
func normalize(p semanticPaper) (types.PaperRecord, bool) {
	if p.Title == nil || *p.Title == "" {
		return types.PaperRecord{}, false
	}

	var names []string
	for _, a := range p.Authors {
		if a.Name != nil && *a.Name != "" {
			names = append(names, *a.Name)
		}
	}

	rec := types.PaperRecord{
		PaperID: p.PaperID,
		Title:   *p.Title,
		Authors: strings.Join(names, ", "),
		Year:    p.Year,
		URL:     p.URL,
	}
	if p.CitationCount != nil {
		rec.CitationCount = *p.CitationCount
	}
	if p.ExternalIDs != nil && p.ExternalIDs.DOI != nil {
		rec.DOI = p.ExternalIDs.DOI
	}
	return rec, true
}
