// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,authors,year,abstract,url,venue,citationCount"

// SemanticScholarSource queries the Semantic Scholar graph API.
type SemanticScholarSource struct {
	fetch  *fetcher
	apiKey string
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return "semantic_scholar" }

// Search queries the Semantic Scholar API and returns normalized records.
func (s *SemanticScholarSource) Search(ctx context.Context, query string, limit int) ([]types.PaperItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {semanticFields},
	}
	reqURL := semanticAPIBase + "?" + params.Encode()

	var headers map[string]string
	if s.apiKey != "" {
		headers = map[string]string{"x-api-key": s.apiKey}
	}

	payload, err := s.fetch.get(ctx, reqURL, headers)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar: %w", err)
	}

	var sr semanticResponse
	if err := json.Unmarshal(payload, &sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var papers []types.PaperItem
	for _, p := range sr.Data {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			continue
		}

		item := types.PaperItem{
			PaperID:       types.NewPaperID("semantic_scholar", p.URL, title),
			Title:         title,
			Year:          p.Year,
			Abstract:      strings.TrimSpace(p.Abstract),
			URL:           strings.TrimSpace(p.URL),
			Venue:         strings.TrimSpace(p.Venue),
			CitationCount: p.CitationCount,
			Source:        "semantic_scholar",
		}
		for _, a := range p.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				item.Authors = append(item.Authors, name)
			}
		}
		papers = append(papers, item)
	}
	return papers, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string           `json:"paperId"`
	Title         string           `json:"title"`
	Abstract      string           `json:"abstract"`
	Year          int              `json:"year"`
	URL           string           `json:"url"`
	Venue         string           `json:"venue"`
	CitationCount int              `json:"citationCount"`
	Authors       []semanticAuthor `json:"authors"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}
