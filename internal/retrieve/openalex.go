// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// openAlexAPIBase is the OpenAlex Works search endpoint. Declared as a var
// so tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

// OpenAlexSource queries the OpenAlex Works API.
type OpenAlexSource struct {
	fetch *fetcher
	// email is sent as the mailto parameter for polite pool access.
	email string
}

// Name returns the source identifier.
func (s *OpenAlexSource) Name() string { return "openalex" }

// Search queries the OpenAlex API and returns normalized records.
func (s *OpenAlexSource) Search(ctx context.Context, query string, limit int) ([]types.PaperItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{
		"search":   {query},
		"per_page": {fmt.Sprintf("%d", limit)},
		"page":     {"1"},
	}
	if s.email != "" {
		params.Set("mailto", s.email)
	}
	reqURL := openAlexAPIBase + "?" + params.Encode()

	payload, err := s.fetch.get(ctx, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex: %w", err)
	}

	var oar openAlexResponse
	if err := json.Unmarshal(payload, &oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	var papers []types.PaperItem
	for _, work := range oar.Results {
		title := strings.TrimSpace(work.Title)
		if title == "" {
			continue
		}

		workURL := work.DOI
		if workURL == "" {
			workURL = work.ID
		}

		item := types.PaperItem{
			PaperID:       types.NewPaperID("openalex", workURL, title),
			Title:         title,
			Year:          work.PublicationYear,
			Abstract:      reconstructAbstract(work.AbstractInvertedIndex),
			URL:           workURL,
			CitationCount: work.CitedByCount,
			Source:        "openalex",
		}
		for _, authorship := range work.Authorships {
			if authorship.Author.DisplayName != "" {
				item.Authors = append(item.Authors, authorship.Author.DisplayName)
			}
		}
		papers = append(papers, item)
	}
	return papers, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
