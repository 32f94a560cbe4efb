// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// arxivAPIBase is the arXiv Atom feed endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivSource queries the arXiv Atom feed.
type ArxivSource struct {
	fetch *fetcher
}

// Name returns the source identifier.
func (s *ArxivSource) Name() string { return "arxiv" }

// Search queries the arXiv API and returns normalized records.
func (s *ArxivSource) Search(ctx context.Context, query string, limit int) ([]types.PaperItem, error) {
	q := strings.TrimSpace(strings.ReplaceAll(query, `"`, ""))
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{
		"search_query": {"all:" + q},
		"start":        {"0"},
		"max_results":  {fmt.Sprintf("%d", limit)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	reqURL := arxivAPIBase + "?" + params.Encode()

	payload, err := s.fetch.get(ctx, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("arXiv: %w", err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(payload, &feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var papers []types.PaperItem
	for _, entry := range feed.Entries {
		title := collapseSpace(entry.Title)
		if title == "" {
			continue
		}

		linkURL := ""
		for _, link := range entry.Links {
			if link.Rel == "alternate" && link.Href != "" {
				linkURL = link.Href
				break
			}
		}

		year := 0
		if len(entry.Published) >= 4 {
			fmt.Sscanf(entry.Published[:4], "%d", &year)
		}

		item := types.PaperItem{
			PaperID:  types.NewPaperID("arxiv", linkURL, title),
			Title:    title,
			Year:     year,
			Abstract: collapseSpace(entry.Summary),
			URL:      linkURL,
			Source:   "arxiv",
		}
		for _, a := range entry.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				item.Authors = append(item.Authors, name)
			}
		}
		papers = append(papers, item)
	}
	return papers, nil
}

// collapseSpace trims a feed field and folds newlines into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
	Links     []arxivLink   `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}
