// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"crypto/sha256"
	"fmt"
)

// PaperItem represents one candidate paper returned by a bibliographic source.
type PaperItem struct {
	// PaperID is a deterministic identifier derived from source, URL, and
	// title. Identical records always hash to the same ID.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year. Zero means unknown.
	Year int `json:"year" yaml:"year"`

	// Abstract is the paper abstract or summary. May be empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL points at the paper's landing page.
	URL string `json:"url" yaml:"url"`

	// Venue is the journal or conference, when the source reports one.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// CitationCount is the source-reported citation count. Zero means unknown.
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// Source identifies which adapter found this record
	// (e.g. "arxiv", "semantic_scholar", "openalex").
	Source string `json:"source" yaml:"source"`
}

// NewPaperID derives the deterministic paper identifier: the first 12 hex
// characters of SHA-256(source + url + title).
func NewPaperID(source, url, title string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte(url))
	h.Write([]byte(title))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// RetrievalResult is the artifact of the retrieve stage: the deduplicated,
// year-filtered, ranked paper set plus counters and warnings. The counters
// and warnings are populated even when the paper set is empty.
type RetrievalResult struct {
	QueriesUsed []string    `json:"queries_used"`
	Papers      []PaperItem `json:"papers"`
	DedupBefore int         `json:"dedup_before"`
	DedupAfter  int         `json:"dedup_after"`
	Warnings    []string    `json:"warnings"`
}

// PaperIDSet returns the set of paper IDs in the result, the grounded
// universe for downstream referential-integrity checks.
func (r RetrievalResult) PaperIDSet() map[string]bool {
	ids := make(map[string]bool, len(r.Papers))
	for _, p := range r.Papers {
		ids[p.PaperID] = true
	}
	return ids
}
