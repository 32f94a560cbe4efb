// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pdiddy/survey-engine/internal/cache"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// ErrNoPapers reports that every query against every source produced nothing.
// Individual source failures are warnings; an empty final set fails the stage.
var ErrNoPapers = errors.New("retrieval produced no papers")

// duplicateThreshold is the normalized-title similarity at or above which two
// records are treated as the same work.
const duplicateThreshold = 0.90

// breakerStrikes is the number of rate-limit occurrences from one source
// after which that source is disabled for the rest of the run.
const breakerStrikes = 3

// EventLogger receives structured engine events. Implementations must never
// fail the caller.
type EventLogger interface {
	Log(stage, event string, meta map[string]any)
}

// Engine fans queries out to its sources and merges the results into one
// deduplicated, filtered, ranked paper set. Circuit-breaker state is scoped
// to a single Retrieve call, never shared across runs.
type Engine struct {
	sources []Source
	cfg     types.RetrievalConfig
	log     EventLogger
}

// NewEngine builds an engine with the sources enabled in cfg, sharing one
// HTTP client and the cross-run response cache.
func NewEngine(cfg types.RetrievalConfig, client *http.Client, store *cache.Store, log EventLogger) *Engine {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	f := &fetcher{client: client, store: store, cfg: cfg}

	var sources []Source
	if cfg.EnableSemanticScholar {
		sources = append(sources, &SemanticScholarSource{fetch: f, apiKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableArxiv {
		sources = append(sources, &ArxivSource{fetch: f})
	}
	if cfg.EnableOpenAlex {
		sources = append(sources, &OpenAlexSource{fetch: f, email: cfg.OpenAlexEmail})
	}
	return NewEngineWithSources(cfg, sources, log)
}

// NewEngineWithSources builds an engine over explicit sources. Tests use this
// to substitute mocks.
func NewEngineWithSources(cfg types.RetrievalConfig, sources []Source, log EventLogger) *Engine {
	return &Engine{sources: sources, cfg: cfg, log: log}
}

// Retrieve runs every query against every enabled source and reduces the raw
// records to the final paper set. One source failing is a warning; only an
// empty final set returns ErrNoPapers. The returned result is populated
// either way so it can be persisted as the stage artifact.
func (e *Engine) Retrieve(ctx context.Context, queries []string) (types.RetrievalResult, error) {
	used := make([]string, 0, len(queries))
	for _, q := range queries {
		if s := strings.TrimSpace(q); s != "" {
			used = append(used, s)
		}
	}

	result := types.RetrievalResult{
		QueriesUsed: used,
		Warnings:    []string{},
	}
	if len(used) == 0 {
		return result, ErrNoPapers
	}

	perQuery := perQueryLimit(e.cfg.MaxPapers, len(used))

	// Run-scoped circuit breaker state.
	strikes := make(map[string]int)
	disabled := make(map[string]bool)

	var raw []types.PaperItem

collect:
	for i, q := range used {
		e.logEvent("query", map[string]any{"i": i, "q": q, "per_query_limit": perQuery})

		for _, src := range e.sources {
			if disabled[src.Name()] {
				continue
			}

			papers, err := src.Search(ctx, q, perQuery)
			if err != nil {
				if errors.Is(err, ErrRateLimited) {
					strikes[src.Name()]++
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("%s rate-limited for query %q", src.Name(), q))
					if strikes[src.Name()] >= breakerStrikes {
						disabled[src.Name()] = true
						result.Warnings = append(result.Warnings,
							fmt.Sprintf("%s disabled for this run after repeated rate limiting", src.Name()))
						e.logEvent("source_disabled", map[string]any{"source": src.Name()})
					}
					continue
				}
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s failed for query %q: %v", src.Name(), q, err))
				e.logEvent("source_error", map[string]any{"source": src.Name(), "q": q, "error": err.Error()})
				continue
			}

			e.logEvent("source_results", map[string]any{"source": src.Name(), "q": q, "count": len(papers)})
			raw = append(raw, papers...)
		}

		// Stop accumulating once there is plenty of material pre-dedup.
		if len(raw) >= e.cfg.MaxPapers*4 {
			break collect
		}
	}

	result.DedupBefore = len(raw)

	papers := e.dedup(raw)
	papers = e.filterByYear(papers)

	// Records with an abstract rank ahead of those without; the stable sort
	// preserves source order within each group.
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Abstract != "" && papers[j].Abstract == ""
	})

	if len(papers) > e.cfg.MaxPapers {
		papers = papers[:e.cfg.MaxPapers]
	}

	result.Papers = papers
	result.DedupAfter = len(papers)

	if n := missingAbstracts(papers); len(papers) > 0 && float64(n)/float64(len(papers)) > 0.4 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("high missing-abstract ratio in final set: %d/%d", n, len(papers)))
	}

	if len(papers) == 0 {
		return result, ErrNoPapers
	}
	return result, nil
}

// perQueryLimit divides the paper budget across queries, clamped to [10, 25]
// and hard-capped at 20.
func perQueryLimit(budget, queryCount int) int {
	if queryCount < 1 {
		queryCount = 1
	}
	limit := budget / queryCount
	if limit < 10 {
		limit = 10
	}
	if limit > 25 {
		limit = 25
	}
	if limit > 20 {
		limit = 20
	}
	return limit
}

// dedup drops records whose normalized title is >= duplicateThreshold similar
// to an already-accepted record. The accepted set is capped at twice the
// paper budget to bound the pairwise comparison.
func (e *Engine) dedup(raw []types.PaperItem) []types.PaperItem {
	var accepted []types.PaperItem
	for _, p := range raw {
		if strings.TrimSpace(p.Title) == "" {
			continue
		}

		dup := false
		for _, a := range accepted {
			if titleSimilarity(p.Title, a.Title) >= duplicateThreshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		accepted = append(accepted, p)
		if len(accepted) >= e.cfg.MaxPapers*2 {
			break
		}
	}
	return accepted
}

// filterByYear drops records whose known year falls outside the configured
// range. An unknown year (zero) always passes.
func (e *Engine) filterByYear(papers []types.PaperItem) []types.PaperItem {
	kept := papers[:0]
	for _, p := range papers {
		if p.Year != 0 && (p.Year < e.cfg.MinYear || p.Year > e.cfg.MaxYear) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func missingAbstracts(papers []types.PaperItem) int {
	n := 0
	for _, p := range papers {
		if strings.TrimSpace(p.Abstract) == "" {
			n++
		}
	}
	return n
}

func (e *Engine) logEvent(event string, meta map[string]any) {
	if e.log != nil {
		e.log.Log(string(types.StageRetrieve), event, meta)
	}
}
