// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cluster groups the retrieved papers into topical clusters. The
// grouping itself comes from the generation capability; this package owns
// the prompt, the schema validation, and the membership integrity gate.
package cluster

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/survey-engine/internal/structured"
	"github.com/pdiddy/survey-engine/internal/validate"
	"github.com/pdiddy/survey-engine/pkg/types"
)

const clusterSystem = "You are organizing papers for a literature survey. Reply only with JSON."

// abstractExcerptLen bounds how much of each abstract goes into the prompt.
const abstractExcerptLen = 400

// Clusterer produces topic clusters over a retrieved paper set.
type Clusterer struct {
	gen structured.Generator
	log structured.EventLogger
}

// NewClusterer returns a clusterer over the given generator.
func NewClusterer(gen structured.Generator, log structured.EventLogger) *Clusterer {
	return &Clusterer{gen: gen, log: log}
}

// Cluster groups papers into topical clusters. Every member identifier in
// the result is checked against the input set; a reference to a paper that
// was never retrieved fails the stage rather than being silently dropped.
func (c *Clusterer) Cluster(ctx context.Context, plan types.QueryPlan, papers []types.PaperItem) (types.ClusterResult, error) {
	if len(papers) == 0 {
		return types.ClusterResult{}, fmt.Errorf("clustering requires at least one paper")
	}

	req := structured.Request{
		System: clusterSystem,
		Prompt: buildPrompt(plan, papers),
	}

	var result types.ClusterResult
	if err := structured.GenerateObject(ctx, c.gen, string(types.StageCluster), req, &result, c.log); err != nil {
		return types.ClusterResult{}, err
	}

	known := make(map[string]bool, len(papers))
	for _, p := range papers {
		known[p.PaperID] = true
	}
	if err := validate.Clusters(result, known); err != nil {
		return types.ClusterResult{}, err
	}
	return result, nil
}

func buildPrompt(plan types.QueryPlan, papers []types.PaperItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Group the papers below into 3 to 8 topical clusters for a survey on %q.\n", plan.Topic)
	if len(plan.TargetSubtasks) > 0 {
		fmt.Fprintf(&b, "Planned subareas: %s.\n", strings.Join(plan.TargetSubtasks, "; "))
	}
	b.WriteString("\nEvery paper_id you output must come from this list, verbatim. Assign each paper to exactly one cluster.\n\nPapers:\n")

	for _, p := range papers {
		fmt.Fprintf(&b, "- paper_id: %s | %s (%d)\n", p.PaperID, p.Title, p.Year)
		if p.Abstract != "" {
			excerpt := p.Abstract
			if len(excerpt) > abstractExcerptLen {
				excerpt = excerpt[:abstractExcerptLen] + "..."
			}
			fmt.Fprintf(&b, "  abstract: %s\n", excerpt)
		}
	}

	b.WriteString(`
Reply with a single JSON object:
{
  "clusters": [
    {
      "cluster_id": "short_snake_case_id",
      "name": "human-readable cluster name",
      "description": "what unites these papers",
      "paper_ids": ["..."],
      "keywords": ["..."],
      "methods": ["..."]
    }
  ],
  "main_directions": ["dominant research direction", ...]
}`)
	return b.String()
}
