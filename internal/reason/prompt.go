// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reason

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// draftAbstractLen bounds the abstract excerpt per paper in the draft prompt.
const draftAbstractLen = 300

const draftSchema = `{
  "claims": [
    {
      "claim_id": "c1",
      "claim_type": "trend|comparison|limitation|consensus",
      "statement": "the claim",
      "supporting_papers": ["paper_id", ...],
      "evidence": [{"paper_id": "...", "excerpt": "short quote or paraphrase"}],
      "confidence": 0.8
    }
  ],
  "research_gaps": [
    {
      "gap_id": "g1",
      "description": "what the literature does not cover",
      "related_clusters": ["cluster_id", ...],
      "supporting_papers": ["paper_id", ...],
      "significance": "why it matters"
    }
  ],
  "meta": {"summary": "one paragraph overview"}
}`

func buildDraftPrompt(plan types.QueryPlan, clusters types.ClusterResult, papers []types.PaperItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Synthesize findings for a literature survey on %q.\n\n", plan.Topic)
	if len(plan.MustInclude) > 0 {
		fmt.Fprintf(&b, "The survey must cover: %s.\n", strings.Join(plan.MustInclude, "; "))
	}

	b.WriteString("Clusters:\n")
	for _, c := range clusters.Clusters {
		fmt.Fprintf(&b, "- %s: %s (%d papers) %s\n", c.ClusterID, c.Name, len(c.PaperIDs), c.Description)
	}

	b.WriteString("\nPapers (every paper_id you cite must come from this list, verbatim):\n")
	for _, p := range papers {
		fmt.Fprintf(&b, "- paper_id: %s | %s (%d)\n", p.PaperID, p.Title, p.Year)
		if p.Abstract != "" {
			excerpt := p.Abstract
			if len(excerpt) > draftAbstractLen {
				excerpt = excerpt[:draftAbstractLen] + "..."
			}
			fmt.Fprintf(&b, "  abstract: %s\n", excerpt)
		}
	}

	b.WriteString("\nProduce 4 to 10 claims (trends, comparisons, limitations, consensus) and 2 to 5 research gaps. Cite supporting papers for every claim and gap.\n\nReply with a single JSON object:\n")
	b.WriteString(draftSchema)
	return b.String()
}

func buildCritiquePrompt(plan types.QueryPlan, draft types.ReasoningDraft) string {
	encoded, _ := json.MarshalIndent(draft, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Review the survey findings below on %q.\n\n", plan.Topic)
	b.WriteString("Fail the review when a claim is unsupported by its cited papers, overgeneralized, or internally inconsistent, or when a gap is vague. Otherwise pass it.\n\nFindings under review:\n")
	b.Write(encoded)
	b.WriteString(`

Reply with a single JSON object:
{
  "passed": true,
  "findings": ["concrete problem to fix", ...]
}
A failed review must list at least one finding.`)
	return b.String()
}

func buildRefinePrompt(plan types.QueryPlan, clusters types.ClusterResult, papers []types.PaperItem, draft types.ReasoningDraft, findings []string) string {
	var b strings.Builder
	b.WriteString(buildDraftPrompt(plan, clusters, papers))

	encoded, _ := json.MarshalIndent(draft, "", "  ")
	b.WriteString("\n\nA reviewer rejected your previous draft. Address every finding and produce a corrected draft in the same JSON schema.\n\nPrevious draft:\n")
	b.Write(encoded)
	b.WriteString("\n\nReviewer findings:\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return b.String()
}
