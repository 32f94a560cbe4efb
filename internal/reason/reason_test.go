// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reason

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/survey-engine/internal/structured"
	"github.com/pdiddy/survey-engine/internal/validate"
	"github.com/pdiddy/survey-engine/pkg/types"
)

const validDraft = `{
	"claims": [
		{"claim_id": "c1", "claim_type": "trend", "statement": "s", "supporting_papers": ["p1"], "evidence": [{"paper_id": "p1", "excerpt": "e"}], "confidence": 0.9}
	],
	"research_gaps": [
		{"gap_id": "g1", "description": "d", "related_clusters": ["arch"], "supporting_papers": ["p2"], "significance": "why"}
	],
	"meta": {"summary": "overview"}
}`

const passedCritique = `{"passed": true, "findings": []}`
const failedCritique = `{"passed": false, "findings": ["claim c1 overgeneralizes"]}`

// stageGenerator routes by prompt kind: critique prompts, refine prompts, and
// draft prompts each replay their own scripted responses.
type stageGenerator struct {
	drafts    []string
	critiques []string
	refines   []string

	draftCalls    int
	critiqueCalls int
	refineCalls   int

	draftPrompts []string
}

func (g *stageGenerator) Generate(_ context.Context, req structured.Request) (structured.Response, error) {
	prompt := req.Prompt
	switch {
	case strings.Contains(prompt, "Review the survey findings"):
		i := min(g.critiqueCalls, len(g.critiques)-1)
		g.critiqueCalls++
		return structured.Response{Text: g.critiques[i]}, nil
	case strings.Contains(prompt, "A reviewer rejected your previous draft"):
		i := min(g.refineCalls, len(g.refines)-1)
		g.refineCalls++
		return structured.Response{Text: g.refines[i]}, nil
	default:
		i := min(g.draftCalls, len(g.drafts)-1)
		g.draftCalls++
		g.draftPrompts = append(g.draftPrompts, prompt)
		return structured.Response{Text: g.drafts[i]}, nil
	}
}

func testClusters() types.ClusterResult {
	return types.ClusterResult{
		Clusters: []types.TopicCluster{
			{ClusterID: "arch", Name: "Architectures", PaperIDs: []string{"p1", "p2"}},
		},
		MainDirections: []string{"scaling"},
	}
}

func manyPapers(n int) []types.PaperItem {
	papers := make([]types.PaperItem, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("p%d", i+1)
		papers = append(papers, types.PaperItem{
			PaperID: id,
			Title:   fmt.Sprintf("Paper %d", i+1),
			Year:    2023,
		})
	}
	return papers
}

func TestReasonHappyPath(t *testing.T) {
	gen := &stageGenerator{drafts: []string{validDraft}, critiques: []string{passedCritique}}

	r := NewReasoner(gen, nil)
	result, warnings, err := r.Reason(context.Background(), types.QueryPlan{Topic: "t"}, testClusters(), manyPapers(2))
	require.NoError(t, err)

	assert.Empty(t, warnings)
	assert.Equal(t, 1, gen.draftCalls)
	assert.Equal(t, 1, gen.critiqueCalls)

	// The result joins the cluster set with the draft.
	require.Len(t, result.Clusters, 1)
	require.Len(t, result.Claims, 1)
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, "overview", result.Meta["summary"])
}

func TestReasonShrinksOnMalformed(t *testing.T) {
	// The first prompt size burns its three parse attempts; the next size
	// succeeds immediately.
	gen := &stageGenerator{
		drafts:    []string{"broken", "broken", "broken", validDraft},
		critiques: []string{passedCritique},
	}

	r := NewReasoner(gen, nil)
	_, _, err := r.Reason(context.Background(), types.QueryPlan{Topic: "t"}, testClusters(), manyPapers(60))
	require.NoError(t, err)

	assert.Equal(t, 4, gen.draftCalls)
	require.Len(t, gen.draftPrompts, 4)

	// 60 papers at full size, 40 after the first shrink.
	assert.Contains(t, gen.draftPrompts[0], "p60")
	assert.NotContains(t, gen.draftPrompts[3], "p41")
	assert.Contains(t, gen.draftPrompts[3], "p40")
}

func TestReasonFailsAfterAllSizes(t *testing.T) {
	gen := &stageGenerator{drafts: []string{"always broken"}}

	r := NewReasoner(gen, nil)
	_, _, err := r.Reason(context.Background(), types.QueryPlan{Topic: "t"}, testClusters(), manyPapers(2))
	require.Error(t, err)

	// Three sizes, three parse attempts each.
	assert.Equal(t, 9, gen.draftCalls)
	var malformed *structured.MalformedError
	assert.ErrorAs(t, err, &malformed)
}

func TestReasonRefinesOnFailedCritique(t *testing.T) {
	gen := &stageGenerator{
		drafts:    []string{validDraft},
		critiques: []string{failedCritique, passedCritique},
		refines:   []string{validDraft},
	}

	r := NewReasoner(gen, nil)
	_, warnings, err := r.Reason(context.Background(), types.QueryPlan{Topic: "t"}, testClusters(), manyPapers(2))
	require.NoError(t, err)

	assert.Empty(t, warnings)
	assert.Equal(t, 2, gen.critiqueCalls)
	assert.Equal(t, 1, gen.refineCalls)
}

func TestReasonWarnsWhenCritiqueNeverPasses(t *testing.T) {
	gen := &stageGenerator{
		drafts:    []string{validDraft},
		critiques: []string{failedCritique},
		refines:   []string{validDraft},
	}

	r := NewReasoner(gen, nil)
	result, warnings, err := r.Reason(context.Background(), types.QueryPlan{Topic: "t"}, testClusters(), manyPapers(2))
	require.NoError(t, err)

	// Two refinements, then the draft ships with the open findings.
	assert.Equal(t, 3, gen.critiqueCalls)
	assert.Equal(t, 2, gen.refineCalls)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "overgeneralizes")
	assert.Len(t, result.Claims, 1)
}

func TestReasonIntegrityGate(t *testing.T) {
	fabricated := strings.ReplaceAll(validDraft, `"supporting_papers": ["p1"]`, `"supporting_papers": ["ghost"]`)
	gen := &stageGenerator{drafts: []string{fabricated}, critiques: []string{passedCritique}}

	r := NewReasoner(gen, nil)
	_, _, err := r.Reason(context.Background(), types.QueryPlan{Topic: "t"}, testClusters(), manyPapers(2))

	var ierr *validate.IntegrityError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "ghost", ierr.Ref)
	assert.Equal(t, "paper", ierr.Kind)
}

func TestReasonCritiqueFailureIsNotTerminal(t *testing.T) {
	gen := &stageGenerator{drafts: []string{validDraft}, critiques: []string{"not json", "not json", "not json"}}

	r := NewReasoner(gen, nil)
	result, warnings, err := r.Reason(context.Background(), types.QueryPlan{Topic: "t"}, testClusters(), manyPapers(2))
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "unreviewed")
	assert.Len(t, result.Claims, 1)
}
