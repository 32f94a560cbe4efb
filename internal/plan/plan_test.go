// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/survey-engine/internal/structured"
)

// fixedGenerator answers every call with the same response or error.
type fixedGenerator struct {
	text  string
	err   error
	calls int
}

func (g *fixedGenerator) Generate(context.Context, structured.Request) (structured.Response, error) {
	g.calls++
	if g.err != nil {
		return structured.Response{}, g.err
	}
	return structured.Response{Text: g.text}, nil
}

func TestBuildPlan(t *testing.T) {
	gen := &fixedGenerator{text: `{
		"topic": "restated topic",
		"expanded_queries": ["graph neural networks survey", "message passing networks"],
		"must_include": ["GNN"],
		"exclude": [],
		"target_subtasks": ["architectures", "applications"],
		"notes": "covers both"
	}`}

	p := NewPlanner(gen, nil)
	qp, warnings, err := p.BuildPlan(context.Background(), "graph neural networks", "")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// The user's topic wins over the model's restatement.
	assert.Equal(t, "graph neural networks", qp.Topic)
	assert.Len(t, qp.ExpandedQueries, 2)
	assert.Equal(t, []string{"architectures", "applications"}, qp.TargetSubtasks)
}

func TestBuildPlanFallsBackOnMalformed(t *testing.T) {
	gen := &fixedGenerator{text: "I cannot produce JSON today"}

	p := NewPlanner(gen, nil)
	qp, warnings, err := p.BuildPlan(context.Background(), "diffusion models", "")
	require.NoError(t, err)

	// Initial call plus two repairs, then the deterministic fallback.
	assert.Equal(t, 3, gen.calls)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "fallback")

	require.NoError(t, qp.Validate())
	assert.Equal(t, "diffusion models", qp.Topic)
	assert.Contains(t, qp.ExpandedQueries, "diffusion models")
	assert.Contains(t, qp.ExpandedQueries, "diffusion models survey")
}

func TestBuildPlanFallsBackOnEmptyOutput(t *testing.T) {
	gen := &fixedGenerator{text: "  "}

	p := NewPlanner(gen, nil)
	qp, warnings, err := p.BuildPlan(context.Background(), "topic", "")
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.NotEmpty(t, warnings)
	require.NoError(t, qp.Validate())
}

func TestBuildPlanFatalAborts(t *testing.T) {
	gen := &fixedGenerator{err: &structured.FatalError{Reason: "quota exhausted", Err: errors.New("429")}}

	p := NewPlanner(gen, nil)
	_, _, err := p.BuildPlan(context.Background(), "topic", "")

	var fatal *structured.FatalError
	require.ErrorAs(t, err, &fatal)
}

func TestBuildPlanEmptyTopic(t *testing.T) {
	p := NewPlanner(&fixedGenerator{}, nil)
	_, _, err := p.BuildPlan(context.Background(), "   ", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic")
}

func TestBuildReply(t *testing.T) {
	gen := &fixedGenerator{text: `{
		"topic_summary": "A short framing of the topic.",
		"key_terms": [{"term": "GNN", "definition": "graph neural network"}],
		"suggested_directions": ["scalability"],
		"suggested_search_queries": ["gnn scalability"]
	}`}

	p := NewPlanner(gen, nil)
	reply, err := p.BuildReply(context.Background(), "graph neural networks", "")
	require.NoError(t, err)

	assert.Equal(t, "A short framing of the topic.", reply.TopicSummary)
	require.Len(t, reply.KeyTerms, 1)
	assert.Equal(t, "GNN", reply.KeyTerms[0].Term)
	assert.Equal(t, []string{"gnn scalability"}, reply.SuggestedQueries)
}

func TestFallbackPlanIsDeterministic(t *testing.T) {
	a := FallbackPlan("quantum error correction")
	b := FallbackPlan("quantum error correction")
	assert.Equal(t, a, b)
	require.NoError(t, a.Validate())
}
