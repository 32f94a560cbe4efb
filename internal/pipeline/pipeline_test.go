// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/survey-engine/internal/retrieve"
	"github.com/pdiddy/survey-engine/internal/runstore"
	"github.com/pdiddy/survey-engine/internal/structured"
	"github.com/pdiddy/survey-engine/pkg/types"
)

const planReply = `{
	"topic": "graph neural networks",
	"expanded_queries": ["graph neural networks survey"],
	"must_include": [],
	"exclude": [],
	"target_subtasks": ["architectures"],
	"notes": "n"
}`

const clusterReply = `{
	"clusters": [
		{"cluster_id": "arch", "name": "Architectures", "description": "d", "paper_ids": ["p1", "p2"]}
	],
	"main_directions": ["scaling"]
}`

const reasonReply = `{
	"claims": [
		{"claim_id": "c1", "claim_type": "trend", "statement": "s", "supporting_papers": ["p1"], "evidence": [], "confidence": 0.9}
	],
	"research_gaps": [],
	"meta": {"summary": "overview"}
}`

const critiqueReply = `{"passed": true, "findings": []}`

// routingGenerator answers each stage's prompt with its canned reply.
func routingGenerator() structured.Generator {
	return structured.GeneratorFunc(func(_ context.Context, req structured.Request) (structured.Response, error) {
		prompt := req.Prompt
		switch {
		case strings.Contains(prompt, "Plan literature-search queries"):
			return structured.Response{Text: planReply}, nil
		case strings.Contains(prompt, "Group the papers"):
			return structured.Response{Text: clusterReply}, nil
		case strings.Contains(prompt, "Review the survey findings"):
			return structured.Response{Text: critiqueReply}, nil
		default:
			return structured.Response{Text: reasonReply}, nil
		}
	})
}

type stubRetriever struct {
	result types.RetrievalResult
	err    error
}

func (s *stubRetriever) Retrieve(context.Context, []string) (types.RetrievalResult, error) {
	return s.result, s.err
}

func testConfig(t *testing.T) *types.PipelineConfig {
	t.Helper()
	base := t.TempDir()
	cfg := types.DefaultConfig()
	cfg.RunsDir = filepath.Join(base, "runs")
	cfg.CacheDir = filepath.Join(base, "cache")
	cfg.StageTimeout = time.Minute
	cfg.AI.APIKey = "test-key"
	cfg.Retrieval.SemanticScholarAPIKey = "ss-key"
	return cfg
}

func newTestPipeline(t *testing.T, ret paperRetriever) *Pipeline {
	t.Helper()
	p, err := New(testConfig(t), routingGenerator())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	p.newRetriever = func(*runstore.Run) paperRetriever { return ret }
	return p
}

func retrievedPapers() types.RetrievalResult {
	return types.RetrievalResult{
		QueriesUsed: []string{"graph neural networks survey"},
		Papers: []types.PaperItem{
			{PaperID: "p1", Title: "Graph Transformers", Year: 2024, Abstract: "a", Source: "arxiv"},
			{PaperID: "p2", Title: "Message Passing Limits", Year: 2023, Abstract: "b", Source: "openalex"},
		},
		DedupBefore: 3,
		DedupAfter:  2,
		Warnings:    []string{"openalex rate-limited for query \"q\""},
	}
}

func TestRunProducesAllArtifacts(t *testing.T) {
	p := newTestPipeline(t, &stubRetriever{result: retrievedPapers()})

	run, err := p.Run(context.Background(), "graph neural networks", "focus on scalability")
	require.NoError(t, err)
	defer run.Close()

	for _, name := range []string{
		InputFile, ConfigFile, PlanFile, RetrievalFile, ClustersFile,
		ReasoningFile, FinalFile, ReportFile, ReferencesFile,
		runstore.StatusFile, "events.jsonl",
	} {
		assert.FileExists(t, filepath.Join(run.Dir, name), name)
	}

	status, err := run.ReadStatus()
	require.NoError(t, err)
	for _, stage := range types.Stages {
		assert.Equal(t, types.StateOK, status.Stages[stage], stage)
	}
	assert.Nil(t, status.Error)

	var final types.FinalOutput
	require.NoError(t, run.ReadArtifact(FinalFile, &final))
	assert.Equal(t, run.ID, final.RunID)
	assert.Len(t, final.Papers, 2)
	require.Len(t, final.Clusters, 1)
	assert.Equal(t, []string{"scaling"}, final.MainDirections)
	require.Len(t, final.Reasoning.Claims, 1)

	// Retrieval warnings flow into the final output.
	found := false
	for _, w := range final.Warnings {
		if strings.Contains(w, "rate-limited") {
			found = true
		}
	}
	assert.True(t, found, "expected retrieval warning in %v", final.Warnings)
}

func TestRunRedactsCredentials(t *testing.T) {
	p := newTestPipeline(t, &stubRetriever{result: retrievedPapers()})

	run, err := p.Run(context.Background(), "topic", "")
	require.NoError(t, err)
	defer run.Close()

	data, err := os.ReadFile(filepath.Join(run.Dir, ConfigFile))
	require.NoError(t, err)
	snapshot := string(data)
	assert.NotContains(t, snapshot, "test-key")
	assert.NotContains(t, snapshot, "ss-key")
	assert.Contains(t, snapshot, "[redacted]")
}

func TestRunRetrievalFailureRecorded(t *testing.T) {
	empty := types.RetrievalResult{
		QueriesUsed: []string{"graph neural networks survey"},
		Warnings:    []string{},
	}
	p := newTestPipeline(t, &stubRetriever{result: empty, err: retrieve.ErrNoPapers})

	run, err := p.Run(context.Background(), "obscure topic", "")
	require.Error(t, err)
	require.NotNil(t, run)
	defer run.Close()

	assert.ErrorIs(t, err, retrieve.ErrNoPapers)

	status, serr := run.ReadStatus()
	require.NoError(t, serr)
	assert.Equal(t, types.StateOK, status.Stages[types.StagePlan])
	assert.Equal(t, types.StateFail, status.Stages[types.StageRetrieve])
	assert.Equal(t, types.StatePending, status.Stages[types.StageCluster])
	require.NotNil(t, status.Error)
	assert.Equal(t, types.StageRetrieve, status.Error.Stage)

	// The retrieval artifact is persisted even though the stage failed.
	var result types.RetrievalResult
	require.NoError(t, run.ReadArtifact(RetrievalFile, &result))
	assert.Equal(t, []string{"graph neural networks survey"}, result.QueriesUsed)

	// Packaging never ran.
	assert.NoFileExists(t, filepath.Join(run.Dir, FinalFile))
}

func TestStageStatusWriteFailureMarksStageFailed(t *testing.T) {
	p := newTestPipeline(t, &stubRetriever{result: retrievedPapers()})

	run, err := runstore.NewRun(t.TempDir(), "topic")
	require.NoError(t, err)
	defer run.Close()

	// A directory squatting on the status path makes every status write fail.
	require.NoError(t, os.Mkdir(filepath.Join(run.Dir, runstore.StatusFile), 0o755))

	status := types.NewRunStatus(run.ID, "topic")
	err = p.stage(context.Background(), run, &status, types.StagePlan, func(context.Context) error { return nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage plan")
	assert.Contains(t, err.Error(), "writing status")
	// The stage does not stay marked ok when its transition could not be
	// persisted.
	assert.Equal(t, types.StateFail, status.Stages[types.StagePlan])
	require.NotNil(t, status.Error)
	assert.Equal(t, types.StagePlan, status.Error.Stage)
}

func TestRunWritesInputRecord(t *testing.T) {
	p := newTestPipeline(t, &stubRetriever{result: retrievedPapers()})

	run, err := p.Run(context.Background(), "graph neural networks", "scalability focus")
	require.NoError(t, err)
	defer run.Close()

	var input types.InputRecord
	require.NoError(t, run.ReadArtifact(InputFile, &input))
	assert.Equal(t, "graph neural networks", input.Topic)
	assert.Equal(t, "scalability focus", input.Context)
}
