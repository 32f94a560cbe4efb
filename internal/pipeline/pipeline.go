// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates one survey run: plan, retrieve, cluster,
// reason, then packaging. Each stage persists its artifact before the next
// stage starts, and the status document is rewritten on every transition so
// a run is inspectable mid-flight and after a crash.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/survey-engine/internal/cache"
	"github.com/pdiddy/survey-engine/internal/cluster"
	"github.com/pdiddy/survey-engine/internal/plan"
	"github.com/pdiddy/survey-engine/internal/reason"
	"github.com/pdiddy/survey-engine/internal/report"
	"github.com/pdiddy/survey-engine/internal/retrieve"
	"github.com/pdiddy/survey-engine/internal/runstore"
	"github.com/pdiddy/survey-engine/internal/structured"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// Artifact filenames within a run directory.
const (
	InputFile      = "input.json"
	ConfigFile     = "config.yaml"
	PlanFile       = "plan.json"
	RetrievalFile  = "retrieval.json"
	ClustersFile   = "clusters.json"
	ReasoningFile  = "reasoning.json"
	FinalFile      = "final.json"
	ReportFile     = "report.md"
	ReferencesFile = "references.yaml"
)

// paperRetriever is the retrieval stage seen by the orchestrator.
type paperRetriever interface {
	Retrieve(ctx context.Context, queries []string) (types.RetrievalResult, error)
}

// Pipeline executes survey runs. One Pipeline serves many runs; the response
// cache is shared across them while all run state lives in the run directory.
type Pipeline struct {
	cfg    *types.PipelineConfig
	gen    structured.Generator
	store  *cache.Store
	client *http.Client

	// newRetriever builds the retrieval stage for one run. Tests substitute
	// a fake to avoid the network.
	newRetriever func(run *runstore.Run) paperRetriever
}

// New builds a pipeline from validated configuration and a generator. The
// caller owns closing the returned pipeline.
func New(cfg *types.PipelineConfig, gen structured.Generator) (*Pipeline, error) {
	store, err := cache.Open(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("opening response cache: %w", err)
	}
	p := &Pipeline{
		cfg:    cfg,
		gen:    gen,
		store:  store,
		client: &http.Client{Timeout: cfg.Retrieval.Timeout},
	}
	p.newRetriever = func(run *runstore.Run) paperRetriever {
		return retrieve.NewEngine(cfg.Retrieval, p.client, p.store, run)
	}
	return p, nil
}

// Close releases the shared response cache.
func (p *Pipeline) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

// Run executes the full pipeline for one topic. It always returns the run
// (with whatever artifacts were persisted) so a failed run can still be
// inspected; the error reports the first stage that failed.
func (p *Pipeline) Run(ctx context.Context, topic, contextNote string) (*runstore.Run, error) {
	run, err := runstore.NewRun(p.cfg.RunsDir, topic)
	if err != nil {
		return nil, err
	}

	if err := run.WriteArtifact(InputFile, types.InputRecord{Topic: topic, Context: contextNote}); err != nil {
		return run, err
	}
	if err := p.writeConfigSnapshot(run); err != nil {
		return run, err
	}

	status := types.NewRunStatus(run.ID, topic)
	if err := run.WriteStatus(status); err != nil {
		return run, err
	}

	var warnings []string

	// Plan.
	var qp types.QueryPlan
	err = p.stage(ctx, run, &status, types.StagePlan, func(ctx context.Context) error {
		planner := plan.NewPlanner(p.gen, run)
		built, warns, err := planner.BuildPlan(ctx, topic, contextNote)
		if err != nil {
			return err
		}
		qp = built
		warnings = append(warnings, warns...)
		return run.WriteArtifact(PlanFile, qp)
	})
	if err != nil {
		return run, err
	}

	// Retrieve.
	var papers types.RetrievalResult
	err = p.stage(ctx, run, &status, types.StageRetrieve, func(ctx context.Context) error {
		engine := p.newRetriever(run)
		result, err := engine.Retrieve(ctx, qp.ExpandedQueries)
		// The artifact is written even on failure: counters and warnings
		// explain an empty result.
		if werr := run.WriteArtifact(RetrievalFile, result); werr != nil && err == nil {
			err = werr
		}
		papers = result
		warnings = append(warnings, result.Warnings...)
		return err
	})
	if err != nil {
		return run, err
	}

	// Cluster.
	var clusters types.ClusterResult
	err = p.stage(ctx, run, &status, types.StageCluster, func(ctx context.Context) error {
		clusterer := cluster.NewClusterer(p.gen, run)
		result, err := clusterer.Cluster(ctx, qp, papers.Papers)
		if err != nil {
			return err
		}
		clusters = result
		return run.WriteArtifact(ClustersFile, clusters)
	})
	if err != nil {
		return run, err
	}

	// Reason.
	var reasoning types.ReasoningResult
	err = p.stage(ctx, run, &status, types.StageReason, func(ctx context.Context) error {
		reasoner := reason.NewReasoner(p.gen, run)
		result, warns, err := reasoner.Reason(ctx, qp, clusters, papers.Papers)
		if err != nil {
			return err
		}
		reasoning = result
		warnings = append(warnings, warns...)
		return run.WriteArtifact(ReasoningFile, reasoning)
	})
	if err != nil {
		return run, err
	}

	// Package. Pure assembly of persisted artifacts, no generation.
	final := types.FinalOutput{
		RunID:          run.ID,
		Topic:          topic,
		Plan:           qp,
		Papers:         papers.Papers,
		Clusters:       clusters.Clusters,
		MainDirections: clusters.MainDirections,
		Reasoning:      reasoning,
		Warnings:       warnings,
		GeneratedAt:    time.Now().UTC(),
	}
	if err := run.WriteArtifact(FinalFile, final); err != nil {
		return run, err
	}
	if err := run.WriteRaw(ReportFile, []byte(report.RenderMarkdown(final))); err != nil {
		return run, err
	}
	if err := p.writeReferences(run, final.Papers); err != nil {
		return run, err
	}

	run.Log("package", "run_complete", map[string]any{
		"papers": len(final.Papers), "claims": len(reasoning.Claims), "warnings": len(warnings),
	})
	return run, nil
}

// stage runs one pipeline stage under the per-stage deadline and keeps the
// status document current on both sides of the transition.
func (p *Pipeline) stage(ctx context.Context, run *runstore.Run, status *types.RunStatus, name types.Stage, fn func(context.Context) error) error {
	run.Log(string(name), "stage_start", nil)

	stageCtx := ctx
	if p.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, p.cfg.StageTimeout)
		defer cancel()
	}

	if err := fn(stageCtx); err != nil {
		return p.failStage(run, status, name, err)
	}

	status.Stages[name] = types.StateOK
	if err := run.WriteStatus(*status); err != nil {
		// The stage's work succeeded, but a run whose status cannot be
		// persisted is still a failed run.
		return p.failStage(run, status, name, fmt.Errorf("writing status: %w", err))
	}
	run.Log(string(name), "stage_ok", nil)
	return nil
}

// failStage records a stage failure in the status document and the event log,
// then wraps the error with the stage name.
func (p *Pipeline) failStage(run *runstore.Run, status *types.RunStatus, name types.Stage, err error) error {
	status.Stages[name] = types.StateFail
	status.Error = &types.StageError{Stage: name, Message: err.Error()}
	if werr := run.WriteStatus(*status); werr != nil {
		run.Log(string(name), "status_write_error", map[string]any{"error": werr.Error()})
	}
	run.Log(string(name), "stage_fail", map[string]any{"error": err.Error()})
	return fmt.Errorf("stage %s: %w", name, err)
}

// writeConfigSnapshot persists the resolved configuration with credentials
// redacted, so a run records what it ran with.
func (p *Pipeline) writeConfigSnapshot(run *runstore.Run) error {
	snapshot := *p.cfg
	if snapshot.AI.APIKey != "" {
		snapshot.AI.APIKey = "[redacted]"
	}
	if snapshot.Retrieval.SemanticScholarAPIKey != "" {
		snapshot.Retrieval.SemanticScholarAPIKey = "[redacted]"
	}

	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding config snapshot: %w", err)
	}
	return run.WriteRaw(ConfigFile, data)
}

func (p *Pipeline) writeReferences(run *runstore.Run, papers []types.PaperItem) error {
	var buf bytes.Buffer
	if err := report.WriteCSL(papers, &buf); err != nil {
		return fmt.Errorf("encoding references: %w", err)
	}
	return run.WriteRaw(ReferencesFile, buf.Bytes())
}
