// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reason synthesizes claims and research gaps over the clustered
// paper set, reviews the draft with a critique pass, and enforces the
// referential-integrity gate before the result becomes an artifact.
package reason

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/survey-engine/internal/structured"
	"github.com/pdiddy/survey-engine/internal/validate"
	"github.com/pdiddy/survey-engine/pkg/types"
)

const reasonSystem = "You are synthesizing findings for a literature survey. Reply only with JSON."

// promptSizes is the shrink ladder for the reasoning prompt: how many papers
// are detailed per attempt. A malformed draft at one size retries at the
// next smaller size before the stage gives up.
var promptSizes = []int{80, 40, 20}

// maxRefinements bounds the critique loop. A draft still failing review
// after this many refinements ships with its findings as warnings.
const maxRefinements = 2

// Reasoner produces the reasoning artifact for a run.
type Reasoner struct {
	gen structured.Generator
	log structured.EventLogger
}

// NewReasoner returns a reasoner over the given generator.
func NewReasoner(gen structured.Generator, log structured.EventLogger) *Reasoner {
	return &Reasoner{gen: gen, log: log}
}

// Reason drafts claims and gaps, runs the critique loop, and gates the final
// draft on referential integrity against the retrieved papers and the
// cluster set. The returned warnings record a critique that never passed.
func (r *Reasoner) Reason(ctx context.Context, plan types.QueryPlan, clusters types.ClusterResult, papers []types.PaperItem) (types.ReasoningResult, []string, error) {
	draft, err := r.draftWithShrink(ctx, plan, clusters, papers)
	if err != nil {
		return types.ReasoningResult{}, nil, err
	}

	draft, warnings, err := r.critiqueLoop(ctx, plan, clusters, papers, draft)
	if err != nil {
		return types.ReasoningResult{}, nil, err
	}

	knownPapers := make(map[string]bool, len(papers))
	for _, p := range papers {
		knownPapers[p.PaperID] = true
	}
	if err := validate.Reasoning(draft, knownPapers, clusters.ClusterIDSet()); err != nil {
		return types.ReasoningResult{}, nil, err
	}

	result := types.ReasoningResult{
		Clusters: clusters.Clusters,
		Claims:   draft.Claims,
		Gaps:     draft.Gaps,
		Meta:     draft.Meta,
	}
	return result, warnings, nil
}

// draftWithShrink walks the prompt-size ladder. Malformed output retries at
// the next smaller size; empty output and fatal backend errors are terminal.
func (r *Reasoner) draftWithShrink(ctx context.Context, plan types.QueryPlan, clusters types.ClusterResult, papers []types.PaperItem) (types.ReasoningDraft, error) {
	var lastErr error
	for _, size := range promptSizes {
		detailed := papers
		if len(detailed) > size {
			detailed = detailed[:size]
		}

		req := structured.Request{
			System: reasonSystem,
			Prompt: buildDraftPrompt(plan, clusters, detailed),
		}

		var draft types.ReasoningDraft
		err := structured.GenerateObject(ctx, r.gen, string(types.StageReason), req, &draft, r.log)
		if err == nil {
			return draft, nil
		}
		lastErr = err

		var malformed *structured.MalformedError
		if !errors.As(err, &malformed) {
			return types.ReasoningDraft{}, err
		}
		if r.log != nil {
			r.log.Log(string(types.StageReason), "shrink_retry", map[string]any{
				"size": size, "error": err.Error(),
			})
		}
	}
	return types.ReasoningDraft{}, fmt.Errorf("reasoning failed at every prompt size: %w", lastErr)
}

// critiqueLoop reviews the draft and refines it on concrete findings, at
// most maxRefinements times. A critique call failing is not terminal; the
// current draft stands.
func (r *Reasoner) critiqueLoop(ctx context.Context, plan types.QueryPlan, clusters types.ClusterResult, papers []types.PaperItem, draft types.ReasoningDraft) (types.ReasoningDraft, []string, error) {
	for round := 0; ; round++ {
		critique, err := r.critique(ctx, plan, draft)
		if err != nil {
			var fatal *structured.FatalError
			if errors.As(err, &fatal) {
				return types.ReasoningDraft{}, nil, err
			}
			if r.log != nil {
				r.log.Log(string(types.StageReason), "critique_error", map[string]any{"error": err.Error()})
			}
			return draft, []string{fmt.Sprintf("critique pass failed (%v); draft accepted unreviewed", err)}, nil
		}

		if critique.Passed {
			return draft, nil, nil
		}
		if round == maxRefinements {
			warning := fmt.Sprintf("critique still failing after %d refinements: %s",
				maxRefinements, strings.Join(critique.Findings, "; "))
			return draft, []string{warning}, nil
		}

		if r.log != nil {
			r.log.Log(string(types.StageReason), "refinement", map[string]any{
				"round": round + 1, "findings": critique.Findings,
			})
		}
		refined, err := r.refine(ctx, plan, clusters, papers, draft, critique.Findings)
		if err != nil {
			var fatal *structured.FatalError
			if errors.As(err, &fatal) {
				return types.ReasoningDraft{}, nil, err
			}
			warning := fmt.Sprintf("refinement failed (%v); keeping previous draft with open findings: %s",
				err, strings.Join(critique.Findings, "; "))
			return draft, []string{warning}, nil
		}
		draft = refined
	}
}

func (r *Reasoner) critique(ctx context.Context, plan types.QueryPlan, draft types.ReasoningDraft) (types.CritiqueResult, error) {
	req := structured.Request{
		System: "You are reviewing survey findings for rigor. Reply only with JSON.",
		Prompt: buildCritiquePrompt(plan, draft),
	}
	var critique types.CritiqueResult
	err := structured.GenerateObject(ctx, r.gen, string(types.StageReason), req, &critique, r.log)
	return critique, err
}

func (r *Reasoner) refine(ctx context.Context, plan types.QueryPlan, clusters types.ClusterResult, papers []types.PaperItem, draft types.ReasoningDraft, findings []string) (types.ReasoningDraft, error) {
	req := structured.Request{
		System: reasonSystem,
		Prompt: buildRefinePrompt(plan, clusters, papers, draft, findings),
	}
	var refined types.ReasoningDraft
	err := structured.GenerateObject(ctx, r.gen, string(types.StageReason), req, &refined, r.log)
	return refined, err
}
