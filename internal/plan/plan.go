// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan builds the query plan that drives retrieval: a set of search
// queries expanded from the user's topic, with inclusion and exclusion hints
// for the later stages.
package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/survey-engine/internal/structured"
	"github.com/pdiddy/survey-engine/pkg/types"
)

const planSystem = "You are a research librarian planning a literature survey. Reply only with JSON."

const planPromptTemplate = `Plan literature-search queries for a survey on the topic below.

Topic: %s
%s
Produce between 3 and 6 search queries that together cover the topic's main
subareas. Prefer concrete technical phrasings over broad umbrella terms.

Reply with a single JSON object:
{
  "topic": "the topic, restated",
  "expanded_queries": ["query 1", "query 2", ...],
  "must_include": ["concept the survey must cover", ...],
  "exclude": ["concept to keep out", ...],
  "target_subtasks": ["subarea to survey", ...],
  "notes": "one sentence on the planned coverage"
}`

// Planner generates query plans.
type Planner struct {
	gen structured.Generator
	log structured.EventLogger
}

// NewPlanner returns a planner over the given generator.
func NewPlanner(gen structured.Generator, log structured.EventLogger) *Planner {
	return &Planner{gen: gen, log: log}
}

// BuildPlan asks the model for a query plan. When generation fails for any
// non-fatal reason the planner falls back to a deterministic plan derived
// from the raw topic, records the fallback in the event log, and reports it
// as a warning. Fatal backend errors abort the stage.
func (p *Planner) BuildPlan(ctx context.Context, topic, contextNote string) (types.QueryPlan, []string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return types.QueryPlan{}, nil, fmt.Errorf("configuration: topic must not be empty")
	}

	note := ""
	if strings.TrimSpace(contextNote) != "" {
		note = "Context from the user: " + strings.TrimSpace(contextNote) + "\n"
	}
	req := structured.Request{
		System: planSystem,
		Prompt: fmt.Sprintf(planPromptTemplate, topic, note),
	}

	var qp types.QueryPlan
	err := structured.GenerateObject(ctx, p.gen, string(types.StagePlan), req, &qp, p.log)
	if err == nil {
		qp.Topic = topic
		return qp, nil, nil
	}

	var fatal *structured.FatalError
	if errors.As(err, &fatal) {
		return types.QueryPlan{}, nil, err
	}

	if p.log != nil {
		p.log.Log(string(types.StagePlan), "fallback_plan", map[string]any{"error": err.Error()})
	}
	warning := fmt.Sprintf("query planning failed (%v); using fallback plan built from the topic", err)
	return FallbackPlan(topic), []string{warning}, nil
}

// FallbackPlan derives a deterministic query plan from the raw topic. It
// keeps the pipeline running when the model cannot produce a usable plan.
func FallbackPlan(topic string) types.QueryPlan {
	return types.QueryPlan{
		Topic: topic,
		ExpandedQueries: []string{
			topic,
			topic + " survey",
			topic + " recent advances",
		},
		Notes: "fallback plan derived from the raw topic",
	}
}
