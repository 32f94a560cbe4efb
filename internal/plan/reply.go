// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/survey-engine/internal/structured"
	"github.com/pdiddy/survey-engine/pkg/types"
)

const replySystem = "You are a research assistant helping scope a literature survey. Reply only with JSON."

const replyPromptTemplate = `A user wants a literature survey on the topic below. Give them a short
orientation before the pipeline runs.

Topic: %s
%s
Reply with a single JSON object:
{
  "topic_summary": "two or three sentences framing the topic",
  "key_terms": [{"term": "...", "definition": "one sentence"}],
  "suggested_directions": ["angle worth surveying", ...],
  "suggested_search_queries": ["search query", ...]
}`

// BuildReply produces the conversational orientation shown in interactive
// mode before a run starts. It shares the planner's generator; a failure
// here is advisory and never blocks the pipeline.
func (p *Planner) BuildReply(ctx context.Context, topic, contextNote string) (types.AgentReply, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return types.AgentReply{}, fmt.Errorf("configuration: topic must not be empty")
	}

	note := ""
	if strings.TrimSpace(contextNote) != "" {
		note = "Context from the user: " + strings.TrimSpace(contextNote) + "\n"
	}
	req := structured.Request{
		System: replySystem,
		Prompt: fmt.Sprintf(replyPromptTemplate, topic, note),
	}

	var reply types.AgentReply
	if err := structured.GenerateObject(ctx, p.gen, string(types.StagePlan), req, &reply, p.log); err != nil {
		return types.AgentReply{}, err
	}
	return reply, nil
}
