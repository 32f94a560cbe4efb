// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// maxRepairs is how many repair calls follow a malformed completion. The
// protocol makes at most 1 + maxRepairs backend calls per object.
const maxRepairs = 2

// Validator is implemented by artifact schemas that check their own shape
// after decoding.
type Validator interface {
	Validate() error
}

// GenerateObject runs the structured-generation protocol: call the backend,
// extract and decode the JSON object into out, and validate it. A malformed
// completion triggers a repair call that shows the model its own broken
// output; an empty completion or a fatal backend error ends the call at
// once. Every attempt is recorded in the event log.
func GenerateObject(ctx context.Context, g Generator, stage string, req Request, out any, log EventLogger) error {
	current := req
	for attempt := 1; attempt <= 1+maxRepairs; attempt++ {
		resp, err := g.Generate(ctx, current)
		if err != nil {
			logEvent(log, stage, "generation_error", map[string]any{
				"attempt": attempt, "error": err.Error(),
			})
			return err
		}
		logEvent(log, stage, "generation_attempt", map[string]any{
			"attempt": attempt, "model": resp.ModelID, "latency_ms": resp.LatencyMS,
			"chars": len(resp.Text), "preview": truncatePreview(resp.Text),
		})

		if strings.TrimSpace(resp.Text) == "" {
			logEvent(log, stage, "empty_output", map[string]any{"attempt": attempt})
			return ErrEmptyOutput
		}

		merr := decodeInto(resp.Text, out)
		if merr == nil {
			return nil
		}

		logEvent(log, stage, "malformed_output", map[string]any{
			"attempt": attempt, "cause": merr.Cause, "preview": merr.Preview,
		})
		if attempt == 1+maxRepairs {
			return merr
		}
		current = Request{System: req.System, Prompt: repairPrompt(req.Prompt, resp.Text, merr.Cause)}
	}
	// Unreachable; the loop always returns.
	return fmt.Errorf("structured generation fell through")
}

// decodeInto extracts, decodes, and validates one completion. It returns nil
// on success and a MalformedError describing the first failure otherwise.
func decodeInto(text string, out any) *MalformedError {
	obj := ExtractObject(text)
	if obj == "" {
		return newMalformedError("no complete JSON object in output", text)
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return newMalformedError(err.Error(), obj)
	}
	if v, ok := out.(Validator); ok {
		if err := v.Validate(); err != nil {
			return newMalformedError(err.Error(), obj)
		}
	}
	return nil
}

// repairPrompt wraps the original prompt with the broken output and the
// parse failure so the model can correct itself.
func repairPrompt(original, badOutput, cause string) string {
	if len(badOutput) > 4000 {
		badOutput = badOutput[:4000] + "..."
	}
	return fmt.Sprintf(`Your previous reply could not be parsed.

Parse error: %s

Previous reply:
%s

Respond again to the original request below. Reply with a single valid JSON object and nothing else.

Original request:
%s`, cause, badOutput, original)
}

func logEvent(log EventLogger, stage, event string, meta map[string]any) {
	if log != nil {
		log.Log(stage, event, meta)
	}
}
