// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package structured implements the structured-generation protocol: sending a
// prompt to a text-generation backend, extracting the JSON object from the
// completion, and repairing malformed output with bounded retries.
package structured

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyOutput reports a completion with no usable text. An empty
// completion is terminal for the call: there is nothing to repair.
var ErrEmptyOutput = errors.New("model returned empty output")

// Request is one structured-generation call.
type Request struct {
	// System is the system instruction framing the model's role.
	System string

	// Prompt is the user-turn content, including the output schema the
	// model must follow.
	Prompt string
}

// Response is the raw outcome of one backend call.
type Response struct {
	// Text is the completion text.
	Text string

	// ModelID identifies the model that produced the completion.
	ModelID string

	// LatencyMS is the wall-clock duration of the call in milliseconds.
	LatencyMS int64
}

// Generator produces a completion for a request. Implementations wrap a
// concrete model API; tests substitute scripted fakes.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// EventLogger receives protocol events. Implementations must never fail the
// caller.
type EventLogger interface {
	Log(stage, event string, meta map[string]any)
}

// FatalError marks a backend failure that retrying or repairing cannot fix,
// such as exhausted quota or rejected credentials. The protocol surfaces it
// immediately instead of burning repair attempts.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal model error (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("fatal model error (%s)", e.Reason)
}

func (e *FatalError) Unwrap() error { return e.Err }

// previewLimit bounds how much raw model output a MalformedError carries.
const previewLimit = 400

// MalformedError reports a completion that could not be parsed into the
// expected structure, carrying a bounded preview of the offending text for
// the event log.
type MalformedError struct {
	Cause   string
	Preview string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed model output: %s", e.Cause)
}

// newMalformedError builds a MalformedError with raw truncated to the
// preview limit.
func newMalformedError(cause, raw string) *MalformedError {
	return &MalformedError{Cause: cause, Preview: truncatePreview(raw)}
}

// truncatePreview bounds raw model text for errors and event metadata.
func truncatePreview(raw string) string {
	if len(raw) > previewLimit {
		return raw[:previewLimit] + "..."
	}
	return raw
}
