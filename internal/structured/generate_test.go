// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structured

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator replays canned responses in order.
type scriptedGenerator struct {
	responses []Response
	errs      []error
	calls     int
	requests  []Request
}

func (g *scriptedGenerator) Generate(_ context.Context, req Request) (Response, error) {
	i := g.calls
	g.calls++
	g.requests = append(g.requests, req)
	if i < len(g.errs) && g.errs[i] != nil {
		return Response{}, g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return Response{}, fmt.Errorf("unexpected call %d", i)
}

// recordedEvent captures one EventLogger call.
type recordedEvent struct {
	stage string
	event string
	meta  map[string]any
}

type recordingLogger struct {
	events []recordedEvent
}

func (l *recordingLogger) Log(stage, event string, meta map[string]any) {
	l.events = append(l.events, recordedEvent{stage: stage, event: event, meta: meta})
}

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (d *testDoc) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name is empty")
	}
	return nil
}

func TestGenerateObjectFirstTry(t *testing.T) {
	gen := &scriptedGenerator{responses: []Response{
		{Text: `{"name": "x", "count": 3}`},
	}}

	var doc testDoc
	err := GenerateObject(context.Background(), gen, "plan", Request{Prompt: "p"}, &doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "x", doc.Name)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerateObjectAttemptEventCarriesModelAndPreview(t *testing.T) {
	gen := &scriptedGenerator{responses: []Response{
		{Text: `{"name": "x", "count": 3}`, ModelID: "gemini-3-flash", LatencyMS: 42},
	}}
	log := &recordingLogger{}

	var doc testDoc
	err := GenerateObject(context.Background(), gen, "plan", Request{Prompt: "p"}, &doc, log)
	require.NoError(t, err)

	require.Len(t, log.events, 1)
	ev := log.events[0]
	assert.Equal(t, "plan", ev.stage)
	assert.Equal(t, "generation_attempt", ev.event)
	assert.Equal(t, "gemini-3-flash", ev.meta["model"])
	assert.Equal(t, int64(42), ev.meta["latency_ms"])
	assert.Equal(t, `{"name": "x", "count": 3}`, ev.meta["preview"])
}

func TestGenerateObjectAttemptPreviewBounded(t *testing.T) {
	long := `{"name": "x", "count": 3, "pad": "` + strings.Repeat("y", 2*previewLimit) + `"}`
	gen := &scriptedGenerator{responses: []Response{{Text: long, ModelID: "gemini-3-flash"}}}
	log := &recordingLogger{}

	var doc testDoc
	err := GenerateObject(context.Background(), gen, "plan", Request{Prompt: "p"}, &doc, log)
	require.NoError(t, err)

	preview, ok := log.events[0].meta["preview"].(string)
	require.True(t, ok)
	assert.LessOrEqual(t, len(preview), previewLimit+3)
}

func TestGenerateObjectRepairsMalformed(t *testing.T) {
	gen := &scriptedGenerator{responses: []Response{
		{Text: `not json at all`},
		{Text: `{"name": "fixed", "count": 1}`},
	}}

	var doc testDoc
	err := GenerateObject(context.Background(), gen, "plan", Request{Prompt: "original prompt"}, &doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed", doc.Name)
	assert.Equal(t, 2, gen.calls)

	// The repair turn shows the model its broken output and the original request.
	repair := gen.requests[1].Prompt
	assert.Contains(t, repair, "not json at all")
	assert.Contains(t, repair, "original prompt")
}

func TestGenerateObjectExactlyThreeParseAttempts(t *testing.T) {
	gen := &scriptedGenerator{responses: []Response{
		{Text: `broken 1`},
		{Text: `broken 2`},
		{Text: `broken 3`},
		{Text: `{"name": "never reached", "count": 0}`},
	}}

	var doc testDoc
	err := GenerateObject(context.Background(), gen, "plan", Request{Prompt: "p"}, &doc, nil)

	var malformed *MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 3, gen.calls)
}

func TestGenerateObjectValidationFailureIsMalformed(t *testing.T) {
	gen := &scriptedGenerator{responses: []Response{
		{Text: `{"name": "", "count": 1}`},
		{Text: `{"name": "ok", "count": 1}`},
	}}

	var doc testDoc
	err := GenerateObject(context.Background(), gen, "plan", Request{Prompt: "p"}, &doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", doc.Name)
	assert.Equal(t, 2, gen.calls)
}

func TestGenerateObjectEmptyOutputIsTerminal(t *testing.T) {
	gen := &scriptedGenerator{responses: []Response{
		{Text: "   \n"},
		{Text: `{"name": "never", "count": 0}`},
	}}

	var doc testDoc
	err := GenerateObject(context.Background(), gen, "plan", Request{Prompt: "p"}, &doc, nil)

	require.ErrorIs(t, err, ErrEmptyOutput)
	// No repair attempt follows an empty completion.
	assert.Equal(t, 1, gen.calls)
}

func TestGenerateObjectFatalBypassesRepair(t *testing.T) {
	fatal := &FatalError{Reason: "quota exhausted", Err: errors.New("429 RESOURCE_EXHAUSTED")}
	gen := &scriptedGenerator{errs: []error{fatal}}

	var doc testDoc
	err := GenerateObject(context.Background(), gen, "plan", Request{Prompt: "p"}, &doc, nil)

	var got *FatalError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 1, gen.calls)
}

func TestMalformedErrorPreviewBounded(t *testing.T) {
	raw := strings.Repeat("x", 5000)
	merr := newMalformedError("cause", raw)

	assert.LessOrEqual(t, len(merr.Preview), previewLimit+3)
	assert.Contains(t, merr.Error(), "cause")
}
