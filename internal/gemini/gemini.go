// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gemini adapts the Google GenAI SDK to the structured-generation
// protocol.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/pdiddy/survey-engine/internal/structured"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// Client is a structured.Generator backed by the Gemini API. Completions are
// requested as JSON so the extraction step rarely has to repair anything.
type Client struct {
	client *genai.Client
	cfg    types.AIConfig
}

// New creates a Gemini-backed generator from the AI configuration.
func New(ctx context.Context, cfg types.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	return &Client{client: client, cfg: cfg}, nil
}

// Generate sends one request and returns the completion text with its
// latency. Quota and authentication failures come back as
// structured.FatalError so the protocol does not waste repair attempts on
// them.
func (c *Client) Generate(ctx context.Context, req structured.Request) (structured.Response, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(c.cfg.Temperature)),
		ResponseMIMEType: "application/json",
	}
	if c.cfg.MaxOutputTokens > 0 {
		genCfg.MaxOutputTokens = int32(c.cfg.MaxOutputTokens)
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	start := time.Now()
	result, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, genCfg)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		if reason, fatal := classifyFatal(err); fatal {
			return structured.Response{}, &structured.FatalError{Reason: reason, Err: err}
		}
		return structured.Response{}, fmt.Errorf("gemini: generate: %w", err)
	}

	return structured.Response{Text: result.Text(), ModelID: c.cfg.Model, LatencyMS: latency}, nil
}

// classifyFatal recognizes backend failures that no retry or repair can fix.
func classifyFatal(err error) (string, bool) {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "resource_exhausted"), strings.Contains(msg, "quota"):
		return "quota exhausted", true
	case strings.Contains(msg, "api key"), strings.Contains(msg, "unauthenticated"),
		strings.Contains(msg, "permission_denied"), strings.Contains(msg, "permission denied"):
		return "authentication", true
	}
	return "", false
}
