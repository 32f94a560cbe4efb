// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the survey-engine pipeline:
// configuration, run status, and the artifact schemas produced by each stage
// (query plan, retrieval, clusters, reasoning, final output).
package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "survey-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetrievalConfig holds settings for the retrieval stage.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxPapers is the paper budget for the final ranked set (default 80).
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// MinYear and MaxYear bound the publication-year filter. Papers with an
	// unknown year always pass the filter.
	MinYear int `json:"min_year" yaml:"min_year"`
	MaxYear int `json:"max_year" yaml:"max_year"`

	// CacheTTL is how long cached source responses stay fresh (default 24h).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// EnableSemanticScholar controls whether the Semantic Scholar source is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableArxiv controls whether the arXiv source is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableOpenAlex controls whether the OpenAlex source is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// AIConfig holds settings for stages that call the Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-3-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature for structured generation.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxOutputTokens caps the completion length (default 4096).
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`
}

// PipelineConfig groups all settings for one pipeline execution. It is built
// once at process start and passed by reference to every component; no
// component reads environment state directly.
type PipelineConfig struct {
	// RunsDir is the directory that holds one subdirectory per run.
	RunsDir string `json:"runs_dir" yaml:"runs_dir"`

	// CacheDir is the directory for the shared cross-run response cache.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// StageTimeout is the per-stage deadline. Zero disables the deadline.
	StageTimeout time.Duration `json:"stage_timeout" yaml:"stage_timeout"`

	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`
	AI        AIConfig        `json:"ai" yaml:"ai"`
}

// DefaultConfig returns a PipelineConfig with working defaults for every
// field except credentials.
func DefaultConfig() *PipelineConfig {
	return &PipelineConfig{
		RunsDir:      "runs",
		CacheDir:     "runs/_cache",
		StageTimeout: 10 * time.Minute,
		Retrieval: RetrievalConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   20 * time.Second,
				UserAgent: "survey-engine/0.1 (paper retrieval)",
			},
			MaxPapers:             80,
			MinYear:               2020,
			MaxYear:               time.Now().Year(),
			CacheTTL:              24 * time.Hour,
			EnableSemanticScholar: true,
			EnableArxiv:           true,
			EnableOpenAlex:        false,
		},
		AI: AIConfig{
			Model:           "gemini-3-flash",
			Temperature:     0.2,
			MaxOutputTokens: 4096,
		},
	}
}

// Validate checks the configuration at startup. A missing credential or an
// inconsistent setting is terminal before any run directory is created.
func (c *PipelineConfig) Validate() error {
	if c.RunsDir == "" {
		return fmt.Errorf("configuration: runs_dir must not be empty")
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("configuration: AI API key is not set (place it in .secrets/gemini-api-key or set SURVEY_ENGINE_AI_API_KEY)")
	}
	if c.AI.Model == "" {
		return fmt.Errorf("configuration: AI model must not be empty")
	}
	if c.Retrieval.MaxPapers <= 0 {
		return fmt.Errorf("configuration: retrieval.max_papers must be positive, got %d", c.Retrieval.MaxPapers)
	}
	if c.Retrieval.MinYear > c.Retrieval.MaxYear {
		return fmt.Errorf("configuration: retrieval year range [%d, %d] is inverted", c.Retrieval.MinYear, c.Retrieval.MaxYear)
	}
	if !c.Retrieval.EnableSemanticScholar && !c.Retrieval.EnableArxiv && !c.Retrieval.EnableOpenAlex {
		return fmt.Errorf("configuration: at least one retrieval source must be enabled")
	}
	return nil
}
