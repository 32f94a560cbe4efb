// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// buildConfig resolves the pipeline configuration once, in precedence order:
// defaults, then the config file and environment via viper, then secrets
// files. Commands apply their own flag overrides on the returned value; no
// component reads configuration sources after this point.
func buildConfig() *types.PipelineConfig {
	cfg := types.DefaultConfig()

	if viper.IsSet("runs_dir") {
		cfg.RunsDir = viper.GetString("runs_dir")
	}
	if viper.IsSet("cache_dir") {
		cfg.CacheDir = viper.GetString("cache_dir")
	}
	if viper.IsSet("stage_timeout") {
		cfg.StageTimeout = viper.GetDuration("stage_timeout")
	}

	if viper.IsSet("retrieval.max_papers") {
		cfg.Retrieval.MaxPapers = viper.GetInt("retrieval.max_papers")
	}
	if viper.IsSet("retrieval.min_year") {
		cfg.Retrieval.MinYear = viper.GetInt("retrieval.min_year")
	}
	if viper.IsSet("retrieval.max_year") {
		cfg.Retrieval.MaxYear = viper.GetInt("retrieval.max_year")
	}
	if viper.IsSet("retrieval.cache_ttl") {
		cfg.Retrieval.CacheTTL = viper.GetDuration("retrieval.cache_ttl")
	}
	if viper.IsSet("retrieval.timeout") {
		cfg.Retrieval.Timeout = viper.GetDuration("retrieval.timeout")
	}
	if viper.IsSet("retrieval.enable_semantic_scholar") {
		cfg.Retrieval.EnableSemanticScholar = viper.GetBool("retrieval.enable_semantic_scholar")
	}
	if viper.IsSet("retrieval.enable_arxiv") {
		cfg.Retrieval.EnableArxiv = viper.GetBool("retrieval.enable_arxiv")
	}
	if viper.IsSet("retrieval.enable_openalex") {
		cfg.Retrieval.EnableOpenAlex = viper.GetBool("retrieval.enable_openalex")
	}
	if viper.IsSet("retrieval.openalex_email") {
		cfg.Retrieval.OpenAlexEmail = viper.GetString("retrieval.openalex_email")
	}

	if viper.IsSet("ai.model") {
		cfg.AI.Model = viper.GetString("ai.model")
	}
	if viper.IsSet("ai.api_key") {
		cfg.AI.APIKey = viper.GetString("ai.api_key")
	}
	if viper.IsSet("ai.temperature") {
		cfg.AI.Temperature = viper.GetFloat64("ai.temperature")
	}
	if viper.IsSet("ai.max_output_tokens") {
		cfg.AI.MaxOutputTokens = viper.GetInt("ai.max_output_tokens")
	}

	// Secrets files fill anything the config and environment left empty.
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = loadedSecrets["gemini-api-key"]
	}
	if cfg.Retrieval.SemanticScholarAPIKey == "" {
		cfg.Retrieval.SemanticScholarAPIKey = loadedSecrets["semantic-scholar-api-key"]
	}
	if cfg.Retrieval.OpenAlexEmail == "" {
		cfg.Retrieval.OpenAlexEmail = loadedSecrets["openalex-email"]
	}

	return cfg
}
