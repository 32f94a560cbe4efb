// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *PipelineConfig {
	cfg := DefaultConfig()
	cfg.AI.APIKey = "test-key"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 80, cfg.Retrieval.MaxPapers)
	assert.Equal(t, "runs", cfg.RunsDir)
	assert.True(t, cfg.Retrieval.EnableSemanticScholar)
	assert.True(t, cfg.Retrieval.EnableArxiv)
	assert.NotEmpty(t, cfg.AI.Model)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PipelineConfig)
		wantErr string
	}{
		{
			name:   "valid defaults with key",
			mutate: func(*PipelineConfig) {},
		},
		{
			name:    "missing API key",
			mutate:  func(c *PipelineConfig) { c.AI.APIKey = "" },
			wantErr: "API key",
		},
		{
			name:    "empty runs dir",
			mutate:  func(c *PipelineConfig) { c.RunsDir = "" },
			wantErr: "runs_dir",
		},
		{
			name:    "empty model",
			mutate:  func(c *PipelineConfig) { c.AI.Model = "" },
			wantErr: "model",
		},
		{
			name:    "non-positive budget",
			mutate:  func(c *PipelineConfig) { c.Retrieval.MaxPapers = 0 },
			wantErr: "max_papers",
		},
		{
			name: "inverted year range",
			mutate: func(c *PipelineConfig) {
				c.Retrieval.MinYear = 2030
				c.Retrieval.MaxYear = 2020
			},
			wantErr: "inverted",
		},
		{
			name: "no sources enabled",
			mutate: func(c *PipelineConfig) {
				c.Retrieval.EnableSemanticScholar = false
				c.Retrieval.EnableArxiv = false
				c.Retrieval.EnableOpenAlex = false
			},
			wantErr: "source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "configuration:")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
