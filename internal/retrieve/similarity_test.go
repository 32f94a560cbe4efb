// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Attention Is All You Need", "attention is all you need"},
		{"strips punctuation", "GPT-4 Technical Report (v2)!", "gpt-4 technical report v2"},
		{"keeps hyphen and colon", "BERT: Pre-training of Deep Bidirectional Transformers", "bert: pre-training of deep bidirectional transformers"},
		{"collapses whitespace", "  graph\n neural\tnetworks ", "graph neural networks"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTitle(tt.in))
		})
	}
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "Attention Is All You Need", "attention is all you need", 1.0, 1.0},
		{"case only", "BERT: Pre-training", "bert: pre-training", 1.0, 1.0},
		{"colon versus space", "BERT: Pre-training", "bert pre-training", 0.9, 0.999},
		{"near duplicate", "A Survey of Graph Neural Networks", "A Survey of Graph Neural Network", 0.9, 1.0},
		{"unrelated", "Quantum Error Correction Codes", "Sentiment Analysis of Tweets", 0.0, 0.6},
		{"both empty", "", "", 0.0, 0.0},
		{"one empty", "transformers", "", 0.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titleSimilarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
			// Symmetry.
			assert.InDelta(t, got, titleSimilarity(tt.b, tt.a), 1e-9)
		})
	}
}
