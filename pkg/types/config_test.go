// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithModelBudgets(t *testing.T) {
	d := DefaultConfig()

	got := d.Processing.WithModelBudgets(d.Models.Groq)
	assert.Equal(t, 3500, got.MaxTokensMeta, "defaults leave the processing budgets alone")
	assert.Equal(t, 1800, got.MaxTokensGlobal)

	proc := d.Processing
	proc.MaxTokensMeta = 5000
	got = proc.WithModelBudgets(ModelConfig{MaxTokensGlobal: 700})
	assert.Equal(t, 5000, got.MaxTokensMeta)
	assert.Equal(t, 700, got.MaxTokensGlobal)
	assert.Equal(t, 5000, proc.MaxTokensMeta, "receiver is not modified")
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" GROQ ")
	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, p)

	_, err = ParseProvider("openai")
	assert.EqualError(t, err, "unsupported provider: openai. Supported providers: groq, ollama")
}

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
