// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// isolate runs the test in an empty directory with no inherited settings.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, k := range []string{EnvDefaultProvider, EnvGroqAPIKey, EnvOllamaBaseURL, "PDF_SUMMARIZER_PROVIDER"} {
		t.Setenv(k, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", slog.Default())
	require.NoError(t, err)

	want := types.DefaultConfig()
	assert.Equal(t, want.Provider, cfg.Provider)
	assert.Equal(t, want.Processing, cfg.Processing)
	assert.Equal(t, want.Models, cfg.Models)
	assert.Equal(t, want.Output, cfg.Output)
	assert.Equal(t, want.Retry, cfg.Retry)
	assert.Equal(t, want.Store, cfg.Store)
	assert.Equal(t, 180*time.Second, cfg.HTTPTimeout)
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
provider: Ollama
processing:
  chunk_size: 1000
  chunk_overlap: 100
  meta_batch_size: 4
models:
  ollama:
    model_name: mistral
retry:
  backoff_base: 500ms
output:
  dir: summaries
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, types.ProviderOllama, cfg.Provider)
	assert.Equal(t, 1000, cfg.Processing.ChunkSize)
	assert.Equal(t, 100, cfg.Processing.ChunkOverlap)
	assert.Equal(t, 4, cfg.Processing.MetaBatchSize)
	assert.Equal(t, 5, cfg.Processing.MetaSectionSize, "unset keys keep defaults")
	assert.Equal(t, "mistral", cfg.Models.Ollama.ModelName)
	assert.Equal(t, "http://localhost:11434", cfg.Models.Ollama.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BackoffBase)
	assert.Equal(t, "summaries", cfg.Output.Dir)
}

func TestLoadSearchPath(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config", "config.yaml"), "processing:\n  chunk_size: 900\n")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Processing.ChunkSize)
}

func TestLoadSearchPathPrefersLocalFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config", "config.yaml"), "processing:\n  chunk_size: 900\n")
	writeFile(t, filepath.Join(dir, "pdf-summarizer.yaml"), "processing:\n  chunk_size: 1200\n")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 1200, cfg.Processing.ChunkSize)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoadEnvironment(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg types.Config)
	}{
		{
			name: "legacy provider variable",
			env:  map[string]string{EnvDefaultProvider: "ollama"},
			check: func(t *testing.T, cfg types.Config) {
				assert.Equal(t, types.ProviderOllama, cfg.Provider)
			},
		},
		{
			name: "prefixed provider wins over legacy",
			env:  map[string]string{EnvDefaultProvider: "ollama", "PDF_SUMMARIZER_PROVIDER": "groq"},
			check: func(t *testing.T, cfg types.Config) {
				assert.Equal(t, types.ProviderGroq, cfg.Provider)
			},
		},
		{
			name: "groq api key",
			env:  map[string]string{EnvGroqAPIKey: "gsk_test"},
			check: func(t *testing.T, cfg types.Config) {
				assert.Equal(t, "gsk_test", cfg.Models.Groq.APIKey)
			},
		},
		{
			name: "ollama base url",
			env:  map[string]string{EnvOllamaBaseURL: "http://gpu-box:11434"},
			check: func(t *testing.T, cfg types.Config) {
				assert.Equal(t, "http://gpu-box:11434", cfg.Models.Ollama.BaseURL)
			},
		},
		{
			name: "nested prefixed key",
			env:  map[string]string{"PDF_SUMMARIZER_PROCESSING_CHUNK_SIZE": "600"},
			check: func(t *testing.T, cfg types.Config) {
				assert.Equal(t, 600, cfg.Processing.ChunkSize)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load("", nil)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"overlap not below chunk size", "processing:\n  chunk_size: 100\n  chunk_overlap: 100\n", "chunk_overlap"},
		{"unknown provider", "provider: openai\n", "unsupported provider: openai"},
		{"unknown extractor", "extractor: tesseract\n", "extractor"},
		{"zero concurrency", "processing:\n  concurrency: 0\n", "concurrency"},
		{"negative batch size", "processing:\n  meta_batch_size: -1\n", "meta_batch_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "c.yaml")
			writeFile(t, path, tt.yaml)

			_, err := Load(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDumpRedactsKeys(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Models.Groq.APIKey = "gsk_secret"

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, cfg))

	out := buf.String()
	assert.NotContains(t, out, "gsk_secret")
	assert.Contains(t, out, "****")
	assert.Contains(t, out, "model_name: llama-3.3-70b-versatile")
	assert.Contains(t, out, "chunk_size: 1800")
}

func TestLoadTokenBudgetPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "budgets.yaml")
	writeFile(t, path, `
processing:
  max_tokens_meta: 5000
  max_tokens_global: 900
models:
  groq:
    max_tokens_global: 1200
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	ollama := cfg.Processing.WithModelBudgets(cfg.Models.Ollama)
	assert.Equal(t, 5000, ollama.MaxTokensMeta, "processing budget applies when the model sets none")
	assert.Equal(t, 900, ollama.MaxTokensGlobal)

	groq := cfg.Processing.WithModelBudgets(cfg.Models.Groq)
	assert.Equal(t, 5000, groq.MaxTokensMeta)
	assert.Equal(t, 1200, groq.MaxTokensGlobal, "model budget overrides when set")
}
