// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

func newTestOllama(srv *httptest.Server, cfg types.ModelConfig) *OllamaClient {
	cfg.BaseURL = srv.URL + "/"
	return NewOllamaClient(cfg, srv.Client())
}

func TestOllamaGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"model":"llama3","response":"a global summary","done":true}`))
	}))
	defer srv.Close()

	c := newTestOllama(srv, types.ModelConfig{})
	assert.Equal(t, srv.URL, c.BaseURL(), "trailing slash trimmed")

	out, err := c.Generate(context.Background(), "prompt text", WithMaxTokens(1800), WithTemperature(0.2))
	require.NoError(t, err)
	assert.Equal(t, "a global summary", out)

	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, "prompt text", got["prompt"])
	assert.Equal(t, false, got["stream"])
	opts := got["options"].(map[string]any)
	assert.Equal(t, 0.2, opts["temperature"])
	assert.Equal(t, float64(1800), opts["num_predict"])
}

func TestOllamaGenerateDefaultsOmitNumPredict(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	_, err := newTestOllama(srv, types.ModelConfig{ModelName: "mistral"}).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "mistral", got["model"])
	opts := got["options"].(map[string]any)
	assert.Equal(t, float64(0), opts["temperature"])
	assert.NotContains(t, opts, "num_predict")
}

func TestOllamaChat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"message":{"role":"assistant","content":"hello back"},"done":true}`))
	}))
	defer srv.Close()

	out, err := newTestOllama(srv, types.ModelConfig{}).Chat(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hello back", out)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hello"}}, got.Messages)
}

func TestOllamaErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantTransient bool
	}{
		{"model not found", http.StatusNotFound, `{"error":"model 'llama9' not found"}`, false},
		{"server error", http.StatusInternalServerError, `{"error":"out of memory"}`, true},
		{"empty reply", http.StatusOK, `{"response":""}`, true},
		{"malformed reply", http.StatusOK, `not json`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestOllama(srv, types.ModelConfig{}).Generate(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, IsTransient(err), "error: %v", err)
		})
	}
}

func TestOllamaUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOllamaClient(types.ModelConfig{BaseURL: url}, http.DefaultClient)
	_, err := c.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "ollama serve")
}

func TestOllamaValidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"models":[{"name":"llama3:latest"},{"name":"mistral:7b"}]}`))
	}))
	defer srv.Close()

	assert.NoError(t, newTestOllama(srv, types.ModelConfig{}).Validate(context.Background()))
	assert.NoError(t, newTestOllama(srv, types.ModelConfig{ModelName: "mistral:7b"}).Validate(context.Background()))

	err := newTestOllama(srv, types.ModelConfig{ModelName: "phi3"}).Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull phi3")
}

func TestOllamaValidateBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := newTestOllama(srv, types.ModelConfig{}).Validate(context.Background())
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestOllamaSettings(t *testing.T) {
	c := NewOllamaClient(types.ModelConfig{BaseURL: "http://gpu-box:11434/", Temperature: 0.2, MaxTokens: 64}, nil)
	assert.Equal(t, Settings{BaseURL: "http://gpu-box:11434", Temperature: 0.2, MaxTokens: 64}, c.Settings())
}
