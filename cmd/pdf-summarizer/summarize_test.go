// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-summarizer/internal/output"
	"github.com/pdiddy/pdf-summarizer/internal/store"
	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// fakeOllama answers /api/generate like Ollama and records the num_predict
// of every request.
type fakeOllama struct {
	mu         sync.Mutex
	numPredict []int
	status     int
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/generate" {
		http.NotFound(w, r)
		return
	}
	var req struct {
		Prompt  string `json:"prompt"`
		Options struct {
			NumPredict int `json:"num_predict"`
		} `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.numPredict = append(f.numPredict, req.Options.NumPredict)
	status := f.status
	f.mu.Unlock()
	if status != 0 {
		http.Error(w, `{"error":"model not found"}`, status)
		return
	}

	reply := "The document compares apples and oranges."
	if strings.Contains(req.Prompt, "META-SECTIONS BELOW:") {
		var b strings.Builder
		for i := 1; i <= strings.Count(req.Prompt, "<META id='"); i++ {
			fmt.Fprintf(&b, "###SECTION %d\nSection %d covers fruit.\n\n", i, i)
		}
		reply = b.String()
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"response": reply, "done": true})
}

func (f *fakeOllama) requests() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.numPredict...)
}

// installFakePdftotext puts a pdftotext on PATH that prints two pages.
func installFakePdftotext(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script extractor needs a POSIX shell")
	}
	bin := t.TempDir()
	script := "#!/bin/sh\nprintf 'Apples are red and sweet.\\fOranges are orange and sour.\\f'\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, "pdftotext"), []byte(script), 0o755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func e2eConfig(t *testing.T, baseURL string) types.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := types.DefaultConfig()
	cfg.Provider = types.ProviderOllama
	cfg.Extractor = types.ExtractorPdftotext
	cfg.Models.Ollama.BaseURL = baseURL
	cfg.Processing.MaxTokensMeta = 5000
	cfg.Processing.MaxTokensGlobal = 900
	cfg.Output.Dir = filepath.Join(dir, "output")
	cfg.Output.HTML = true
	cfg.Store.Path = filepath.Join(dir, "summarizer.db")
	cfg.InputDir = filepath.Join(dir, "input")
	return cfg
}

func writeDummyPDF(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4\n"), 0o644))
	return p
}

func TestSummarizeDocumentEndToEnd(t *testing.T) {
	installFakePdftotext(t)
	fake := &fakeOllama{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := e2eConfig(t, srv.URL)
	pdfPath := writeDummyPDF(t)
	outPath := filepath.Join(t.TempDir(), "summary.md")
	ctx := context.Background()

	var out bytes.Buffer
	err := summarizeDocument(ctx, &out, cfg,
		summarizeOptions{provider: "ollama", saveIntermediate: true, outputPath: outPath}, pdfPath)
	require.NoError(t, err, out.String())

	summary, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "# Document Summary")
	assert.Contains(t, string(summary), "The document compares apples and oranges.")
	assert.FileExists(t, filepath.Join(output.IntermediateDir(outPath), output.MetaSummariesFile))
	assert.FileExists(t, output.HTMLPath(outPath))
	assert.Contains(t, out.String(), "Summary saved to: "+outPath)
	assert.Contains(t, out.String(), "Summarization completed successfully!")

	assert.Equal(t, []int{5000, 900}, fake.requests(), "processing token budgets reach the provider")

	// Same document again: every prompt is served from the cache.
	out.Reset()
	require.NoError(t, summarizeDocument(ctx, &out, cfg,
		summarizeOptions{provider: "ollama", outputPath: outPath}, pdfPath))
	assert.Len(t, fake.requests(), 2)

	st, err := store.Open(cfg.Store.Path)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, types.RunSucceeded, r.Status)
		assert.Equal(t, outPath, r.OutputPath)
		assert.Equal(t, "The document compares apples and oranges.", r.GlobalSummary)
	}
}

func TestSummarizeDocumentDefaultOutputPath(t *testing.T) {
	installFakePdftotext(t)
	srv := httptest.NewServer(&fakeOllama{})
	defer srv.Close()

	cfg := e2eConfig(t, srv.URL)
	cfg.Output.HTML = false
	cfg.Store.History = false
	cfg.Store.Cache = false

	var out bytes.Buffer
	require.NoError(t, summarizeDocument(context.Background(), &out, cfg,
		summarizeOptions{provider: "ollama"}, writeDummyPDF(t)))

	matches, err := filepath.Glob(filepath.Join(cfg.Output.Dir, "summary_*.md"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.NoFileExists(t, output.HTMLPath(matches[0]))
	assert.NoFileExists(t, cfg.Store.Path, "no store is opened with history and cache off")
}

func TestSummarizeDocumentRecordsFailedRun(t *testing.T) {
	installFakePdftotext(t)
	fake := &fakeOllama{status: http.StatusNotFound}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := e2eConfig(t, srv.URL)
	cfg.Retry.MaxAttempts = 1
	ctx := context.Background()

	var out bytes.Buffer
	err := summarizeDocument(ctx, &out, cfg,
		summarizeOptions{provider: "ollama", outputPath: filepath.Join(t.TempDir(), "s.md")}, writeDummyPDF(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error during summarization")

	st, err := store.Open(cfg.Store.Path)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, types.RunFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}
