// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

func sampleResult() *types.Result {
	return &types.Result{
		Pages: []types.Page{{Number: 1, Text: "p1"}, {Number: 2, Text: "p2"}},
		Chunks: []types.Chunk{
			{Page: 1, ChunkID: "1_1", Text: "first chunk, with comma"},
			{Page: 2, ChunkID: "2_1", Text: "second \"quoted\"\nchunk"},
		},
		MetaSections:   []string{"first chunk, with comma\nsecond"},
		CompressedMeta: []string{"first chunk, with comma second"},
		MetaSummaries:  []types.MetaSummary{{Section: 1, Summary: "A <refined> summary & more."}},
		GlobalSummary:  "## Main Purpose\n\nThe purpose.",
	}
}

func TestDefaultPath(t *testing.T) {
	now := time.Date(2026, 3, 7, 14, 5, 9, 0, time.Local)
	assert.Equal(t, filepath.Join("data", "output", "summary_20260307_140509.md"), DefaultPath("", now))
	assert.Equal(t, filepath.Join("out", "summary_20260307_140509.md"), DefaultPath("out", now))
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "summary.md")
	generated := time.Date(2026, 3, 7, 14, 5, 9, 0, time.Local)

	require.NoError(t, WriteSummary(path, sampleResult(), Metadata{GeneratedAt: generated}, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Document Summary\n\n## Main Purpose\n\nThe purpose.\n\n---\n\nGenerated on: 2026-03-07 14:05:09\n", string(data))
}

func TestWriteSummaryFrontmatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	meta := Metadata{
		Source:       "data/input/report.pdf",
		Provider:     "groq",
		Model:        "llama-3.3-70b-versatile",
		RunID:        "6f1c",
		Pages:        2,
		Chunks:       2,
		MetaSections: 1,
		GeneratedAt:  time.Date(2026, 3, 7, 14, 5, 9, 0, time.UTC),
	}
	require.NoError(t, WriteSummary(path, sampleResult(), meta, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.HasPrefix(out, "---\nsource: data/input/report.pdf\nprovider: groq\n"))
	assert.Contains(t, out, "run_id: 6f1c\n")
	assert.Contains(t, out, "meta_sections: 1\n")
	assert.Contains(t, out, "---\n\n# Document Summary\n\n")
	assert.True(t, strings.HasSuffix(out, "Generated on: 2026-03-07 14:05:09\n"))
}

func TestWriteIntermediate(t *testing.T) {
	dir := t.TempDir()
	summary := filepath.Join(dir, "summary_20260307_140509.md")

	got, err := WriteIntermediate(summary, sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "summary_20260307_140509_intermediate"), got)

	data, err := os.ReadFile(filepath.Join(got, MetaSummariesFile))
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"section\": 1,\n    \"summary\": \"A <refined> summary & more.\"\n  }\n]\n", string(data))

	f, err := os.Open(filepath.Join(got, ChunksFile))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"page", "chunk_id", "text"},
		{"1", "1_1", "first chunk, with comma"},
		{"2", "2_1", "second \"quoted\"\nchunk"},
	}, records)

	var sections []string
	data, err = os.ReadFile(filepath.Join(got, MetaSectionsFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &sections))
	assert.Equal(t, sampleResult().MetaSections, sections)

	var compressed []string
	data, err = os.ReadFile(filepath.Join(got, CompressedMetaFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &compressed))
	assert.Equal(t, sampleResult().CompressedMeta, compressed)
}

func TestWriteIntermediateEmpty(t *testing.T) {
	got, err := WriteIntermediate(filepath.Join(t.TempDir(), "s.md"), &types.Result{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(got, MetaSummariesFile))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestRenderHTML(t *testing.T) {
	md := "---\nsource: data/input/report.pdf\nprovider: groq\n---\n\n# Document Summary\n\n## Key findings\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n---\n\nGenerated on: 2026-03-07 14:05:09\n"

	page, err := RenderHTML([]byte(md))
	require.NoError(t, err)
	out := string(page)

	assert.Contains(t, out, "<title>Document Summary: report.pdf</title>")
	assert.Contains(t, out, `<h2 id="key-findings">Key findings</h2>`)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<hr>")
	assert.NotContains(t, out, "provider: groq")
}

func TestRenderHTMLWithoutFrontmatter(t *testing.T) {
	page, err := RenderHTML([]byte("# Document Summary\n\nBody <script>x</script>\n"))
	require.NoError(t, err)
	out := string(page)
	assert.Contains(t, out, "<title>Document Summary</title>")
	assert.Contains(t, out, "<h1")
	assert.NotContains(t, out, "<script>x</script>", "raw HTML is not passed through")
}

func TestWriteHTML(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "summary.md")
	require.NoError(t, os.WriteFile(md, []byte("# Document Summary\n\ntext\n"), 0o644))

	got, err := WriteHTML(md, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "summary.html"), got)
	assert.FileExists(t, got)

	custom := filepath.Join(dir, "site", "index.html")
	got, err = WriteHTML(md, custom)
	require.NoError(t, err)
	assert.Equal(t, custom, got)
	assert.FileExists(t, custom)

	_, err = WriteHTML(filepath.Join(dir, "missing.md"), "")
	assert.Error(t, err)
}

func TestHTMLPath(t *testing.T) {
	assert.Equal(t, "out/summary_1.html", HTMLPath("out/summary_1.md"))
	assert.Equal(t, "notes.html", HTMLPath("notes"))
}
