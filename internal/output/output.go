// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output writes summaries and intermediate artifacts to disk and
// renders summaries to HTML.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// DefaultDir receives summaries when no output path is given.
const DefaultDir = "data/output"

// Timestamp layouts.
const (
	fileStampLayout = "20060102_150405"
	footerLayout    = "2006-01-02 15:04:05"
)

// Intermediate artifact names.
const (
	MetaSummariesFile  = "meta_summaries.json"
	ChunksFile         = "chunks.csv"
	MetaSectionsFile   = "meta_sections.json"
	CompressedMetaFile = "compressed_meta.json"
)

// Metadata describes a run in the summary frontmatter.
type Metadata struct {
	Source       string    `yaml:"source"`
	Provider     string    `yaml:"provider"`
	Model        string    `yaml:"model"`
	RunID        string    `yaml:"run_id,omitempty"`
	Pages        int       `yaml:"pages"`
	Chunks       int       `yaml:"chunks"`
	MetaSections int       `yaml:"meta_sections"`
	GeneratedAt  time.Time `yaml:"generated_at"`
}

// DefaultPath returns dir/summary_YYYYMMDD_HHMMSS.md for now. An empty dir
// uses DefaultDir.
func DefaultPath(dir string, now time.Time) string {
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(dir, "summary_"+now.Format(fileStampLayout)+".md")
}

// WriteSummary writes the global summary as Markdown, creating parent
// directories. With includeMetadata the file starts with YAML frontmatter.
// The footer timestamp is meta.GeneratedAt, or the current time when unset.
func WriteSummary(path string, res *types.Result, meta Metadata, includeMetadata bool) error {
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}

	var buf bytes.Buffer
	if includeMetadata {
		fm, err := yaml.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshaling frontmatter: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(fm)
		buf.WriteString("---\n\n")
	}
	buf.WriteString("# Document Summary\n\n")
	buf.WriteString(res.GlobalSummary)
	buf.WriteString("\n\n---\n\n")
	fmt.Fprintf(&buf, "Generated on: %s\n", meta.GeneratedAt.Format(footerLayout))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing summary %s: %w", path, err)
	}
	return nil
}

// IntermediateDir returns the artifact directory that belongs to a summary:
// <dir>/<stem>_intermediate.
func IntermediateDir(summaryPath string) string {
	stem := strings.TrimSuffix(filepath.Base(summaryPath), filepath.Ext(summaryPath))
	return filepath.Join(filepath.Dir(summaryPath), stem+"_intermediate")
}

// WriteIntermediate saves the meta-summaries, chunks, meta-sections, and
// compressed meta-sections next to the summary and returns the directory.
func WriteIntermediate(summaryPath string, res *types.Result) (string, error) {
	dir := IntermediateDir(summaryPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating intermediate directory: %w", err)
	}

	metaSummaries := res.MetaSummaries
	if metaSummaries == nil {
		metaSummaries = []types.MetaSummary{}
	}
	if err := writeJSON(filepath.Join(dir, MetaSummariesFile), metaSummaries); err != nil {
		return "", err
	}
	if err := writeChunksCSV(filepath.Join(dir, ChunksFile), res.Chunks); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, MetaSectionsFile), nonNil(res.MetaSections)); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, CompressedMetaFile), nonNil(res.CompressedMeta)); err != nil {
		return "", err
	}
	return dir, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeChunksCSV(path string, chunks []types.Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"page", "chunk_id", "text"}); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, c := range chunks {
		if err := w.Write([]string{strconv.Itoa(c.Page), c.ChunkID, c.Text}); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
