// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize runs the hierarchical summarization pipeline:
// pages, chunks, meta-sections, compressed meta-sections, meta-summaries,
// and finally one global summary.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdf-summarizer/internal/compress"
	"github.com/pdiddy/pdf-summarizer/internal/extract"
	"github.com/pdiddy/pdf-summarizer/internal/llm"
	"github.com/pdiddy/pdf-summarizer/internal/metrics"
	"github.com/pdiddy/pdf-summarizer/internal/split"
	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// ErrBlankDocument is returned when no page carries any text.
var ErrBlankDocument = errors.New("no extractable text in document (image-only PDFs need OCR first)")

// Pipeline stage names used for timing.
const (
	StageExtract  = "extract"
	StageSplit    = "split"
	StageCompress = "compress"
	StageMeta     = "meta_summaries"
	StageGlobal   = "global_summary"
)

// Summarizer turns a PDF into a global summary with an LLM client.
type Summarizer struct {
	client     llm.Client
	extractor  extract.Extractor
	splitter   *split.Splitter
	compressor *compress.Compressor
	cfg        types.ProcessingConfig

	progress  io.Writer
	logger    *slog.Logger
	recorder  *metrics.Recorder
	pageStart int
	pageEnd   int
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithProgress sets where step announcements are written.
func WithProgress(w io.Writer) Option {
	return func(s *Summarizer) { s.progress = w }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Summarizer) { s.logger = l }
}

// WithRecorder records stage timings.
func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Summarizer) { s.recorder = r }
}

// WithPageRange restricts ProcessPDF to pages start..end (1-based,
// inclusive). An end of zero means the last page.
func WithPageRange(start, end int) Option {
	return func(s *Summarizer) {
		s.pageStart = start
		s.pageEnd = end
	}
}

// New builds a Summarizer. The processing settings must be valid.
func New(client llm.Client, extractor extract.Extractor, cfg types.ProcessingConfig, opts ...Option) (*Summarizer, error) {
	if client == nil {
		return nil, errors.New("summarizer needs an LLM client")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid processing settings: %w", err)
	}
	splitter, err := split.New(cfg)
	if err != nil {
		return nil, err
	}

	s := &Summarizer{
		client:     client,
		extractor:  extractor,
		splitter:   splitter,
		compressor: compress.New(cfg.CompressionMaxChars),
		cfg:        cfg,
		progress:   io.Discard,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ProcessPDF extracts the pages of pdfPath, applies the page range, and
// summarizes them.
func (s *Summarizer) ProcessPDF(ctx context.Context, pdfPath string) (*types.Result, error) {
	if s.extractor == nil {
		return nil, errors.New("summarizer has no PDF extractor")
	}
	fmt.Fprintf(s.progress, "Processing PDF: %s\n", pdfPath)
	fmt.Fprintln(s.progress, "Step 1: Extracting pages...")

	start := time.Now()
	pages, err := s.extractor.ExtractPages(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	if s.pageStart > 0 {
		pages, err = extract.PageRange(pages, s.pageStart, s.pageEnd)
		if err != nil {
			return nil, err
		}
	}
	s.recorder.ObserveStage(StageExtract, time.Since(start))
	s.logger.Debug("extracted pages", "path", pdfPath, "pages", len(pages), "elapsed", time.Since(start))

	return s.process(ctx, pages)
}

// ProcessPages runs the pipeline on already extracted pages.
func (s *Summarizer) ProcessPages(ctx context.Context, pages []types.Page) (*types.Result, error) {
	fmt.Fprintln(s.progress, "Step 1: Extracting pages...")
	return s.process(ctx, pages)
}

func (s *Summarizer) process(ctx context.Context, pages []types.Page) (*types.Result, error) {
	fmt.Fprintf(s.progress, "Extracted %d pages\n", len(pages))
	if blank(pages) {
		return nil, ErrBlankDocument
	}

	fmt.Fprintln(s.progress, "Step 2: Splitting text into chunks...")
	start := time.Now()
	chunks, err := s.splitter.SplitPages(pages)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(s.progress, "Created %d chunks\n", len(chunks))

	fmt.Fprintln(s.progress, "Step 3: Creating meta-sections...")
	sections := split.MetaSections(chunks, s.cfg.MetaSectionSize)
	fmt.Fprintf(s.progress, "Created %d meta-sections\n", len(sections))
	s.recorder.ObserveStage(StageSplit, time.Since(start))

	fmt.Fprintln(s.progress, "Step 4: Compressing meta-sections...")
	start = time.Now()
	compressed := s.compressor.CompressBatch(sections)
	fmt.Fprintf(s.progress, "Compressed to average %d chars per section\n", averageLen(compressed))
	s.recorder.ObserveStage(StageCompress, time.Since(start))

	fmt.Fprintln(s.progress, "Step 5: Generating meta-summaries...")
	start = time.Now()
	metaSummaries, err := s.metaSummaries(ctx, compressed)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(s.progress, "Generated %d meta-summaries\n", len(metaSummaries))
	s.recorder.ObserveStage(StageMeta, time.Since(start))

	fmt.Fprintln(s.progress, "Step 6: Generating global summary...")
	start = time.Now()
	global, err := s.globalSummary(ctx, metaSummaries)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(s.progress, "Global summary generated")
	s.recorder.ObserveStage(StageGlobal, time.Since(start))

	return &types.Result{
		Pages:          pages,
		Chunks:         chunks,
		MetaSections:   sections,
		CompressedMeta: compressed,
		MetaSummaries:  metaSummaries,
		GlobalSummary:  global,
	}, nil
}

// batch is a half-open range of meta-section indexes sent in one prompt.
type batch struct{ start, end int }

func batches(n, size int) []batch {
	if size <= 0 || size >= n {
		return []batch{{0, n}}
	}
	var out []batch
	for i := 0; i < n; i += size {
		out = append(out, batch{i, min(i+size, n)})
	}
	return out
}

// metaSummaries sends the compressed meta-sections to the model, in one
// prompt or in batches of MetaBatchSize with at most Concurrency in flight.
// Section numbers are global positions in either case.
func (s *Summarizer) metaSummaries(ctx context.Context, compressed []string) ([]types.MetaSummary, error) {
	bs := batches(len(compressed), s.cfg.MetaBatchSize)
	results := make([][]types.MetaSummary, len(bs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Concurrency, 1))
	for i, b := range bs {
		g.Go(func() error {
			prompt, err := RenderMetaPrompt(b.start+1, compressed[b.start:b.end])
			if err != nil {
				return err
			}
			resp, err := s.client.Generate(gctx, prompt, llm.WithMaxTokens(s.cfg.MaxTokensMeta))
			if err != nil {
				return fmt.Errorf("generating meta-summaries for sections %d-%d: %w", b.start+1, b.end, err)
			}

			parsed := ParseMetaSummaries(resp)
			if len(parsed) == 0 {
				s.logger.Warn("meta prompt reply had no ###SECTION blocks, keeping it as one section",
					"first_section", b.start+1, "reply_chars", len(resp))
				parsed = []types.MetaSummary{{Section: b.start + 1, Summary: strings.TrimSpace(resp)}}
			} else if len(parsed) != b.end-b.start {
				s.logger.Warn("meta prompt reply section count differs",
					"want", b.end-b.start, "got", len(parsed))
			}
			results[i] = parsed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []types.MetaSummary
	for _, r := range results {
		out = append(out, r...)
	}
	slices.SortStableFunc(out, func(a, b types.MetaSummary) int { return a.Section - b.Section })
	return out, nil
}

func (s *Summarizer) globalSummary(ctx context.Context, summaries []types.MetaSummary) (string, error) {
	prompt, err := RenderGlobalPrompt(summaries)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Generate(ctx, prompt, llm.WithMaxTokens(s.cfg.MaxTokensGlobal))
	if err != nil {
		return "", fmt.Errorf("generating global summary: %w", err)
	}
	return strings.TrimSpace(resp), nil
}

func blank(pages []types.Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

func averageLen(texts []string) int {
	if len(texts) == 0 {
		return 0
	}
	total := 0
	for _, t := range texts {
		total += utf8.RuneCountInString(t)
	}
	return total / len(texts)
}
