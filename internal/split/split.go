// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package split breaks page text into overlapping chunks and groups chunks
// into meta-sections.
package split

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// Splitter cuts text recursively on a list of separators so chunks stay
// under a size limit while keeping paragraphs and sentences together where
// possible.
type Splitter struct {
	size     int
	overlap  int
	splitter textsplitter.RecursiveCharacter
}

// New builds a Splitter from the processing settings. Empty separators use
// paragraph, line, sentence, word, and character boundaries in that order.
func New(cfg types.ProcessingConfig) (*Splitter, error) {
	if cfg.ChunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	seps := cfg.Separators
	if len(seps) == 0 {
		seps = types.DefaultConfig().Processing.Separators
	}

	return &Splitter{
		size:    cfg.ChunkSize,
		overlap: cfg.ChunkOverlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
			textsplitter.WithSeparators(seps),
			textsplitter.WithKeepSeparator(true),
		),
	}, nil
}

// SplitText returns the chunks of a single text. Whitespace-only text yields
// no chunks.
func (s *Splitter) SplitText(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	parts, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}
	return parts, nil
}

// SplitPages splits every page in order. Chunk IDs are "<page>_<n>" with n
// counted from 1 within the page. A page without text still yields one
// empty chunk so every page is represented.
func (s *Splitter) SplitPages(pages []types.Page) ([]types.Chunk, error) {
	var chunks []types.Chunk
	for _, p := range pages {
		parts, err := s.SplitText(p.Text)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p.Number, err)
		}
		if len(parts) == 0 {
			parts = []string{""}
		}
		for j, part := range parts {
			chunks = append(chunks, types.Chunk{
				Page:    p.Number,
				ChunkID: fmt.Sprintf("%d_%d", p.Number, j+1),
				Text:    part,
			})
		}
	}
	return chunks, nil
}

// MetaSections joins consecutive runs of size chunk texts with newlines.
// The last section may hold fewer chunks. A size below 1 is treated as 1.
func MetaSections(chunks []types.Chunk, size int) []string {
	if size < 1 {
		size = 1
	}
	sections := make([]string, 0, (len(chunks)+size-1)/size)
	for i := 0; i < len(chunks); i += size {
		end := min(i+size, len(chunks))
		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.Text)
		}
		sections = append(sections, strings.Join(texts, "\n"))
	}
	return sections
}
