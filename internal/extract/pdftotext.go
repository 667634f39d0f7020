// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

const binPdftotext = "pdftotext"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

var defaultExec executor = &osExecutor{}

// PdftotextExtractor runs poppler's pdftotext, which keeps the reading order
// of multi-column layouts better than the native reader. Pages are separated
// by form feeds in its output.
type PdftotextExtractor struct {
	bin  string
	exec executor
}

// NewPdftotextExtractor verifies that pdftotext is on PATH.
func NewPdftotextExtractor() (*PdftotextExtractor, error) {
	return newPdftotextExtractor(defaultExec)
}

func newPdftotextExtractor(exec executor) (*PdftotextExtractor, error) {
	bin, err := exec.LookPath(binPdftotext)
	if err != nil {
		return nil, fmt.Errorf("%s not found on PATH (install poppler-utils): %w", binPdftotext, err)
	}
	return &PdftotextExtractor{bin: bin, exec: exec}, nil
}

// ExtractPages runs pdftotext over the whole file and splits its output into pages.
func (p *PdftotextExtractor) ExtractPages(ctx context.Context, pdfPath string) ([]types.Page, error) {
	if err := checkFile(pdfPath); err != nil {
		return nil, err
	}

	out, err := p.exec.Output(ctx, p.bin, "-layout", "-enc", "UTF-8", pdfPath, "-")
	if err != nil {
		return nil, fmt.Errorf("running %s on %s: %w", binPdftotext, pdfPath, err)
	}
	return splitFormFeeds(string(out)), nil
}

// splitFormFeeds turns pdftotext output into pages. pdftotext terminates
// every page with a form feed, so the piece after the last one is dropped
// when empty.
func splitFormFeeds(out string) []types.Page {
	parts := strings.Split(out, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	pages := make([]types.Page, len(parts))
	for i, text := range parts {
		pages[i] = types.Page{Number: i + 1, Text: text}
	}
	return pages
}
