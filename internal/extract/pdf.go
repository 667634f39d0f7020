// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract reads the text layer of PDF files page by page.
// Two backends implement Extractor: a pure-Go reader and the poppler
// pdftotext binary. Scanned (image-only) PDFs need OCR and yield empty pages.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// Extractor reads a PDF and returns the text of every page in order.
type Extractor interface {
	ExtractPages(ctx context.Context, pdfPath string) ([]types.Page, error)
}

// New returns the extractor registered under name. An empty name selects the
// native backend.
func New(name string) (Extractor, error) {
	switch name {
	case "", types.ExtractorNative:
		return &NativeExtractor{}, nil
	case types.ExtractorPdftotext:
		return NewPdftotextExtractor()
	default:
		return nil, fmt.Errorf("unknown extractor %q: use %s or %s", name, types.ExtractorNative, types.ExtractorPdftotext)
	}
}

// document is the subset of a parsed PDF the native extractor needs.
type document interface {
	NumPage() int
	PageText(n int) (string, error)
	Close() error
}

// openDocument opens a PDF for the native extractor. Tests substitute it.
var openDocument = openLedongthuc

// NativeExtractor extracts text with github.com/ledongthuc/pdf. Fonts are
// decoded once and reused across pages.
type NativeExtractor struct{}

// ExtractPages returns one Page per PDF page, numbered from 1. Pages without
// a text layer produce empty text so numbering never skips.
func (n *NativeExtractor) ExtractPages(ctx context.Context, pdfPath string) ([]types.Page, error) {
	if err := checkFile(pdfPath); err != nil {
		return nil, err
	}

	doc, err := openDocument(pdfPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	total := doc.NumPage()
	pages := make([]types.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.PageText(i)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		pages = append(pages, types.Page{Number: i, Text: text})
	}
	return pages, nil
}

// PageCount returns the number of pages without extracting any text.
func PageCount(pdfPath string) (int, error) {
	if err := checkFile(pdfPath); err != nil {
		return 0, err
	}
	doc, err := openDocument(pdfPath)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// PageRange selects pages start..end (1-based, inclusive). An end of zero or
// past the last page selects through the last page.
func PageRange(pages []types.Page, start, end int) ([]types.Page, error) {
	if end == 0 || end > len(pages) {
		end = len(pages)
	}
	if start < 1 || start > end {
		return nil, fmt.Errorf("invalid page range %d-%d for a %d-page document", start, end, len(pages))
	}
	return pages[start-1 : end], nil
}

func checkFile(pdfPath string) error {
	info, err := os.Stat(pdfPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		return fmt.Errorf("stat %s: %w", pdfPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a PDF file", pdfPath)
	}
	return nil
}

type ledongthucDoc struct {
	file   *os.File
	reader *pdf.Reader
	fonts  map[string]*pdf.Font
}

func openLedongthuc(pdfPath string) (doc document, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("open pdf %s: malformed document: %v", pdfPath, r)
		}
	}()

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", pdfPath, err)
	}
	return &ledongthucDoc{file: f, reader: r, fonts: make(map[string]*pdf.Font)}, nil
}

func (d *ledongthucDoc) NumPage() int { return d.reader.NumPage() }

func (d *ledongthucDoc) PageText(n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()

	p := d.reader.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	for _, name := range p.Fonts() {
		if _, ok := d.fonts[name]; !ok {
			f := p.Font(name)
			d.fonts[name] = &f
		}
	}
	return p.GetPlainText(d.fonts)
}

func (d *ledongthucDoc) Close() error { return d.file.Close() }
