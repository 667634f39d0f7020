// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

const defaultTitle = "Document Summary"

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: sans-serif; line-height: 1.5; }
</style>
</head>
<body>
{{.Body}}</body>
</html>
`))

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// summaryFrontMatter is the part of the frontmatter used for rendering.
type summaryFrontMatter struct {
	Source   string `yaml:"source"`
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// RenderHTML converts a summary file's Markdown to a standalone HTML page.
// Frontmatter is stripped; its source, when present, names the page.
func RenderHTML(md []byte) ([]byte, error) {
	var fm summaryFrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(md), &fm)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	var html bytes.Buffer
	if err := markdown.Convert(body, &html); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}

	title := defaultTitle
	if fm.Source != "" {
		title = defaultTitle + ": " + filepath.Base(fm.Source)
	}

	var out bytes.Buffer
	err = pageTmpl.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(html.String())})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return out.Bytes(), nil
}

// HTMLPath returns mdPath with its extension replaced by .html.
func HTMLPath(mdPath string) string {
	return strings.TrimSuffix(mdPath, filepath.Ext(mdPath)) + ".html"
}

// WriteHTML renders mdPath to htmlPath and returns the path written. An
// empty htmlPath uses HTMLPath(mdPath).
func WriteHTML(mdPath, htmlPath string) (string, error) {
	md, err := os.ReadFile(mdPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", mdPath, err)
	}
	page, err := RenderHTML(md)
	if err != nil {
		return "", err
	}
	if htmlPath == "" {
		htmlPath = HTMLPath(mdPath)
	}
	if err := os.MkdirAll(filepath.Dir(htmlPath), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(htmlPath, page, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", htmlPath, err)
	}
	return htmlPath, nil
}
