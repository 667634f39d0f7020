// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads PDFs given on the command line as URLs.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/pdf-summarizer/internal/httputil"
)

// DefaultUserAgent identifies downloads when none is configured.
const DefaultUserAgent = "pdf-summarizer/1.0"

// Result describes a completed or skipped download.
type Result struct {
	Path    string
	Skipped bool
	Bytes   int64
}

// IsURL reports whether arg is an http or https URL.
func IsURL(arg string) bool {
	u, err := url.Parse(arg)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Slug returns a file-system safe name for the URL, without extension.
// It uses the last path element and falls back to "url-" plus a hash
// prefix when the path has none.
func Slug(rawURL string) string {
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
	}
	if ext := path.Ext(base); strings.EqualFold(ext, ".pdf") {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		sum := sha256.Sum256([]byte(rawURL))
		return "url-" + hex.EncodeToString(sum[:])[:12]
	}
	return base
}

// Download fetches rawURL into dir/<slug>.pdf. An existing file is reused.
// The body is streamed to a temporary file that is renamed into place once
// complete. Responses other than 200 are errors.
func Download(ctx context.Context, client httputil.Doer, rawURL, dir, userAgent string) (Result, error) {
	if !IsURL(rawURL) {
		return Result{}, fmt.Errorf("not an http(s) URL: %s", rawURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	dest := filepath.Join(dir, Slug(rawURL)+".pdf")
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return Result{Path: dest, Skipped: true, Bytes: info.Size()}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating download directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return Result{}, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	tmpFile, err := os.CreateTemp(dir, ".download-*.tmp")
	if err != nil {
		return Result{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return Result{}, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return Result{}, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return Result{}, fmt.Errorf("renaming temp file: %w", err)
	}
	return Result{Path: dest, Bytes: n}, nil
}
