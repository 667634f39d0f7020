// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		arg  string
		want bool
	}{
		{"https://arxiv.org/pdf/1706.03762", true},
		{"http://localhost:8080/a.pdf", true},
		{"ftp://example.com/a.pdf", false},
		{"paper.pdf", false},
		{"/tmp/paper.pdf", false},
		{"https://", false},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, IsURL(tt.arg))
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "1706.03762", Slug("https://arxiv.org/pdf/1706.03762"))
	assert.Equal(t, "annual-report", Slug("https://example.com/docs/annual-report.pdf?x=1"))
	assert.Equal(t, "my-file", Slug("https://example.com/my%20file.pdf"))

	s := Slug("https://example.com/")
	assert.True(t, strings.HasPrefix(s, "url-"), s)
	assert.Len(t, s, len("url-")+12)
	assert.Equal(t, s, Slug("https://example.com/"), "slug must be stable")
}

func TestDownload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/pdf", r.Header.Get("Accept"))
		w.Write([]byte("%PDF-1.4 body"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "input")
	res, err := Download(context.Background(), srv.Client(), srv.URL+"/paper.pdf", dir, "test-agent")
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, filepath.Join(dir, "paper.pdf"), res.Path)
	assert.EqualValues(t, len("%PDF-1.4 body"), res.Bytes)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")

	again, err := Download(context.Background(), srv.Client(), srv.URL+"/paper.pdf", dir, "test-agent")
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDownload_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := Download(context.Background(), srv.Client(), srv.URL+"/missing.pdf", dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")

	_, statErr := os.Stat(filepath.Join(dir, "missing.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownload_RejectsNonURL(t *testing.T) {
	_, err := Download(context.Background(), nil, "paper.pdf", t.TempDir(), "")
	assert.Error(t, err)
}
