// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// mockExecutor records calls and returns configured output.
type mockExecutor struct {
	available bool
	output    string
	err       error
	gotName   string
	gotArgs   []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.available {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.gotName = name
	m.gotArgs = args
	if m.err != nil {
		return nil, m.err
	}
	return []byte(m.output), nil
}

func TestPdftotextExtractPages(t *testing.T) {
	exec := &mockExecutor{available: true, output: "Intro\n\fBody text\n\f\fEnd\n\f"}
	p, err := newPdftotextExtractor(exec)
	require.NoError(t, err)

	path := tempPDF(t)
	pages, err := p.ExtractPages(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []types.Page{
		{Number: 1, Text: "Intro\n"},
		{Number: 2, Text: "Body text\n"},
		{Number: 3, Text: ""},
		{Number: 4, Text: "End\n"},
	}, pages)
	assert.Equal(t, "/usr/bin/pdftotext", exec.gotName)
	assert.Equal(t, "-layout -enc UTF-8 "+path+" -", strings.Join(exec.gotArgs, " "))
}

func TestPdftotextNotInstalled(t *testing.T) {
	_, err := newPdftotextExtractor(&mockExecutor{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poppler")
}

func TestPdftotextCommandFails(t *testing.T) {
	p, err := newPdftotextExtractor(&mockExecutor{available: true, err: errors.New("exit status 1: Syntax Error")})
	require.NoError(t, err)

	_, err = p.ExtractPages(context.Background(), tempPDF(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Syntax Error")
}

func TestSplitFormFeeds(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "terminated pages", in: "a\fb\f", want: []string{"a", "b"}},
		{name: "unterminated last page", in: "a\fb", want: []string{"a", "b"}},
		{name: "blank middle page", in: "a\f\fc\f", want: []string{"a", "", "c"}},
		{name: "empty output", in: "", want: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := splitFormFeeds(tt.in)
			var got []string
			for i, p := range pages {
				assert.Equal(t, i+1, p.Number)
				got = append(got, p.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
