// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// sectionMarker precedes every refined summary in a meta prompt reply.
const sectionMarker = "###SECTION"

// metaPromptTmpl asks the model to expand compressed meta-sections back
// into readable summaries, one ###SECTION block per meta-section.
var metaPromptTmpl = template.Must(template.New("meta").Parse(`You are an expert at summarizing regulatory and legal documents.

Below are multiple META-SECTIONS.
Each META-SECTION is a pre-compressed excerpt from the original document.

Your task:
- Expand each META-SECTION into a 120–200 word refined summary.
- Maintain accuracy.
- Add back missing clarity and connections.
- NO hallucination.
- Format MUST be:

###SECTION <N>
<summary>

META-SECTIONS BELOW:
{{range .}}
<META id='{{.ID}}'> {{.Text}} </META>{{end}}
`))

// globalPromptTmpl merges the refined summaries into the final summary.
var globalPromptTmpl = template.Must(template.New("global").Parse(`You are a senior expert summarizer for complex long documents.

Create a unified GLOBAL SUMMARY from the refined meta-section summaries.

Include:
- Main Purpose
- Problems addressed
- Key findings
- Observations
- Critical outcomes
- Conclusions
- Important insights

Avoid repetition. Provide a coherent 4–6 paragraph summary. Provide the summarization under each sections of Include the sections as headers.

META-SECTION SUMMARIES:
{{.}}

Write the final global summary:
`))

type metaEntry struct {
	ID   int
	Text string
}

// RenderMetaPrompt builds the meta prompt for sections, numbering them from
// first.
func RenderMetaPrompt(first int, sections []string) (string, error) {
	entries := make([]metaEntry, len(sections))
	for i, s := range sections {
		entries[i] = metaEntry{ID: first + i, Text: s}
	}
	var buf bytes.Buffer
	if err := metaPromptTmpl.Execute(&buf, entries); err != nil {
		return "", fmt.Errorf("rendering meta prompt: %w", err)
	}
	return buf.String(), nil
}

// RenderGlobalPrompt builds the global prompt from the meta-summaries, each
// wrapped in <S{n}> tags.
func RenderGlobalPrompt(summaries []types.MetaSummary) (string, error) {
	blocks := make([]string, len(summaries))
	for i, m := range summaries {
		blocks[i] = fmt.Sprintf("<S%d>\n%s\n</S%d>", m.Section, m.Summary, m.Section)
	}
	var buf bytes.Buffer
	if err := globalPromptTmpl.Execute(&buf, strings.Join(blocks, "\n\n")); err != nil {
		return "", fmt.Errorf("rendering global prompt: %w", err)
	}
	return buf.String(), nil
}

// ParseMetaSummaries extracts the ###SECTION blocks of a meta prompt reply.
// A block must start with a digit; the leading digits of its first line are
// the section number and the remaining lines the summary. Blocks that do
// not fit are skipped. The result is sorted by section.
func ParseMetaSummaries(response string) []types.MetaSummary {
	var out []types.MetaSummary
	for _, block := range strings.Split(response, sectionMarker) {
		block = strings.TrimSpace(block)
		if block == "" || !unicode.IsDigit(rune(block[0])) {
			continue
		}

		first, rest, _ := strings.Cut(block, "\n")
		n, err := strconv.Atoi(leadingDigits(strings.TrimSpace(first)))
		if err != nil {
			continue
		}
		out = append(out, types.MetaSummary{Section: n, Summary: strings.TrimSpace(rest)})
	}

	slices.SortStableFunc(out, func(a, b types.MetaSummary) int { return a.Section - b.Section })
	return out
}

func leadingDigits(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		return s
	}
	return s[:end]
}
