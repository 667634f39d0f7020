// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compress strips extraction noise from meta-sections and caps their
// length before they are sent to a model.
package compress

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultMaxChars is the length cap applied when a Compressor has none.
const DefaultMaxChars = 700

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	pageMarkerRe = regexp.MustCompile(`(?i)PAGE\s*\d+`)
	disallowedRe = regexp.MustCompile(`[^a-zA-Z0-9.,;:()?\- ]`)
)

// Compressor normalizes text and truncates it to MaxChars characters.
type Compressor struct {
	MaxChars int
}

// New returns a Compressor with the given cap. Non-positive values use
// DefaultMaxChars.
func New(maxChars int) *Compressor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Compressor{MaxChars: maxChars}
}

// Compress collapses whitespace, replaces page markers such as "Page 12" with a space,
// replaces characters outside letters, digits, spaces and basic punctuation
// with spaces, collapses again, and truncates.
func (c *Compressor) Compress(text string) string {
	text = collapse(text)
	text = pageMarkerRe.ReplaceAllString(text, " ")
	text = disallowedRe.ReplaceAllString(text, " ")
	text = collapse(text)
	return truncate(text, c.maxChars())
}

// CompressBatch compresses every text, preserving order.
func (c *Compressor) CompressBatch(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = c.Compress(t)
	}
	return out
}

// CompressWithRules compresses text and then blanks every match of the
// extra patterns, for boilerplate specific to a document family.
func (c *Compressor) CompressWithRules(text string, patterns []string) (string, error) {
	rules := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return "", fmt.Errorf("compiling rule %q: %w", p, err)
		}
		rules = append(rules, re)
	}

	text = c.Compress(text)
	for _, re := range rules {
		text = re.ReplaceAllString(text, " ")
	}
	return truncate(collapse(text), c.maxChars()), nil
}

func (c *Compressor) maxChars() int {
	if c.MaxChars <= 0 {
		return DefaultMaxChars
	}
	return c.MaxChars
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
