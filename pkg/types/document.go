// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Page is the text of one PDF page. Numbers are 1-based.
type Page struct {
	Number int    `json:"page" yaml:"page"`
	Text   string `json:"text" yaml:"text"`
}

// Chunk is a piece of page text produced by the splitter.
type Chunk struct {
	// Page is the 1-based page the chunk came from.
	Page int `json:"page" yaml:"page"`

	// ChunkID is "<page>_<n>" where n counts chunks within the page from 1.
	ChunkID string `json:"chunk_id" yaml:"chunk_id"`

	Text string `json:"text" yaml:"text"`
}

// MetaSummary is the refined summary the model produced for one
// meta-section. Section is the 1-based position of the meta-section.
type MetaSummary struct {
	Section int    `json:"section" yaml:"section"`
	Summary string `json:"summary" yaml:"summary"`
}

// Result carries every intermediate artifact of a summarization run.
type Result struct {
	Pages          []Page        `json:"pages" yaml:"pages"`
	Chunks         []Chunk       `json:"chunks" yaml:"chunks"`
	MetaSections   []string      `json:"meta_sections" yaml:"meta_sections"`
	CompressedMeta []string      `json:"compressed_meta" yaml:"compressed_meta"`
	MetaSummaries  []MetaSummary `json:"meta_summaries" yaml:"meta_summaries"`
	GlobalSummary  string        `json:"global_summary" yaml:"global_summary"`
}
