// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunStatus tracks a summarization run in the history store.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one invocation of the summarizer as recorded in the history store.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	PDFPath    string    `json:"pdf_path" yaml:"pdf_path"`
	PDFSHA256  string    `json:"pdf_sha256" yaml:"pdf_sha256"`
	Provider   Provider  `json:"provider" yaml:"provider"`
	Model      string    `json:"model" yaml:"model"`
	OutputPath string    `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Status     RunStatus `json:"status" yaml:"status"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`

	Pages        int `json:"pages" yaml:"pages"`
	Chunks       int `json:"chunks" yaml:"chunks"`
	MetaSections int `json:"meta_sections" yaml:"meta_sections"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`

	GlobalSummary string        `json:"global_summary,omitempty" yaml:"global_summary,omitempty"`
	MetaSummaries []MetaSummary `json:"meta_summaries,omitempty" yaml:"meta_summaries,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
