// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// ExportYAML writes up to limit runs, newest first and with their
// meta-summaries, as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	runs, err := s.exportRuns(ctx, limit)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the same data as ExportYAML as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, limit int) error {
	runs, err := s.exportRuns(ctx, limit)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportRuns(ctx context.Context, limit int) ([]types.Run, error) {
	runs, err := s.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if runs == nil {
		runs = []types.Run{}
	}
	for i := range runs {
		runs[i].MetaSummaries, err = s.sections(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}
