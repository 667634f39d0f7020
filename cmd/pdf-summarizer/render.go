// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-summarizer/internal/output"
)

var renderCmd = &cobra.Command{
	Use:   "render <summary.md>",
	Short: "Render a Markdown summary to HTML",
	Long: `Render converts a summary written by pdf-summarizer into a standalone HTML
page. YAML frontmatter is stripped and its source field becomes the title.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		path, err := output.WriteHTML(args[0], out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "HTML saved to: %s\n", path)
		return nil
	},
}

func init() {
	renderCmd.Flags().String("output", "", "HTML file path (default: summary path with .html)")
	rootCmd.AddCommand(renderCmd)
}
