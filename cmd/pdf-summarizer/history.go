// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-summarizer/internal/store"
	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and export past summarization runs",
	Long: `History reads the run database (store.path, default data/summarizer.db).
Every summarization records its source, provider, model, counts, output
path, and meta-summaries there unless --no-history is given.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := store.Open(appConfig.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return formatRunList(cmd.OutOrStdout(), runs, jsonOutput)
}

func formatRunList(w io.Writer, runs []types.Run, jsonOutput bool) error {
	if jsonOutput {
		if runs == nil {
			runs = []types.Run{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-8s  %-19s  %-9s  %-8s  %5s  %8s  %s\n",
		"ID", "Started", "Status", "Provider", "Pages", "Duration", "PDF")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		fmt.Fprintf(w, "%-8s  %-19s  %-9s  %-8s  %5d  %8s  %s\n",
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status,
			r.Provider,
			r.Pages,
			formatDuration(r.Duration()),
			r.PDFPath,
		)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run with its meta-summaries",
	Long: `Show prints a run and its meta-summaries. The id may be any unique
prefix of the run ID as printed by history list.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	st, err := store.Open(appConfig.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	formatRun(cmd.OutOrStdout(), run)
	return nil
}

func formatRun(w io.Writer, r types.Run) {
	fmt.Fprintf(w, "Run:       %s\n", r.ID)
	fmt.Fprintf(w, "Status:    %s\n", r.Status)
	fmt.Fprintf(w, "PDF:       %s\n", r.PDFPath)
	if r.PDFSHA256 != "" {
		fmt.Fprintf(w, "SHA-256:   %s\n", r.PDFSHA256)
	}
	fmt.Fprintf(w, "Provider:  %s (%s)\n", r.Provider, r.Model)
	fmt.Fprintf(w, "Started:   %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration:  %s\n", formatDuration(r.Duration()))
	fmt.Fprintf(w, "Counts:    %d pages, %d chunks, %d meta-sections\n", r.Pages, r.Chunks, r.MetaSections)
	if r.OutputPath != "" {
		fmt.Fprintf(w, "Output:    %s\n", r.OutputPath)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:     %s\n", r.Error)
	}

	for _, m := range r.MetaSummaries {
		fmt.Fprintf(w, "\n### Section %d\n%s\n", m.Section, m.Summary)
	}
	if r.GlobalSummary != "" {
		fmt.Fprintf(w, "\n## Global summary\n%s\n", r.GlobalSummary)
	}
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs with their meta-summaries as YAML or JSON",
	Args:  cobra.NoArgs,
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	limit, _ := cmd.Flags().GetInt("limit")

	st, err := store.Open(appConfig.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	switch strings.ToLower(format) {
	case "yaml", "yml":
		return st.ExportYAML(cmd.Context(), cmd.OutOrStdout(), limit)
	case "json":
		return st.ExportJSON(cmd.Context(), cmd.OutOrStdout(), limit)
	default:
		return fmt.Errorf("unsupported export format %q: use yaml or json", format)
	}
}

// --- cache subcommand ---

var historyClearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Delete every cached LLM response",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(appConfig.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.ClearCache(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached responses.\n", n)
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs (0 for all)")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().Int("limit", 0, "maximum number of runs (0 for all)")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd, historyClearCacheCmd)
	rootCmd.AddCommand(historyCmd)
}
