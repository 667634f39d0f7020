// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-summarizer/internal/config"
	"github.com/pdiddy/pdf-summarizer/internal/extract"
	"github.com/pdiddy/pdf-summarizer/internal/fetch"
	"github.com/pdiddy/pdf-summarizer/internal/llm"
	"github.com/pdiddy/pdf-summarizer/internal/metrics"
	"github.com/pdiddy/pdf-summarizer/internal/output"
	"github.com/pdiddy/pdf-summarizer/internal/secrets"
	"github.com/pdiddy/pdf-summarizer/internal/store"
	"github.com/pdiddy/pdf-summarizer/internal/summarize"
	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

const rule = "============================================================"

func addSummarizeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("provider", "", "LLM provider: groq or ollama (default: from config/env)")
	f.String("model", "", "model name (default: from config)")
	f.String("output", "", "output file path (default: ./data/output/summary_<timestamp>.md)")
	f.Bool("save-intermediate", false, "save intermediate results (chunks, meta-sections, etc.)")
	f.String("api-key", "", "API key for the provider (overrides env variable)")
	f.String("base-url", "", "provider endpoint (overrides config)")
	f.String("extractor", "", "PDF text extractor: native or pdftotext")
	f.String("pages", "", "page range to summarize, e.g. 3-10 or 5")
	f.Bool("html", false, "also render the summary to HTML")
	f.Bool("no-cache", false, "do not reuse or store cached LLM responses")
	f.Bool("no-history", false, "do not record the run in the history database")
	f.String("metrics-file", "", "write Prometheus metrics to this file")
}

// summarizeOptions are the per-run settings taken from flags.
type summarizeOptions struct {
	provider         string
	model            string
	outputPath       string
	apiKey           string
	baseURL          string
	pages            string
	saveIntermediate bool
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	cfg := appConfig
	opts, err := applySummarizeFlags(cmd, &cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return summarizeDocument(ctx, cmd.OutOrStdout(), cfg, opts, args[0])
}

// applySummarizeFlags copies flag overrides into cfg and validates the
// result.
func applySummarizeFlags(cmd *cobra.Command, cfg *types.Config) (summarizeOptions, error) {
	f := cmd.Flags()
	var opts summarizeOptions
	opts.provider, _ = f.GetString("provider")
	opts.model, _ = f.GetString("model")
	opts.outputPath, _ = f.GetString("output")
	opts.apiKey, _ = f.GetString("api-key")
	opts.baseURL, _ = f.GetString("base-url")
	opts.pages, _ = f.GetString("pages")
	opts.saveIntermediate, _ = f.GetBool("save-intermediate")

	if v, _ := f.GetString("extractor"); v != "" {
		cfg.Extractor = v
	}
	if v, _ := f.GetBool("html"); v {
		cfg.Output.HTML = true
	}
	if v, _ := f.GetBool("no-cache"); v {
		cfg.Store.Cache = false
	}
	if v, _ := f.GetBool("no-history"); v {
		cfg.Store.History = false
	}
	if v, _ := f.GetString("metrics-file"); v != "" {
		cfg.MetricsFile = v
	}

	if err := config.Validate(*cfg); err != nil {
		return opts, err
	}
	return opts, nil
}

// resolveProvider picks the flag value, then the configured provider, then
// groq.
func resolveProvider(flag string, configured types.Provider) (types.Provider, error) {
	name := flag
	if name == "" {
		name = string(configured)
	}
	if name == "" {
		return types.ProviderGroq, nil
	}
	return types.ParseProvider(name)
}

// resolveGroqKey checks the flag, the environment, the .secrets file, and
// the configured key in that order.
func resolveGroqKey(flag string, secretValues map[string]string, configured string) (string, error) {
	key := secrets.Lookup(flag, os.Getenv(config.EnvGroqAPIKey), secretValues[secrets.GroqAPIKey], configured)
	if key == "" {
		return "", llm.ErrMissingAPIKey
	}
	return key, nil
}

// parsePageRange parses "a-b", "a-" or "a" into a 1-based inclusive range.
// An end of zero means the last page.
func parsePageRange(s string) (start, end int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	lo, hi, found := strings.Cut(s, "-")
	start, err = strconv.Atoi(strings.TrimSpace(lo))
	if err != nil || start < 1 {
		return 0, 0, fmt.Errorf("invalid page range %q: start must be a positive number", s)
	}
	if !found {
		return start, start, nil
	}
	hi = strings.TrimSpace(hi)
	if hi == "" {
		return start, 0, nil
	}
	end, err = strconv.Atoi(hi)
	if err != nil || end < start {
		return 0, 0, fmt.Errorf("invalid page range %q: end must be a number not below start", s)
	}
	return start, end, nil
}

func printBanner(w io.Writer, provider types.Provider, source string) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "Hierarchical PDF Summarizer")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Provider: %s\n", provider)
	fmt.Fprintf(w, "PDF: %s\n", source)
	fmt.Fprintf(w, "%s\n\n", rule)
}

// summarizeDocument runs one summarization end to end: resolve the input,
// build the client stack, summarize, write outputs, and record history.
func summarizeDocument(ctx context.Context, w io.Writer, cfg types.Config, opts summarizeOptions, source string) (err error) {
	provider, err := resolveProvider(opts.provider, cfg.Provider)
	if err != nil {
		return err
	}
	printBanner(w, provider, source)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	pdfPath := source
	if fetch.IsURL(source) {
		res, err := fetch.Download(ctx, httpClient, source, cfg.InputDir, "")
		if err != nil {
			return fmt.Errorf("downloading %s: %w", source, err)
		}
		if res.Skipped {
			fmt.Fprintf(w, "Using previously downloaded file: %s\n", res.Path)
		} else {
			fmt.Fprintf(w, "Downloaded %d bytes to %s\n", res.Bytes, res.Path)
		}
		pdfPath = res.Path
	}
	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("PDF file not found: %s", pdfPath)
	}

	pageStart, pageEnd, err := parsePageRange(opts.pages)
	if err != nil {
		return err
	}

	modelCfg, err := cfg.Models.For(provider)
	if err != nil {
		return err
	}
	if opts.model != "" {
		modelCfg.ModelName = opts.model
	}
	if opts.baseURL != "" {
		modelCfg.BaseURL = opts.baseURL
	}
	if provider == types.ProviderGroq {
		modelCfg.APIKey, err = resolveGroqKey(opts.apiKey, loadedSecrets, modelCfg.APIKey)
		if err != nil {
			return err
		}
	}
	cfg.Processing = cfg.Processing.WithModelBudgets(modelCfg)

	recorder := metrics.NewRecorder()
	defer func() {
		if werr := recorder.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Warn("could not write metrics", "error", werr)
		}
	}()

	retryCfg := llm.RetryConfigFrom(cfg.Retry)
	base, err := llm.New(string(provider), modelCfg,
		llm.WithRateLimitRetries(retryCfg.RateLimitRetries()),
		llm.WithHTTPClient(httpClient),
	)
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}
	fmt.Fprintf(w, "LLM client initialized: %s\n", provider)

	client := llm.WithMetrics(base, recorder)
	client = llm.WithRetry(client, retryCfg, logger)

	var (
		st  *store.Store
		run types.Run
	)
	if cfg.Store.History || cfg.Store.Cache {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
	}
	if cfg.Store.Cache {
		client = llm.WithCache(client, st, llm.OnCacheHit(recorder.CacheHit), llm.CacheLogger(logger))
	}
	if cfg.Store.History {
		sum, herr := store.FileSHA256(pdfPath)
		if herr != nil {
			logger.Warn("could not hash PDF", "path", pdfPath, "error", herr)
		}
		run, err = st.BeginRun(ctx, types.Run{
			PDFPath:   pdfPath,
			PDFSHA256: sum,
			Provider:  provider,
			Model:     client.Model(),
		})
		if err != nil {
			return err
		}
		defer func() {
			if err == nil {
				return
			}
			if ferr := st.FailRun(context.WithoutCancel(ctx), run.ID, err); ferr != nil {
				logger.Warn("could not record failed run", "run", run.ID, "error", ferr)
			}
		}()
	}

	extractor, err := extract.New(cfg.Extractor)
	if err != nil {
		return err
	}

	sumOpts := []summarize.Option{
		summarize.WithProgress(w),
		summarize.WithLogger(logger),
		summarize.WithRecorder(recorder),
	}
	if pageStart > 0 {
		sumOpts = append(sumOpts, summarize.WithPageRange(pageStart, pageEnd))
	}
	summarizer, err := summarize.New(client, extractor, cfg.Processing, sumOpts...)
	if err != nil {
		return err
	}

	result, err := summarizer.ProcessPDF(ctx, pdfPath)
	if err != nil {
		return fmt.Errorf("error during summarization: %w", err)
	}

	now := time.Now()
	outputPath := opts.outputPath
	if outputPath == "" {
		outputPath = output.DefaultPath(cfg.Output.Dir, now)
	}
	meta := output.Metadata{
		Source:       pdfPath,
		Provider:     string(provider),
		Model:        client.Model(),
		RunID:        run.ID,
		Pages:        len(result.Pages),
		Chunks:       len(result.Chunks),
		MetaSections: len(result.MetaSections),
		GeneratedAt:  now,
	}
	if err = output.WriteSummary(outputPath, result, meta, cfg.Output.IncludeMetadata); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nSummary saved to: %s\n", outputPath)

	if opts.saveIntermediate {
		dir, err := output.WriteIntermediate(outputPath, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Intermediate results saved to: %s\n", dir)
	}

	if cfg.Output.HTML {
		htmlPath, err := output.WriteHTML(outputPath, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "HTML saved to: %s\n", htmlPath)
	}

	if cfg.Store.History {
		if err = st.CompleteRun(ctx, run.ID, outputPath, result); err != nil {
			return err
		}
		fmt.Fprintf(w, "Run recorded: %s\n", run.ID)
	}

	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "Summarization completed successfully!")
	fmt.Fprintf(w, "%s\n\n", rule)
	return nil
}
