// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Provider names an LLM backend.
type Provider string

const (
	ProviderGroq   Provider = "groq"
	ProviderOllama Provider = "ollama"
)

// SupportedProviders returns the provider names the factory can build, in
// display order.
func SupportedProviders() []Provider {
	return []Provider{ProviderGroq, ProviderOllama}
}

// ParseProvider normalizes a provider name. The comparison is
// case-insensitive; unknown names return an error listing the supported set.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	for _, s := range SupportedProviders() {
		if p == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported provider: %s. Supported providers: %s", name, providerList())
}

func providerList() string {
	names := make([]string, 0, len(SupportedProviders()))
	for _, p := range SupportedProviders() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// Extractor backend names.
const (
	ExtractorNative    = "native"
	ExtractorPdftotext = "pdftotext"
)

// ProcessingConfig holds the splitting, grouping, and compression settings
// of the hierarchical pipeline.
type ProcessingConfig struct {
	// ChunkSize is the maximum chunk length in characters (default 1800).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`

	// ChunkOverlap is the number of characters shared by adjacent chunks (default 250).
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap" mapstructure:"chunk_overlap"`

	// Separators are tried in order when splitting text.
	Separators []string `json:"separators" yaml:"separators" mapstructure:"separators"`

	// MetaSectionSize is the number of chunks combined into one meta-section (default 5).
	MetaSectionSize int `json:"meta_section_size" yaml:"meta_section_size" mapstructure:"meta_section_size"`

	// CompressionMaxChars caps each compressed meta-section (default 700).
	CompressionMaxChars int `json:"compression_max_chars" yaml:"compression_max_chars" mapstructure:"compression_max_chars"`

	// MetaBatchSize is the number of meta-sections sent per meta prompt.
	// Zero sends all of them in a single prompt.
	MetaBatchSize int `json:"meta_batch_size" yaml:"meta_batch_size" mapstructure:"meta_batch_size"`

	// Concurrency bounds the number of meta prompts in flight (default 2).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MaxTokensMeta is the completion budget of each meta prompt (default 3500).
	MaxTokensMeta int `json:"max_tokens_meta" yaml:"max_tokens_meta" mapstructure:"max_tokens_meta"`

	// MaxTokensGlobal is the completion budget of the global prompt (default 1800).
	MaxTokensGlobal int `json:"max_tokens_global" yaml:"max_tokens_global" mapstructure:"max_tokens_global"`
}

// Validate checks the processing settings.
func (p ProcessingConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ChunkSize, validation.Required, validation.Min(1)),
		validation.Field(&p.ChunkOverlap, validation.Min(0), validation.By(func(any) error {
			if p.ChunkOverlap >= p.ChunkSize {
				return fmt.Errorf("must be smaller than chunk_size (%d)", p.ChunkSize)
			}
			return nil
		})),
		validation.Field(&p.MetaSectionSize, validation.Required, validation.Min(1)),
		validation.Field(&p.CompressionMaxChars, validation.Required, validation.Min(1)),
		validation.Field(&p.MetaBatchSize, validation.Min(0)),
		validation.Field(&p.Concurrency, validation.Required, validation.Min(1)),
	)
}

// ModelConfig holds the settings of one provider.
type ModelConfig struct {
	// ModelName is the model identifier (e.g. "llama-3.3-70b-versatile", "llama3").
	ModelName string `json:"model_name" yaml:"model_name" mapstructure:"model_name"`

	// BaseURL is the provider endpoint. Empty uses the provider default.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey authenticates against hosted providers.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Temperature is the default sampling temperature.
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens is the default completion budget when a call sets none.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// MaxTokensMeta and MaxTokensGlobal override the processing budgets for
	// this provider when positive. Zero keeps the processing budgets.
	MaxTokensMeta   int `json:"max_tokens_meta" yaml:"max_tokens_meta" mapstructure:"max_tokens_meta"`
	MaxTokensGlobal int `json:"max_tokens_global" yaml:"max_tokens_global" mapstructure:"max_tokens_global"`
}

// WithModelBudgets returns p with the token budgets of m applied where m
// sets them.
func (p ProcessingConfig) WithModelBudgets(m ModelConfig) ProcessingConfig {
	if m.MaxTokensMeta > 0 {
		p.MaxTokensMeta = m.MaxTokensMeta
	}
	if m.MaxTokensGlobal > 0 {
		p.MaxTokensGlobal = m.MaxTokensGlobal
	}
	return p
}

// ModelsConfig groups per-provider settings.
type ModelsConfig struct {
	Groq   ModelConfig `json:"groq" yaml:"groq" mapstructure:"groq"`
	Ollama ModelConfig `json:"ollama" yaml:"ollama" mapstructure:"ollama"`
}

// For returns the settings of the given provider.
func (m ModelsConfig) For(p Provider) (ModelConfig, error) {
	switch p {
	case ProviderGroq:
		return m.Groq, nil
	case ProviderOllama:
		return m.Ollama, nil
	default:
		return ModelConfig{}, fmt.Errorf("unsupported provider: %s. Supported providers: %s", p, providerList())
	}
}

// OutputConfig controls where and how summaries are written.
type OutputConfig struct {
	// Dir is the directory for timestamped summaries (default "data/output").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Format is the summary format. Only "markdown" is written.
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// IncludeMetadata prepends YAML frontmatter describing the run.
	IncludeMetadata bool `json:"include_metadata" yaml:"include_metadata" mapstructure:"include_metadata"`

	// HTML also renders the summary to an .html file next to it.
	HTML bool `json:"html" yaml:"html" mapstructure:"html"`
}

// Validate checks the output settings.
func (o OutputConfig) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Dir, validation.Required),
		validation.Field(&o.Format, validation.In("markdown", "md")),
	)
}

// RetryConfig controls retries of failed LLM calls.
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffBase time.Duration `json:"backoff_base" yaml:"backoff_base" mapstructure:"backoff_base"`
	MaxBackoff  time.Duration `json:"max_backoff" yaml:"max_backoff" mapstructure:"max_backoff"`
}

// Validate checks the retry settings.
func (r RetryConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxAttempts, validation.Min(0)),
		validation.Field(&r.BackoffBase, validation.Min(time.Duration(0))),
	)
}

// StoreConfig locates the run history database.
type StoreConfig struct {
	// Path is the SQLite database file (default "data/summarizer.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// History records each run.
	History bool `json:"history" yaml:"history" mapstructure:"history"`

	// Cache reuses LLM responses for identical prompts.
	Cache bool `json:"cache" yaml:"cache" mapstructure:"cache"`
}

// Config is the complete configuration of the summarizer.
type Config struct {
	// Provider selects the LLM backend (default "groq").
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Extractor selects the PDF text backend: native or pdftotext.
	Extractor string `json:"extractor" yaml:"extractor" mapstructure:"extractor"`

	Processing ProcessingConfig `json:"processing" yaml:"processing" mapstructure:"processing"`
	Models     ModelsConfig     `json:"models" yaml:"models" mapstructure:"models"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
	Retry      RetryConfig      `json:"retry" yaml:"retry" mapstructure:"retry"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`

	// HTTPTimeout bounds each provider request.
	HTTPTimeout time.Duration `json:"http_timeout" yaml:"http_timeout" mapstructure:"http_timeout"`

	// InputDir receives PDFs downloaded from URLs (default "data/input").
	InputDir string `json:"input_dir" yaml:"input_dir" mapstructure:"input_dir"`

	// MetricsFile, when set, receives Prometheus metrics in text format.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderGroq, ProviderOllama)),
		validation.Field(&c.Extractor, validation.Required, validation.In(ExtractorNative, ExtractorPdftotext)),
		validation.Field(&c.Processing),
		validation.Field(&c.Output),
		validation.Field(&c.Retry),
	)
}

// DefaultConfig returns the built-in settings used when no config file is present.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderGroq,
		Extractor: ExtractorNative,
		Processing: ProcessingConfig{
			ChunkSize:           1800,
			ChunkOverlap:        250,
			Separators:          []string{"\n\n", "\n", ".", " ", ""},
			MetaSectionSize:     5,
			CompressionMaxChars: 700,
			MetaBatchSize:       0,
			Concurrency:         2,
			MaxTokensMeta:       3500,
			MaxTokensGlobal:     1800,
		},
		Models: ModelsConfig{
			Groq: ModelConfig{
				ModelName:   "llama-3.3-70b-versatile",
				BaseURL:     "https://api.groq.com/openai/v1",
				Temperature: 0,
				MaxTokens:   2000,
			},
			Ollama: ModelConfig{
				ModelName:   "llama3",
				BaseURL:     "http://localhost:11434",
				Temperature: 0,
			},
		},
		Output: OutputConfig{
			Dir:             "data/output",
			Format:          "markdown",
			IncludeMetadata: true,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BackoffBase: 2 * time.Second,
			MaxBackoff:  30 * time.Second,
		},
		Store: StoreConfig{
			Path:    "data/summarizer.db",
			History: true,
			Cache:   true,
		},
		HTTPTimeout: 180 * time.Second,
		InputDir:    "data/input",
	}
}
