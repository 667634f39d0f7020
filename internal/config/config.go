// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads pdf-summarizer settings from a YAML file, the
// environment, and built-in defaults, in that order of precedence after
// the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// EnvPrefix prefixes every configuration key read from the environment,
// e.g. PDF_SUMMARIZER_PROCESSING_CHUNK_SIZE.
const EnvPrefix = "PDF_SUMMARIZER"

// Unprefixed variables recognized for compatibility with existing .env files.
const (
	EnvDefaultProvider = "DEFAULT_MODEL_PROVIDER"
	EnvGroqAPIKey      = "GROQ_API_KEY"
	EnvOllamaBaseURL   = "OLLAMA_BASE_URL"
)

const redacted = "****"

// SearchPaths returns the config files tried in order when no explicit path
// is given. The first that exists is used.
func SearchPaths() []string {
	paths := []string{
		"pdf-summarizer.yaml",
		filepath.Join("config", "config.yaml"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "pdf-summarizer", "config.yaml"))
	}
	return paths
}

// Load builds the configuration. An explicit path must exist; without one
// the SearchPaths are tried and defaults apply when none is found. The
// result is validated.
func Load(path string, logger *slog.Logger) (types.Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v, "provider", EnvDefaultProvider)
	bindEnv(v, "models.groq.api_key", EnvGroqAPIKey)
	bindEnv(v, "models.ollama.base_url", EnvOllamaBaseURL)

	file, err := resolveFile(path)
	if err != nil {
		return types.Config{}, err
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return types.Config{}, fmt.Errorf("reading config %s: %w", file, err)
		}
		logger.Debug("using config file", "path", file)
	} else {
		logger.Debug("no config file found, using defaults")
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	p, err := types.ParseProvider(string(cfg.Provider))
	if err != nil {
		return types.Config{}, err
	}
	cfg.Provider = p

	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg and wraps any violation.
func Validate(cfg types.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Dump writes cfg as YAML with API keys redacted.
func Dump(w io.Writer, cfg types.Config) error {
	cfg.Models.Groq.APIKey = redact(cfg.Models.Groq.APIKey)
	cfg.Models.Ollama.APIKey = redact(cfg.Models.Ollama.APIKey)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}

func resolveFile(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return path, nil
	}
	for _, p := range SearchPaths() {
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("checking config file %s: %w", p, err)
		}
	}
	return "", nil
}

// bindEnv binds key to its prefixed variable first and the legacy name second.
func bindEnv(v *viper.Viper, key, legacy string) {
	prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	// BindEnv only fails when called without a key.
	_ = v.BindEnv(key, prefixed, legacy)
}

func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()

	v.SetDefault("provider", string(d.Provider))
	v.SetDefault("extractor", d.Extractor)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("metrics_file", d.MetricsFile)

	v.SetDefault("processing.chunk_size", d.Processing.ChunkSize)
	v.SetDefault("processing.chunk_overlap", d.Processing.ChunkOverlap)
	v.SetDefault("processing.separators", d.Processing.Separators)
	v.SetDefault("processing.meta_section_size", d.Processing.MetaSectionSize)
	v.SetDefault("processing.compression_max_chars", d.Processing.CompressionMaxChars)
	v.SetDefault("processing.meta_batch_size", d.Processing.MetaBatchSize)
	v.SetDefault("processing.concurrency", d.Processing.Concurrency)
	v.SetDefault("processing.max_tokens_meta", d.Processing.MaxTokensMeta)
	v.SetDefault("processing.max_tokens_global", d.Processing.MaxTokensGlobal)

	for name, m := range map[string]types.ModelConfig{"groq": d.Models.Groq, "ollama": d.Models.Ollama} {
		prefix := "models." + name + "."
		v.SetDefault(prefix+"model_name", m.ModelName)
		v.SetDefault(prefix+"base_url", m.BaseURL)
		v.SetDefault(prefix+"api_key", m.APIKey)
		v.SetDefault(prefix+"temperature", m.Temperature)
		v.SetDefault(prefix+"max_tokens", m.MaxTokens)
		v.SetDefault(prefix+"max_tokens_meta", m.MaxTokensMeta)
		v.SetDefault(prefix+"max_tokens_global", m.MaxTokensGlobal)
	}

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.include_metadata", d.Output.IncludeMetadata)
	v.SetDefault("output.html", d.Output.HTML)

	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.backoff_base", d.Retry.BackoffBase)
	v.SetDefault("retry.max_backoff", d.Retry.MaxBackoff)

	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.history", d.Store.History)
	v.SetDefault("store.cache", d.Store.Cache)
}
