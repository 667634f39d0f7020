// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-summarizer/internal/llm"
	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported LLM providers and their configured models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		for _, p := range types.SupportedProviders() {
			mc, err := appConfig.Models.For(p)
			if err != nil {
				return err
			}
			marker := " "
			if p == appConfig.Provider {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %-7s  %-28s  %s\n", marker, p, mc.ModelName, mc.BaseURL)
		}
		return nil
	},
}

var providersCheckCmd = &cobra.Command{
	Use:   "check [provider]",
	Short: "Check that a provider is reachable and serves the configured model",
	Long: `Check connects to the provider (default: the configured one) and verifies
that the configured model is available. For Groq this lists the models
visible to the API key; for Ollama it lists the locally pulled models.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		provider, err := resolveProvider(name, appConfig.Provider)
		if err != nil {
			return err
		}

		mc, err := appConfig.Models.For(provider)
		if err != nil {
			return err
		}
		if model, _ := cmd.Flags().GetString("model"); model != "" {
			mc.ModelName = model
		}
		if provider == types.ProviderGroq {
			apiKey, _ := cmd.Flags().GetString("api-key")
			if mc.APIKey, err = resolveGroqKey(apiKey, loadedSecrets, mc.APIKey); err != nil {
				return err
			}
		}

		client, err := llm.New(string(provider), mc, llm.WithTimeout(appConfig.HTTPTimeout))
		if err != nil {
			return err
		}
		if err := client.Validate(cmd.Context()); err != nil {
			return fmt.Errorf("%s check failed: %w", provider, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (model %s)\n", provider, client.Model())
		return nil
	},
}

func init() {
	providersCheckCmd.Flags().String("model", "", "model to check (default: from config)")
	providersCheckCmd.Flags().String("api-key", "", "Groq API key (overrides env variable)")
	providersCmd.AddCommand(providersCheckCmd)
	rootCmd.AddCommand(providersCmd)
}
