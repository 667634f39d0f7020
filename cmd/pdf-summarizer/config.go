// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-summarizer/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config prints the configuration after defaults, the config file, and
environment variables are merged. API keys are redacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if paths, _ := cmd.Flags().GetBool("paths"); paths {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.SearchPaths(), "\n"))
			return nil
		}
		return config.Dump(cmd.OutOrStdout(), appConfig)
	},
}

func init() {
	configCmd.Flags().Bool("paths", false, "list the config file search paths instead")
	rootCmd.AddCommand(configCmd)
}
