// Package cmd wires the command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sitesmith",
	Short: "sitesmith - LLM-backed app generation and deployment service",
	Long: `sitesmith turns natural-language prompts into deployed web apps.
It extracts clean files from model output, applies incremental patches on
follow-up turns, and reconciles each session against its deployed spaces.

Run "sitesmith serve" to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
