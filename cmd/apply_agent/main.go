// Package main provides the entry point for the internship auto-apply CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apply_agent",
	Short: "Internship auto-apply pipeline",
	Long: `apply_agent turns a resume into job titles, scrapes matching internship listings and
walks a browser through each application, recording every confirmed submission so that
no posting is applied to twice.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
