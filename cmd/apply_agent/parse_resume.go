package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/intern-autoapply/internal/observability"
	"github.com/spf13/cobra"
)

var parseResumeJSON bool

var parseResumeCmd = &cobra.Command{
	Use:   "parse-resume <file>",
	Short: "Suggest job titles for a resume (.pdf, .docx or .txt)",
	Args:  cobra.ExactArgs(1),
	RunE:  runParseResume,
}

func init() {
	parseResumeCmd.Flags().BoolVar(&parseResumeJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(parseResumeCmd)
}

func runParseResume(cmd *cobra.Command, args []string) error {
	service, _, err := newService(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open resume: %w", err)
	}
	defer func() { _ = f.Close() }()

	result, err := service.ParseResume(cmd.Context(), filepath.Base(args[0]), f)
	if err != nil {
		return err
	}

	if parseResumeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintJobTitles(result.JobTitles)
	return nil
}
