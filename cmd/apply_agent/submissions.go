package main

import (
	"encoding/json"

	"github.com/jonathan/intern-autoapply/internal/observability"
	"github.com/spf13/cobra"
)

var submissionsJSON bool

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "List the applications recorded in the submission ledger",
	Args:  cobra.NoArgs,
	RunE:  runSubmissions,
}

func init() {
	submissionsCmd.Flags().BoolVar(&submissionsJSON, "json", false, "Print the records as JSON")
	rootCmd.AddCommand(submissionsCmd)
}

func runSubmissions(cmd *cobra.Command, _ []string) error {
	service, _, err := newService(cmd)
	if err != nil {
		return err
	}

	records, err := service.Submissions(cmd.Context())
	if err != nil {
		return err
	}

	if submissionsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSubmissions(records)
	return nil
}
