package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/intern-autoapply/internal/apply"
	"github.com/jonathan/intern-autoapply/internal/observability"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply to the saved postings in a browser",
	Long: `Walk the postings saved by scrape, applying to each one not already in the submission ledger.

The run stops after --max-applications confirmed submissions or --max-failures failures in a
row. Ctrl-C stops it before the next posting. The listing site login comes from
INTERNSHALA_EMAIL and INTERNSHALA_PASSWORD, or from the keychain (see set-password).`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	service, _, err := newService(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	res, err := service.RunApply(ctx, func(a apply.Attempt, _ apply.Session) {
		printer.PrintAttempt(a)
	})
	if err != nil {
		return err
	}

	printer.PrintRunResult(res)
	if res.StopReason == apply.StopFailureCap {
		return fmt.Errorf("run aborted after %d consecutive failures", res.Session.ConsecutiveFailures)
	}
	return nil
}
