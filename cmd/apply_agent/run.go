package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jonathan/intern-autoapply/internal/observability"
	"github.com/jonathan/intern-autoapply/internal/pipeline"
	"github.com/jonathan/intern-autoapply/internal/pipeline/steps"
	"github.com/jonathan/intern-autoapply/internal/types"
	"github.com/spf13/cobra"
)

var (
	runResumePath string
	runKeyword    string
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline end-to-end",
	Long: `Parse a resume, take its top job title, scrape postings for it and apply to them.

Pass --keyword instead of --resume to skip resume parsing.`,
	RunE: runPipelineCmd,
}

func init() {
	runCommand.Flags().StringVarP(&runResumePath, "resume", "r", "", "Path to a resume (.pdf, .docx or .txt)")
	runCommand.Flags().StringVarP(&runKeyword, "keyword", "k", "", "Search keyword (skips resume parsing)")
	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	if runResumePath == "" && strings.TrimSpace(runKeyword) == "" {
		return fmt.Errorf("either --resume or --keyword must be provided")
	}

	service, cfg, err := newService(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)
	opts := pipeline.RunOptions{
		Keyword: strings.TrimSpace(runKeyword),
		OnProgress: func(event pipeline.ProgressEvent) {
			_, _ = fmt.Fprintln(out, event.Message)
			if !cfg.Verbose {
				return
			}
			switch content := event.Content.(type) {
			case *types.ParseResumeResult:
				printer.PrintJobTitles(content.JobTitles)
			case []types.Posting:
				if event.Step == steps.ScrapePostings {
					printer.PrintPostings(content)
				}
			}
		},
	}

	if opts.Keyword == "" {
		f, err := os.Open(runResumePath)
		if err != nil {
			return fmt.Errorf("failed to open resume: %w", err)
		}
		defer func() { _ = f.Close() }()
		opts.ResumeName = filepath.Base(runResumePath)
		opts.Resume = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := service.RunPipeline(ctx, opts)
	if err != nil {
		return err
	}
	printer.PrintAutoApplyResult(summary.Result)
	if summary.Result != nil && summary.Result.Status == types.StatusAborted {
		return fmt.Errorf("run aborted: %s", summary.Result.Message)
	}
	return nil
}
