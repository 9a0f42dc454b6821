package main

import (
	"fmt"
	"strings"

	"github.com/jonathan/intern-autoapply/internal/observability"
	"github.com/jonathan/intern-autoapply/internal/types"
	"github.com/spf13/cobra"
)

var scrapeLimit int

var scrapeCmd = &cobra.Command{
	Use:   "scrape <keyword>",
	Short: "Scrape listings for a keyword and save them for the next apply run",
	Long: `Fetch listings for a keyword, keep the ones relevant to it and replace the postings CSV.

Keyword expansion uses Gemini when GEMINI_API_KEY is set and falls back to the bare keyword otherwise.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().IntVarP(&scrapeLimit, "limit", "n", 0, "Maximum postings to keep (defaults to fetch_limit)")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	service, cfg, err := newService(cmd)
	if err != nil {
		return err
	}

	req := types.ScrapeRequest{
		Keyword:  strings.TrimSpace(strings.Join(args, " ")),
		Limit:    scrapeLimit,
		Category: cfg.Category,
	}
	postings, err := service.Scrape(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(postings) == 0 {
		_, _ = fmt.Fprintf(out, "No relevant postings found for %q\n", req.Keyword)
		return nil
	}
	observability.NewPrinter(out).PrintPostings(postings)
	_, _ = fmt.Fprintf(out, "Saved %d postings to %s\n", len(postings), cfg.PostingsFile)
	return nil
}
