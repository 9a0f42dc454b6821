// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/intern-autoapply/internal/apply"
	"github.com/jonathan/intern-autoapply/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = clip(line, boxWidth-4)
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to n runes, ending in "..." when cut.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintJobTitles outputs the titles suggested for a resume, best first.
func (p *Printer) PrintJobTitles(titles []string) {
	if len(titles) == 0 {
		return
	}

	var sb strings.Builder
	for i, t := range titles {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, t))
	}
	p.printBox("SUGGESTED JOB TITLES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPostings outputs the first few scraped postings.
func (p *Printer) PrintPostings(postings []types.Posting) {
	if len(postings) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Postings found: %d\n\n", len(postings)))

	count := min(len(postings), maxItemsToShow)
	for i := 0; i < count; i++ {
		posting := postings[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, posting.Title))
		sb.WriteString(fmt.Sprintf("    %s · %s\n", posting.Company, posting.Location))
		if posting.Stipend != "" && posting.Stipend != types.Placeholder {
			sb.WriteString(fmt.Sprintf("    Stipend: %s\n", posting.Stipend))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(postings) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(postings)-maxItemsToShow))
	}

	p.printBox("SCRAPED POSTINGS", strings.TrimSuffix(sb.String(), "\n"))
}

// FormatAttempt returns a one-line summary of an apply attempt.
func FormatAttempt(a apply.Attempt) string {
	mark := "✗"
	switch a.Outcome {
	case apply.OutcomeConfirmed:
		mark = "✓"
	case apply.OutcomeAlreadyApplied:
		mark = "↷"
	}
	line := fmt.Sprintf("%s %s at %s (%s)", mark, a.Posting.Title, a.Posting.Company, a.Outcome)
	if a.Err != nil {
		line += ": " + a.Err.Error()
	}
	return line
}

// PrintAttempt outputs a single line for an apply attempt.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintAttempt(a apply.Attempt) {
	fmt.Fprintln(p.out, FormatAttempt(a))
}

// PrintRunResult outputs the summary of an apply run.
func (p *Printer) PrintRunResult(res *apply.RunResult) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:        %s\n", res.RunID))
	sb.WriteString(fmt.Sprintf("Stopped:    %s\n", stopLabel(res.StopReason)))
	sb.WriteString(fmt.Sprintf("Postings:   %d\n", res.Session.Postings))
	sb.WriteString(fmt.Sprintf("Applied:    %d\n", len(res.Applied)))

	failed, skipped, incomplete := 0, 0, 0
	var elapsed time.Duration
	for _, a := range res.Attempts {
		switch a.Outcome {
		case apply.OutcomeFailed:
			failed++
		case apply.OutcomeAlreadyApplied:
			skipped++
		}
		if a.Incomplete {
			incomplete++
		}
		elapsed += a.Duration
	}
	sb.WriteString(fmt.Sprintf("Skipped:    %d\n", skipped))
	sb.WriteString(fmt.Sprintf("Failed:     %d\n", failed))
	if incomplete > 0 {
		sb.WriteString(fmt.Sprintf("Incomplete: %d (submitted with unanswered questions)\n", incomplete))
	}
	sb.WriteString(fmt.Sprintf("Time:       %s\n", elapsed.Round(time.Second)))

	if len(res.Applied) > 0 {
		sb.WriteString("\n")
		for _, rec := range res.Applied {
			sb.WriteString(fmt.Sprintf("  • %s at %s\n", rec.Title, rec.Company))
		}
	}

	p.printBox("AUTO-APPLY RUN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAutoApplyResult outputs the service-level result of an apply run.
func (p *Printer) PrintAutoApplyResult(res *types.AutoApplyResult) {
	if res == nil {
		return
	}

	var sb strings.Builder
	if res.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run:     %s\n", res.RunID))
	}
	sb.WriteString(fmt.Sprintf("Status:  %s\n", res.Status))
	sb.WriteString(res.Message)
	for _, rec := range res.Applied {
		sb.WriteString(fmt.Sprintf("\n  • %s at %s", rec.Title, rec.Company))
	}
	p.printBox("AUTO-APPLY RESULT", sb.String())
}

func stopLabel(r apply.StopReason) string {
	switch r {
	case apply.StopSuccessCap:
		return "application limit reached"
	case apply.StopFailureCap:
		return "too many consecutive failures"
	case apply.StopCancelled:
		return "cancelled"
	default:
		return "no postings left"
	}
}

// PrintSubmissions outputs the ledger's records, most recent last.
func (p *Printer) PrintSubmissions(records []types.SubmissionRecord) {
	if len(records) == 0 {
		p.printBox("SUBMISSIONS", "No applications recorded yet")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total: %d\n\n", len(records)))
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("%s  %s\n", rec.Timestamp.Local().Format("2006-01-02 15:04"), rec.Title))
		sb.WriteString(fmt.Sprintf("    %s\n", rec.Company))
		sb.WriteString(fmt.Sprintf("    %s\n", rec.Link))
	}
	p.printBox("SUBMISSIONS", strings.TrimSuffix(sb.String(), "\n"))
}
