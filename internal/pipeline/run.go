package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/jonathan/intern-autoapply/internal/apply"
	"github.com/jonathan/intern-autoapply/internal/pipeline/steps"
	"github.com/jonathan/intern-autoapply/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the full pipeline
type RunOptions struct {
	ResumeName string    // file name, used for its extension
	Resume     io.Reader // resume contents
	Keyword    string    // skips resume parsing when set
	OnProgress ProgressCallback
}

// RunSummary is what a full pipeline run produced.
type RunSummary struct {
	JobTitles []string               `json:"job_titles,omitempty"`
	Keyword   string                 `json:"keyword"`
	Postings  []types.Posting        `json:"internships"`
	Result    *types.AutoApplyResult `json:"result"`
}

// AttemptEvent is the content of an apply progress event.
type AttemptEvent struct {
	Link             string `json:"link"`
	Title            string `json:"title"`
	Company          string `json:"company"`
	Outcome          string `json:"outcome"`
	Error            string `json:"error,omitempty"`
	ApplicationsDone int    `json:"applications_done"`
	Failures         int    `json:"consecutive_failures"`
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, step, message string, content any) {
	if opts.OnProgress == nil {
		return
	}
	category := ""
	if def, ok := steps.StepRegistry[step]; ok {
		category = def.Category
	}
	if n := steps.Position(step); n > 0 {
		message = fmt.Sprintf("Step %d/%d: %s", n, len(steps.Order), message)
	}
	opts.OnProgress(ProgressEvent{
		Step:     step,
		Category: category,
		Message:  message,
		Content:  content,
	})
}

// RunPipeline goes from a resume (or a keyword) to applications: parse the resume, take
// the top title, scrape postings for it and auto-apply to them.
func (s *Service) RunPipeline(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	completed := map[string]bool{}
	summary := &RunSummary{Keyword: opts.Keyword}

	if summary.Keyword == "" {
		if opts.Resume == nil {
			return nil, fmt.Errorf("either a resume or a keyword is required")
		}
		emitProgress(&opts, steps.ParseResume, "Parsing resume...", nil)
		parsed, err := s.ParseResume(ctx, opts.ResumeName, opts.Resume)
		if err != nil {
			return nil, fmt.Errorf("resume parsing failed: %w", err)
		}
		completed[steps.ParseResume] = true
		summary.JobTitles = parsed.JobTitles
		emitProgress(&opts, steps.ParseResume, fmt.Sprintf("Found %d job titles", len(parsed.JobTitles)), parsed)

		if err := steps.ValidateDependencies(completed, steps.SelectTitle); err != nil {
			return nil, err
		}
		summary.Keyword = parsed.JobTitles[0]
		completed[steps.SelectTitle] = true
		emitProgress(&opts, steps.SelectTitle, fmt.Sprintf("Top job title selected: %s", summary.Keyword), nil)
	}

	emitProgress(&opts, steps.ScrapePostings, fmt.Sprintf("Fetching postings for %q...", summary.Keyword), nil)
	postings, err := s.ScrapeJobs(ctx, summary.Keyword)
	if err != nil {
		return nil, fmt.Errorf("scraping failed: %w", err)
	}
	completed[steps.ScrapePostings] = true
	summary.Postings = postings
	emitProgress(&opts, steps.ScrapePostings, fmt.Sprintf("Found %d relevant postings", len(postings)), postings)

	if err := steps.ValidateDependencies(completed, steps.AutoApply); err != nil {
		return nil, err
	}
	emitProgress(&opts, steps.AutoApply, "Applying...", nil)
	result, err := s.AutoApplyWithProgress(ctx, func(a apply.Attempt, sess apply.Session) {
		emitProgress(&opts, steps.AutoApply, string(a.Outcome)+": "+a.Posting.Title, NewAttemptEvent(a, sess))
	})
	if err != nil {
		return nil, fmt.Errorf("auto-apply failed: %w", err)
	}
	summary.Result = result
	emitProgress(&opts, steps.AutoApply, result.Message, result)
	return summary, nil
}

// NewAttemptEvent describes an attempt for progress listeners.
func NewAttemptEvent(a apply.Attempt, s apply.Session) AttemptEvent {
	ev := AttemptEvent{
		Link:             a.Posting.Key(),
		Title:            a.Posting.Title,
		Company:          a.Posting.Company,
		Outcome:          string(a.Outcome),
		ApplicationsDone: s.ApplicationsDone,
		Failures:         s.ConsecutiveFailures,
	}
	if a.Err != nil {
		ev.Error = a.Err.Error()
	}
	return ev
}
