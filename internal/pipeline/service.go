// Package pipeline provides the high-level orchestration of resume parsing, listing scrapes
// and auto-apply runs. The CLI and the HTTP server both go through Service.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/intern-autoapply/internal/apply"
	"github.com/jonathan/intern-autoapply/internal/browser"
	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/ledger"
	"github.com/jonathan/intern-autoapply/internal/listing"
	"github.com/jonathan/intern-autoapply/internal/llm"
	"github.com/jonathan/intern-autoapply/internal/resume"
	"github.com/jonathan/intern-autoapply/internal/schemas"
	"github.com/jonathan/intern-autoapply/internal/types"
)

// Errors surfaced to callers
var (
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")
	ErrNoPostings    = errors.New("no postings file found; scrape first")
	ErrRunInProgress = errors.New("an auto-apply run is already in progress")
)

// Browser is an apply page backed by a browser process that must be closed.
type Browser interface {
	apply.Page
	Close()
}

// Deps are the collaborators a Service creates per operation.
// Nil fields are filled with the real implementations by NewService.
type Deps struct {
	NewLLM       func(ctx context.Context) (llm.Client, error)
	NewFetcher   func(client llm.Client, category string) listing.Fetcher
	OpenLedger   func(ctx context.Context) (ledger.Store, error)
	ReadLedger   func(ctx context.Context) ([]types.SubmissionRecord, error)
	OpenBrowser  func(ctx context.Context) (Browser, error)
	Credentials  func() (config.Credentials, error)
	ApplyOptions func() apply.Options
}

// Service runs the pipeline operations against one configuration.
type Service struct {
	cfg  config.Config
	deps Deps

	// applyMu keeps a single apply run per process; the file ledger lock covers other processes.
	applyMu sync.Mutex
}

// NewService creates a Service. cfg should already be merged with config.Defaults().
func NewService(cfg config.Config, deps Deps) *Service {
	s := &Service{cfg: cfg, deps: deps}

	if s.deps.NewLLM == nil {
		s.deps.NewLLM = func(ctx context.Context) (llm.Client, error) {
			if cfg.APIKey == "" {
				return nil, ErrMissingAPIKey
			}
			return llm.NewGeminiClient(ctx, nil, cfg.APIKey)
		}
	}
	if s.deps.NewFetcher == nil {
		s.deps.NewFetcher = func(client llm.Client, category string) listing.Fetcher {
			return listing.NewInternshalaFetcher(client, listing.Options{
				BaseURL:    cfg.ListingBaseURL,
				Category:   category,
				UseBrowser: cfg.UseBrowser,
				Verbose:    cfg.Verbose,
			})
		}
	}
	if s.deps.OpenLedger == nil {
		s.deps.OpenLedger = func(ctx context.Context) (ledger.Store, error) {
			return ledger.Open(ctx, cfg)
		}
	}
	if s.deps.ReadLedger == nil {
		s.deps.ReadLedger = func(ctx context.Context) ([]types.SubmissionRecord, error) {
			return ledger.ReadRecords(ctx, cfg)
		}
	}
	if s.deps.OpenBrowser == nil {
		s.deps.OpenBrowser = func(ctx context.Context) (Browser, error) {
			sel, err := browser.ParseSelectors(cfg.BrowserSelectors)
			if err != nil {
				return nil, err
			}
			opts := browser.DefaultOptions()
			opts.Selectors = sel
			opts.Show = cfg.ShowBrowser
			opts.Verbose = cfg.Verbose
			return browser.NewSession(ctx, opts)
		}
	}
	if s.deps.Credentials == nil {
		s.deps.Credentials = func() (config.Credentials, error) {
			return config.LoadCredentials(cfg.Email)
		}
	}
	if s.deps.ApplyOptions == nil {
		s.deps.ApplyOptions = func() apply.Options {
			opts := apply.DefaultOptions()
			opts.MaxApplications = cfg.MaxApplications
			opts.MaxConsecutiveFailures = cfg.MaxConsecutiveFailures
			if cfg.PortfolioLink != "" {
				opts.PortfolioLink = cfg.PortfolioLink
			}
			opts.Verbose = cfg.Verbose
			return opts
		}
	}
	return s
}

// Config returns the configuration the service was built with.
func (s *Service) Config() config.Config {
	return s.cfg
}

// ParseResume extracts the resume's text and asks the model for up to five job titles.
func (s *Service) ParseResume(ctx context.Context, filename string, r io.Reader) (*types.ParseResumeResult, error) {
	text, err := resume.ExtractText(filename, r)
	if err != nil {
		return nil, err
	}

	client, err := s.deps.NewLLM(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	titles, err := resume.ExtractJobTitles(ctx, client, text)
	if err != nil {
		return nil, err
	}

	result := &types.ParseResumeResult{JobTitles: titles}
	doc, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job titles: %w", err)
	}
	if err := schemas.Validate(schemas.JobTitles, doc); err != nil {
		return nil, err
	}
	return result, nil
}

// ScrapeJobs scrapes postings for keyword with the configured category and limit.
func (s *Service) ScrapeJobs(ctx context.Context, keyword string) ([]types.Posting, error) {
	return s.Scrape(ctx, types.ScrapeRequest{Keyword: keyword})
}

// Scrape fetches relevant postings and replaces the category's postings file with them.
// An empty result leaves the previous file in place.
func (s *Service) Scrape(ctx context.Context, req types.ScrapeRequest) ([]types.Posting, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	category := req.Category
	if category == "" {
		category = s.cfg.Category
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.cfg.FetchLimit
	}

	// Keyword expansion degrades to the bare keyword without a model.
	client, err := s.deps.NewLLM(ctx)
	if err != nil {
		log.Printf("[LISTING] Keyword expansion disabled: %v", err)
		client = nil
	} else {
		defer func() { _ = client.Close() }()
	}

	postings, err := s.deps.NewFetcher(client, category).Fetch(ctx, req.Keyword, limit)
	if err != nil {
		return nil, err
	}

	path := s.postingsFile(category)
	if len(postings) == 0 {
		log.Printf("[LISTING] No postings found for %q; keeping %s", req.Keyword, path)
		return []types.Posting{}, nil
	}
	if err := listing.SaveCSV(path, postings); err != nil {
		return nil, err
	}
	log.Printf("[LISTING] Saved %d postings to %s", len(postings), path)
	return postings, nil
}

// postingsFile is the configured file for the configured category, and the
// per-category default for any other.
func (s *Service) postingsFile(category string) string {
	if category == "" || category == s.cfg.Category {
		if s.cfg.PostingsFile != "" {
			return s.cfg.PostingsFile
		}
	}
	return config.PostingsFileFor(category)
}

// AutoApply walks the saved postings with the configured caps.
func (s *Service) AutoApply(ctx context.Context) (*types.AutoApplyResult, error) {
	return s.AutoApplyWithProgress(ctx, nil)
}

// AutoApplyWithProgress is AutoApply with a callback for every posting attempted.
func (s *Service) AutoApplyWithProgress(ctx context.Context, onAttempt func(apply.Attempt, apply.Session)) (*types.AutoApplyResult, error) {
	res, err := s.RunApply(ctx, onAttempt)
	if err != nil {
		return nil, err
	}
	return summarize(res), nil
}

// RunApply acquires the ledger and a browser, runs the walker over the saved postings and
// releases both. It returns the full run for callers that report per-attempt detail.
func (s *Service) RunApply(ctx context.Context, onAttempt func(apply.Attempt, apply.Session)) (*apply.RunResult, error) {
	if !s.applyMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.applyMu.Unlock()

	postings, err := listing.LoadCSV(s.postingsFile(s.cfg.Category))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoPostings
		}
		return nil, err
	}

	if len(postings) == 0 {
		return &apply.RunResult{StopReason: apply.StopExhausted}, nil
	}

	creds, err := s.deps.Credentials()
	if err != nil {
		return nil, &apply.SetupError{Message: "credentials", Cause: err}
	}

	store, err := s.deps.OpenLedger(ctx)
	if err != nil {
		return nil, &apply.SetupError{Message: "open submission ledger", Cause: err}
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("[LEDGER] Close failed: %v", err)
		}
	}()

	page, err := s.deps.OpenBrowser(ctx)
	if err != nil {
		return nil, &apply.SetupError{Message: "start browser", Cause: err}
	}
	defer page.Close()

	opts := s.deps.ApplyOptions()
	opts.OnAttempt = onAttempt
	walker, err := apply.New(page, store, creds, opts)
	if err != nil {
		return nil, err
	}
	return walker.Run(ctx, postings), nil
}

// summarize turns a run into the service-boundary result.
func summarize(res *apply.RunResult) *types.AutoApplyResult {
	out := &types.AutoApplyResult{
		Status:  types.StatusSuccess,
		Applied: res.Applied,
	}
	if out.Applied == nil {
		out.Applied = []types.SubmissionRecord{}
	}
	if res.RunID != uuid.Nil {
		out.RunID = res.RunID.String()
	}

	switch res.StopReason {
	case apply.StopFailureCap:
		out.Status = types.StatusAborted
		out.Message = fmt.Sprintf("Stopped after %d consecutive failures; applied to %d posting(s)",
			res.Session.ConsecutiveFailures, len(res.Applied))
	case apply.StopCancelled:
		out.Status = types.StatusAborted
		out.Message = fmt.Sprintf("Run cancelled; applied to %d posting(s)", len(res.Applied))
	default:
		if len(res.Attempts) == 0 {
			out.Message = "No postings to apply to"
		} else {
			out.Message = fmt.Sprintf("Applied to %d posting(s)", len(res.Applied))
		}
	}
	return out
}

// Submissions lists every record in the ledger. It does not wait for a running apply.
func (s *Service) Submissions(ctx context.Context) ([]types.SubmissionRecord, error) {
	records, err := s.deps.ReadLedger(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []types.SubmissionRecord{}
	}
	return records, nil
}
