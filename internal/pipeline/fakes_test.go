package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/intern-autoapply/internal/apply"
	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/ledger"
	"github.com/jonathan/intern-autoapply/internal/listing"
	"github.com/jonathan/intern-autoapply/internal/llm"
	"github.com/jonathan/intern-autoapply/internal/types"
)

type fakeLLM struct {
	answer string
	closed bool
}

func (f *fakeLLM) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return f.answer, nil
}

func (f *fakeLLM) Close() error {
	f.closed = true
	return nil
}

type fakeFetcher struct {
	postings []types.Posting
	err      error
	keyword  string
	limit    int
}

func (f *fakeFetcher) Fetch(_ context.Context, keyword string, limit int) ([]types.Posting, error) {
	f.keyword = keyword
	f.limit = limit
	return f.postings, f.err
}

// fakeBrowser accepts every action and lands on the confirmation page after submit.
type fakeBrowser struct {
	navigated []string
	closed    bool
}

func (b *fakeBrowser) Navigate(_ context.Context, url string) error {
	b.navigated = append(b.navigated, url)
	return nil
}
func (b *fakeBrowser) DismissOverlay(context.Context) (bool, error) { return false, nil }
func (b *fakeBrowser) ApplyControl(context.Context) (apply.ControlState, error) {
	return apply.ControlAvailable, nil
}
func (b *fakeBrowser) ClickApply(context.Context) error { return nil }
func (b *fakeBrowser) ClickApplyByLabel(context.Context, string) error { return nil }
func (b *fakeBrowser) OpenLogin(context.Context) (bool, error) { return false, nil }
func (b *fakeBrowser) SubmitLogin(context.Context, config.Credentials) error { return nil }
func (b *fakeBrowser) LoginFormVisible(context.Context) (bool, error) { return false, nil }
func (b *fakeBrowser) ConfirmAvailability(context.Context, string) (bool, error) { return true, nil }
func (b *fakeBrowser) QuestionBlocks(context.Context) ([]apply.QuestionBlock, error) {
	return nil, nil
}
func (b *fakeBrowser) ChooseRadio(context.Context, int, string) error { return nil }
func (b *fakeBrowser) FillTextAreas(context.Context, int, string) (int, error) {
	return 0, nil
}
func (b *fakeBrowser) FillTextInputs(context.Context, int, string) (int, error) {
	return 0, nil
}
func (b *fakeBrowser) Submit(context.Context) error { return nil }
func (b *fakeBrowser) Location(context.Context) (string, string, error) {
	return "https://internshala.com/student/matching-preferences", "", nil
}
func (b *fakeBrowser) Close() { b.closed = true }

type instantClock struct{ now time.Time }

func (c *instantClock) Now() time.Time { return c.now }
func (c *instantClock) Sleep(ctx context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return ctx.Err()
}

type harness struct {
	cfg     config.Config
	llm     *fakeLLM
	fetcher *fakeFetcher
	browser *fakeBrowser
	creds   config.Credentials
	credErr error
	svc     *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Defaults()
	cfg.PostingsFile = filepath.Join(dir, "internshala_internships.csv")
	cfg.LedgerLog = filepath.Join(dir, "submitted_log.txt")
	cfg.LedgerDetails = filepath.Join(dir, "submitted_details.json")
	cfg.MaxApplications = 1

	h := &harness{
		cfg:     cfg,
		llm:     &fakeLLM{answer: "1. Data Analyst\n2. Backend Developer"},
		fetcher: &fakeFetcher{},
		browser: &fakeBrowser{},
		creds:   config.Credentials{Email: "student@example.com", Password: "hunter22"},
	}
	h.svc = NewService(cfg, Deps{
		NewLLM: func(context.Context) (llm.Client, error) { return h.llm, nil },
		NewFetcher: func(llm.Client, string) listing.Fetcher {
			return h.fetcher
		},
		OpenLedger: func(context.Context) (ledger.Store, error) {
			return ledger.OpenFile(cfg.LedgerLog, cfg.LedgerDetails)
		},
		OpenBrowser: func(context.Context) (Browser, error) { return h.browser, nil },
		Credentials: func() (config.Credentials, error) { return h.creds, h.credErr },
		ApplyOptions: func() apply.Options {
			opts := apply.DefaultOptions()
			opts.MaxApplications = cfg.MaxApplications
			opts.Clock = &instantClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
			return opts
		},
	})
	return h
}

func samplePostings() []types.Posting {
	return []types.Posting{
		{Title: "Data Analyst", Company: "Acme", Link: "https://internshala.com/internship/detail/a"},
		{Title: "Data Analyst Intern", Company: "Globex", Link: "https://internshala.com/internship/detail/b"},
	}
}

func (h *harness) savePostings(t *testing.T, postings []types.Posting) {
	t.Helper()
	var withDefaults []types.Posting
	for _, p := range postings {
		withDefaults = append(withDefaults, p.WithDefaults())
	}
	if err := listing.SaveCSV(h.cfg.PostingsFile, withDefaults); err != nil {
		t.Fatalf("failed to save postings: %v", err)
	}
}
