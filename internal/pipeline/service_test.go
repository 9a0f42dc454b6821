package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/intern-autoapply/internal/apply"
	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/ledger"
	"github.com/jonathan/intern-autoapply/internal/listing"
	"github.com/jonathan/intern-autoapply/internal/llm"
	"github.com/jonathan/intern-autoapply/internal/resume"
	"github.com/jonathan/intern-autoapply/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResume(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.ParseResume(context.Background(), "cv.txt", strings.NewReader("Jane Doe\nPython, SQL, Tableau"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Analyst", "Backend Developer"}, res.JobTitles)
	assert.True(t, h.llm.closed)
}

func TestParseResume_UnsupportedFormat(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.ParseResume(context.Background(), "cv.rtf", strings.NewReader("{\\rtf1}"))
	var formatErr *resume.UnsupportedFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestParseResume_NoTitles(t *testing.T) {
	h := newHarness(t)
	h.llm.answer = "1. AWS Certified Developer"

	_, err := h.svc.ParseResume(context.Background(), "cv.txt", strings.NewReader("Jane Doe"))
	assert.ErrorIs(t, err, resume.ErrNoJobTitles)
}

func TestParseResume_MissingAPIKey(t *testing.T) {
	cfg := config.Defaults()
	svc := NewService(cfg, Deps{})

	_, err := svc.ParseResume(context.Background(), "cv.txt", strings.NewReader("Jane Doe"))
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestScrapeJobs_SavesPostings(t *testing.T) {
	h := newHarness(t)
	h.fetcher.postings = samplePostings()

	postings, err := h.svc.ScrapeJobs(context.Background(), "Data Analyst")
	require.NoError(t, err)
	assert.Len(t, postings, 2)
	assert.Equal(t, "Data Analyst", h.fetcher.keyword)
	assert.Equal(t, h.cfg.FetchLimit, h.fetcher.limit)

	saved, err := listing.LoadCSV(h.cfg.PostingsFile)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "https://internshala.com/internship/detail/b", saved[1].Link)
}

func TestScrape_EmptyResultKeepsPreviousFile(t *testing.T) {
	h := newHarness(t)
	h.savePostings(t, samplePostings())

	postings, err := h.svc.ScrapeJobs(context.Background(), "Astrophysics")
	require.NoError(t, err)
	assert.Empty(t, postings)

	saved, err := listing.LoadCSV(h.cfg.PostingsFile)
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestScrape_RequestValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Scrape(context.Background(), types.ScrapeRequest{Keyword: ""})
	assert.Error(t, err)
	_, err = h.svc.Scrape(context.Background(), types.ScrapeRequest{Keyword: "x", Category: "gig"})
	assert.Error(t, err)
}

func TestScrape_OtherCategoryUsesItsOwnFile(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, h.cfg.PostingsFile, h.svc.postingsFile("internship"))
	assert.Equal(t, h.cfg.PostingsFile, h.svc.postingsFile(""))
	assert.Equal(t, "internshala_jobs.csv", h.svc.postingsFile("job"))
}

func TestScrape_FetchError(t *testing.T) {
	h := newHarness(t)
	h.fetcher.err = listing.ErrEmptyKeyword

	_, err := h.svc.ScrapeJobs(context.Background(), "???")
	assert.ErrorIs(t, err, listing.ErrEmptyKeyword)
}

func TestScrape_WithoutModel(t *testing.T) {
	h := newHarness(t)
	h.fetcher.postings = samplePostings()[:1]
	h.svc.deps.NewLLM = func(context.Context) (llm.Client, error) { return nil, ErrMissingAPIKey }

	postings, err := h.svc.ScrapeJobs(context.Background(), "Data Analyst")
	require.NoError(t, err)
	assert.Len(t, postings, 1)
}

func TestAutoApply_NoPostingsFile(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.AutoApply(context.Background())
	assert.ErrorIs(t, err, ErrNoPostings)
}

func TestAutoApply_EmptyPostings(t *testing.T) {
	h := newHarness(t)
	h.savePostings(t, nil)

	res, err := h.svc.AutoApply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.Equal(t, "No postings to apply to", res.Message)
	assert.Empty(t, res.Applied)
	assert.Empty(t, h.browser.navigated)
}

func TestAutoApply_AppliesAndRecords(t *testing.T) {
	h := newHarness(t)
	h.savePostings(t, samplePostings())

	var seen []apply.Attempt
	res, err := h.svc.AutoApplyWithProgress(context.Background(), func(a apply.Attempt, _ apply.Session) {
		seen = append(seen, a)
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "https://internshala.com/internship/detail/a", res.Applied[0].Link)
	assert.Len(t, seen, 1)
	assert.True(t, h.browser.closed)

	records, err := h.svc.Submissions(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, res.Applied[0].Link, records[0].Link)

	// The next run picks up the second posting and skips the first.
	h.browser.navigated = nil
	res, err = h.svc.AutoApply(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "https://internshala.com/internship/detail/b", res.Applied[0].Link)
	assert.Equal(t, []string{"https://internshala.com/internship/detail/b"}, h.browser.navigated)
}

func TestAutoApply_MissingCredentials(t *testing.T) {
	h := newHarness(t)
	h.savePostings(t, samplePostings())
	h.credErr = config.ErrMissingCredentials

	_, err := h.svc.AutoApply(context.Background())
	var setupErr *apply.SetupError
	assert.ErrorAs(t, err, &setupErr)
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
	assert.Empty(t, h.browser.navigated)
}

func TestAutoApply_BrowserFailure(t *testing.T) {
	h := newHarness(t)
	h.savePostings(t, samplePostings())
	h.svc.deps.OpenBrowser = func(context.Context) (Browser, error) {
		return nil, errors.New("chrome not found")
	}

	_, err := h.svc.AutoApply(context.Background())
	var setupErr *apply.SetupError
	assert.ErrorAs(t, err, &setupErr)
}

func TestAutoApply_OneRunAtATime(t *testing.T) {
	h := newHarness(t)
	h.savePostings(t, samplePostings())

	h.svc.applyMu.Lock()
	_, err := h.svc.AutoApply(context.Background())
	h.svc.applyMu.Unlock()
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestSubmissions_Empty(t *testing.T) {
	h := newHarness(t)

	records, err := h.svc.Submissions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSubmissions_WhileLedgerIsHeld(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	writer, err := ledger.OpenFile(h.cfg.LedgerLog, h.cfg.LedgerDetails)
	require.NoError(t, err)
	defer func() { _ = writer.Close() }()
	require.NoError(t, writer.Record(ctx, types.SubmissionRecord{
		Link:      "https://internshala.com/internship/detail/a",
		Title:     "Data Analyst",
		Company:   "Acme",
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}))

	records, err := h.svc.Submissions(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0].Company)
}

func TestSummarize(t *testing.T) {
	res := summarize(&apply.RunResult{
		StopReason: apply.StopFailureCap,
		Attempts:   []apply.Attempt{{}, {}, {}},
		Session:    apply.Session{ConsecutiveFailures: 3},
	})
	assert.Equal(t, types.StatusAborted, res.Status)
	assert.Contains(t, res.Message, "3 consecutive failures")
	assert.NotNil(t, res.Applied)

	res = summarize(&apply.RunResult{StopReason: apply.StopCancelled})
	assert.Equal(t, types.StatusAborted, res.Status)
	assert.Empty(t, res.RunID)
}
