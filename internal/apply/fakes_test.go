package apply

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/types"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

const confirmedURL = "https://internshala.com/student/matching-preferences"

// site scripts how one posting page behaves.
type site struct {
	alreadyApplied  bool
	navigateErr     error
	clickFailures   int // failed primary+fallback rounds before the click works; -1 never works
	primaryOnlyFail bool
	loginPrompt     bool
	loginFailures   int // submissions that leave the form visible; -1 never logs in
	availabilityErr error
	blocks          []QuestionBlock
	afterURL        string
	afterContent    string
	panicOnSubmit   bool
}

type fakePage struct {
	mu        sync.Mutex
	sites     map[string]*site
	current   string
	loggedIn  bool
	logins    int
	navigated []string
	clicks    map[string]int
	labels    []string
	radios    []string
	areas     []string
	inputs    []string
	submitted []string
}

func newFakePage() *fakePage {
	return &fakePage{sites: map[string]*site{}, clicks: map[string]int{}}
}

func (f *fakePage) add(link string, s *site) types.Posting {
	f.sites[types.CanonicalLink(link)] = s
	return types.Posting{Title: "Data Analyst", Company: "Acme", Link: link}
}

func (f *fakePage) site() *site {
	if s, ok := f.sites[f.current]; ok {
		return s
	}
	return &site{}
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, url)
	f.current = url
	return f.site().navigateErr
}

func (f *fakePage) DismissOverlay(context.Context) (bool, error) { return false, nil }

func (f *fakePage) ApplyControl(context.Context) (ControlState, error) {
	if f.site().alreadyApplied {
		return ControlAlreadyApplied, nil
	}
	return ControlAvailable, nil
}

func (f *fakePage) ClickApply(context.Context) error {
	f.clicks[f.current]++
	s := f.site()
	if s.primaryOnlyFail {
		return errors.New("element not interactable")
	}
	if s.clickFailures < 0 || f.clicks[f.current] <= s.clickFailures {
		return errors.New("element not interactable")
	}
	return nil
}

func (f *fakePage) ClickApplyByLabel(_ context.Context, label string) error {
	f.labels = append(f.labels, label)
	s := f.site()
	if s.primaryOnlyFail {
		return nil
	}
	return errors.New("no button labelled " + label)
}

func (f *fakePage) OpenLogin(context.Context) (bool, error) {
	return f.site().loginPrompt && !f.loggedIn, nil
}

func (f *fakePage) SubmitLogin(_ context.Context, creds config.Credentials) error {
	if creds.Email == "" {
		return errors.New("no email")
	}
	f.logins++
	return nil
}

func (f *fakePage) LoginFormVisible(context.Context) (bool, error) {
	s := f.site()
	if s.loginFailures < 0 || f.logins <= s.loginFailures {
		return true, nil
	}
	f.loggedIn = true
	return false, nil
}

func (f *fakePage) ConfirmAvailability(context.Context, string) (bool, error) {
	if err := f.site().availabilityErr; err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakePage) QuestionBlocks(context.Context) ([]QuestionBlock, error) {
	return f.site().blocks, nil
}

func (f *fakePage) ChooseRadio(_ context.Context, _ int, value string) error {
	f.radios = append(f.radios, value)
	return nil
}

func (f *fakePage) FillTextAreas(_ context.Context, block int, text string) (int, error) {
	f.areas = append(f.areas, text)
	return f.site().blocks[block].TextAreas, nil
}

func (f *fakePage) FillTextInputs(_ context.Context, block int, text string) (int, error) {
	f.inputs = append(f.inputs, text)
	return f.site().blocks[block].TextInputs, nil
}

func (f *fakePage) Submit(context.Context) error {
	if f.site().panicOnSubmit {
		panic("stale element")
	}
	f.submitted = append(f.submitted, f.current)
	return nil
}

func (f *fakePage) Location(context.Context) (string, string, error) {
	s := f.site()
	if s.afterURL == "" {
		return f.current, s.afterContent, nil
	}
	return s.afterURL, s.afterContent, nil
}

func (f *fakePage) visited(link string) int {
	n := 0
	for _, u := range f.navigated {
		if u == link {
			n++
		}
	}
	return n
}

// fakeClock advances instantly and remembers every sleep.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

func (c *fakeClock) count(d time.Duration) int {
	n := 0
	for _, s := range c.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

type memLedger struct {
	links     map[string]bool
	records   []types.SubmissionRecord
	hasErr    error
	recordErr error
}

func newMemLedger(links ...string) *memLedger {
	l := &memLedger{links: map[string]bool{}}
	for _, link := range links {
		l.links[types.CanonicalLink(link)] = true
	}
	return l
}

func (l *memLedger) Has(_ context.Context, link string) (bool, error) {
	if l.hasErr != nil {
		return false, l.hasErr
	}
	return l.links[types.CanonicalLink(link)], nil
}

func (l *memLedger) Record(_ context.Context, rec types.SubmissionRecord) error {
	if l.recordErr != nil {
		return l.recordErr
	}
	link := types.CanonicalLink(rec.Link)
	if l.links[link] {
		return nil
	}
	l.links[link] = true
	l.records = append(l.records, rec)
	return nil
}

func confirmedSite() *site {
	return &site{afterURL: confirmedURL}
}

func failingSite() *site {
	return &site{afterContent: strings.Repeat("please fill the form ", 2)}
}
