// Package browser drives a real Chrome tab through the listing site's application flow.
// Session implements apply.Page on top of chromedp.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/intern-autoapply/internal/apply"
	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/fetch"
)

// Timeouts
const (
	DefaultNavigateTimeout = 45 * time.Second
	DefaultActionTimeout   = 10 * time.Second
)

// Options configures a Session.
type Options struct {
	Show            bool // run with a visible window
	NavigateTimeout time.Duration
	ActionTimeout   time.Duration
	Selectors       Selectors
	Verbose         bool
}

// DefaultOptions returns headless options with the listing site's selectors.
func DefaultOptions() Options {
	return Options{
		NavigateTimeout: DefaultNavigateTimeout,
		ActionTimeout:   DefaultActionTimeout,
		Selectors:       DefaultSelectors(),
	}
}

// Session owns one browser and one tab. It is not safe for concurrent use.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	opts    Options
}

var _ apply.Page = (*Session)(nil)

// NewSession launches Chrome and opens a blank tab. The browser lives until Close
// or until parent is cancelled. Requires Chrome/Chromium on the system.
func NewSession(parent context.Context, opts Options) (*Session, error) {
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = DefaultNavigateTimeout
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}
	opts.Selectors = opts.Selectors.withDefaults()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocatorOptions(opts.Show)...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &Session{ctx: tabCtx, cancels: []context.CancelFunc{cancelTab, cancelAlloc}, opts: opts}
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	if opts.Verbose {
		log.Printf("[BROWSER] Started (show=%t)", opts.Show)
	}
	return s, nil
}

func allocatorOptions(show bool) []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !show),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent(fetch.DefaultUserAgent),
	)
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *Session) eval(ctx context.Context, script string, res any) error {
	return s.run(ctx, s.opts.ActionTimeout, chromedp.Evaluate(script, res))
}

// Navigate opens url and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, s.opts.NavigateTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) DismissOverlay(ctx context.Context) (bool, error) {
	var closed bool
	err := s.eval(ctx, dismissOverlayJS(s.opts.Selectors), &closed)
	return closed, err
}

func (s *Session) ApplyControl(ctx context.Context) (apply.ControlState, error) {
	var state string
	if err := s.eval(ctx, applyControlJS(s.opts.Selectors), &state); err != nil {
		return apply.ControlMissing, err
	}
	switch state {
	case "already_applied":
		return apply.ControlAlreadyApplied, nil
	case "available":
		return apply.ControlAvailable, nil
	default:
		return apply.ControlMissing, nil
	}
}

// ClickApply clicks the primary apply control once it is visible.
func (s *Session) ClickApply(ctx context.Context) error {
	sel := s.opts.Selectors.ApplyButton
	return s.run(ctx, s.opts.ActionTimeout,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
	)
}

func (s *Session) ClickApplyByLabel(ctx context.Context, label string) error {
	var clicked bool
	if err := s.eval(ctx, clickButtonByTextJS(label), &clicked); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("no visible button containing %q", label)
	}
	return nil
}

func (s *Session) OpenLogin(ctx context.Context) (bool, error) {
	var opened bool
	err := s.eval(ctx, clickIfPresentJS(s.opts.Selectors.LoginLink), &opened)
	return opened, err
}

// SubmitLogin types the credentials into the login modal and submits it.
func (s *Session) SubmitLogin(ctx context.Context, creds config.Credentials) error {
	sel := s.opts.Selectors
	return s.run(ctx, s.opts.ActionTimeout,
		chromedp.WaitVisible(sel.Email, chromedp.ByQuery),
		chromedp.SetValue(sel.Email, "", chromedp.ByQuery),
		chromedp.SendKeys(sel.Email, creds.Email, chromedp.ByQuery),
		chromedp.SetValue(sel.Password, "", chromedp.ByQuery),
		chromedp.SendKeys(sel.Password, creds.Password, chromedp.ByQuery),
		chromedp.Click(sel.LoginSubmit, chromedp.ByQuery),
	)
}

func (s *Session) LoginFormVisible(ctx context.Context) (bool, error) {
	var visible bool
	err := s.eval(ctx, visibleJS(s.opts.Selectors.Email), &visible)
	return visible, err
}

func (s *Session) ConfirmAvailability(ctx context.Context, note string) (bool, error) {
	var found bool
	err := s.eval(ctx, confirmAvailabilityJS(s.opts.Selectors, note), &found)
	return found, err
}

// jsBlock is the shape questionBlocksJS returns.
type jsBlock struct {
	Radios     []string `json:"radios"`
	TextAreas  int      `json:"textareas"`
	TextInputs int      `json:"inputs"`
}

func (s *Session) QuestionBlocks(ctx context.Context) ([]apply.QuestionBlock, error) {
	var raw []jsBlock
	if err := s.eval(ctx, questionBlocksJS(s.opts.Selectors), &raw); err != nil {
		return nil, err
	}
	blocks := make([]apply.QuestionBlock, 0, len(raw))
	for i, b := range raw {
		blocks = append(blocks, apply.QuestionBlock{
			Index:       i,
			RadioValues: b.Radios,
			TextAreas:   b.TextAreas,
			TextInputs:  b.TextInputs,
		})
	}
	if s.opts.Verbose {
		log.Printf("[BROWSER] Found %d question block(s)", len(blocks))
	}
	return blocks, nil
}

func (s *Session) ChooseRadio(ctx context.Context, block int, value string) error {
	var clicked bool
	if err := s.eval(ctx, chooseRadioJS(s.opts.Selectors, block, value), &clicked); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("question %d has no radio %q", block+1, value)
	}
	return nil
}

func (s *Session) FillTextAreas(ctx context.Context, block int, text string) (int, error) {
	var n int
	err := s.eval(ctx, fillFieldsJS(s.opts.Selectors, block, "textarea", text), &n)
	return n, err
}

func (s *Session) FillTextInputs(ctx context.Context, block int, text string) (int, error) {
	var n int
	err := s.eval(ctx, fillFieldsJS(s.opts.Selectors, block, "input[type='text']", text), &n)
	return n, err
}

// ErrSubmitMissing is returned when the form has no submit control.
var ErrSubmitMissing = errors.New("submit button not found")

func (s *Session) Submit(ctx context.Context) error {
	var clicked bool
	if err := s.eval(ctx, clickIfPresentJS(s.opts.Selectors.Submit), &clicked); err != nil {
		return err
	}
	if !clicked {
		return ErrSubmitMissing
	}
	return nil
}

// Location returns the tab's URL and the visible text of the page.
func (s *Session) Location(ctx context.Context) (string, string, error) {
	var url, text string
	err := s.run(ctx, s.opts.ActionTimeout,
		chromedp.Location(&url),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
	)
	return url, text, err
}
