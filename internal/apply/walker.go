// Package apply walks a list of postings through the listing site's application flow:
// open the posting, press apply, log in when asked, answer the extra questions, submit
// and check for confirmation. Each posting is attempted at most once per run, and the
// run stops at a success cap or after too many failures in a row.
package apply

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/types"
)

// Options configures a Walker.
type Options struct {
	MaxApplications        int
	MaxConsecutiveFailures int

	ApplyRetry RetryPolicy
	LoginRetry RetryPolicy

	PageSettle   time.Duration // after each navigation
	LoginSettle  time.Duration // after submitting credentials
	SubmitSettle time.Duration // after pressing submit

	AlternateApplyLabel string
	AffirmativeValues   []string
	PortfolioLink       string // typed into free-text answers
	TextPlaceholder     string // typed into single-line answers
	AvailabilityNote    string

	Confirmation Confirmation
	Clock        Clock

	// OnAttempt is called after every posting with the attempt and the updated session.
	OnAttempt func(Attempt, Session)
	Verbose   bool
}

// DefaultOptions returns the timings and answers used against the live site.
func DefaultOptions() Options {
	return Options{
		MaxApplications:        1,
		MaxConsecutiveFailures: 3,
		ApplyRetry:             RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second},
		LoginRetry:             RetryPolicy{MaxAttempts: 3, Backoff: 3 * time.Second},
		PageSettle:             4 * time.Second,
		LoginSettle:            5 * time.Second,
		SubmitSettle:           5 * time.Second,
		AlternateApplyLabel:    "Apply now",
		AffirmativeValues:      []string{"yes", "true", "y"},
		PortfolioLink:          "https://drive.google.com/sample-portfolio",
		TextPlaceholder:        types.Placeholder,
		AvailabilityNote:       "I am available full-time starting immediately.",
		Confirmation:           DefaultConfirmation(),
		Clock:                  RealClock(),
	}
}

// Walker applies to postings one at a time on a single page.
type Walker struct {
	page   Page
	ledger Ledger
	creds  config.Credentials
	opts   Options
}

// New checks the run's inputs. Missing credentials or collaborators are a *SetupError.
func New(page Page, ledger Ledger, creds config.Credentials, opts Options) (*Walker, error) {
	if page == nil {
		return nil, &SetupError{Message: "no browser page"}
	}
	if ledger == nil {
		return nil, &SetupError{Message: "no submission ledger"}
	}
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, &SetupError{Message: "listing site credentials are incomplete", Cause: config.ErrMissingCredentials}
	}
	if opts.MaxApplications < 1 {
		return nil, &SetupError{Message: fmt.Sprintf("max applications must be at least 1, got %d", opts.MaxApplications)}
	}
	if opts.MaxConsecutiveFailures < 1 {
		return nil, &SetupError{Message: fmt.Sprintf("max consecutive failures must be at least 1, got %d", opts.MaxConsecutiveFailures)}
	}
	if opts.ApplyRetry.MaxAttempts < 1 || opts.LoginRetry.MaxAttempts < 1 {
		return nil, &SetupError{Message: "retry policies need at least one attempt"}
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	return &Walker{page: page, ledger: ledger, creds: creds, opts: opts}, nil
}

// Run walks postings in order until a cap is reached, the list ends or ctx is done.
// Per-posting failures are logged and counted, never returned.
func (w *Walker) Run(ctx context.Context, postings []types.Posting) *RunResult {
	result := &RunResult{RunID: uuid.New()}
	session := Session{}
	log.Printf("[APPLY] Run %s: %d postings, up to %d applications", result.RunID, len(postings), w.opts.MaxApplications)

	for _, p := range postings {
		if reason, stop := w.stopReason(ctx, session); stop {
			result.StopReason = reason
			break
		}

		var att Attempt
		att, session = w.walkPosting(ctx, session, p)
		result.Attempts = append(result.Attempts, att)
		if att.Outcome == OutcomeConfirmed && att.Record != nil {
			result.Applied = append(result.Applied, *att.Record)
		}
		if w.opts.OnAttempt != nil {
			w.opts.OnAttempt(att, session)
		}
	}

	if result.StopReason == "" {
		if reason, stop := w.stopReason(ctx, session); stop {
			result.StopReason = reason
		} else {
			result.StopReason = StopExhausted
		}
	}
	result.Session = session

	switch result.StopReason {
	case StopSuccessCap:
		log.Printf("[APPLY] Reached the limit of %d applications", w.opts.MaxApplications)
	case StopFailureCap:
		log.Printf("[APPLY] Stopping after %d consecutive failures", session.ConsecutiveFailures)
	case StopCancelled:
		log.Printf("[APPLY] Run cancelled")
	}
	log.Printf("[APPLY] Done: applied to %d posting(s)", session.ApplicationsDone)
	return result
}

func (w *Walker) stopReason(ctx context.Context, s Session) (StopReason, bool) {
	if reason, stop := s.Stop(w.opts.MaxApplications, w.opts.MaxConsecutiveFailures); stop {
		return reason, true
	}
	if ctx.Err() != nil {
		return StopCancelled, true
	}
	return "", false
}

// walkPosting runs one posting through the state machine. A panic inside the walk
// is turned into a failed attempt.
func (w *Walker) walkPosting(ctx context.Context, s Session, p types.Posting) (att Attempt, next Session) {
	s = s.started()
	att = Attempt{Posting: p, StartedAt: w.opts.Clock.Now()}
	link := p.Key()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[APPLY] Unexpected error on %s: %v", link, r)
			att.Outcome = OutcomeFailed
			att.Err = &StepError{Step: StepWalk, Kind: KindPostingFailed, Cause: fmt.Errorf("panic: %v", r)}
			next = s.failed()
		}
		att.Duration = w.opts.Clock.Now().Sub(att.StartedAt)
	}()

	has, err := w.ledger.Has(ctx, link)
	if err != nil {
		att.Outcome = OutcomeFailed
		att.Err = &StepError{Step: StepSkipCheck, Kind: KindPostingFailed, Cause: err}
		log.Printf("[APPLY] Could not check the ledger for %s: %v", link, err)
		return att, s.failed()
	}
	if has {
		log.Printf("[APPLY] Already applied: %s", link)
		att.Outcome = OutcomeAlreadyApplied
		return att, s
	}

	log.Printf("[APPLY] Applying to: %s at %s (%s)", p.Title, p.Company, link)

	switch out, err := w.walk(ctx, &att, link); out {
	case stepAlreadyApplied:
		log.Printf("[APPLY] Site reports already applied: %s", link)
		att.Outcome = OutcomeAlreadyApplied
		rec := types.NewSubmissionRecord(p, w.opts.Clock.Now())
		if err := w.ledger.Record(ctx, rec); err != nil {
			att.Warnings = append(att.Warnings, &StepError{Step: StepRecord, Kind: KindSoftIncomplete, Cause: err})
			log.Printf("[APPLY] Could not record %s in the ledger: %v", link, err)
		}
		return att, s

	case stepConfirmed:
		rec := types.NewSubmissionRecord(p, w.opts.Clock.Now())
		att.Outcome = OutcomeConfirmed
		att.Record = &rec
		if err := w.ledger.Record(ctx, rec); err != nil {
			// The application went through; only its trace is missing.
			att.Err = &StepError{Step: StepRecord, Kind: KindPostingFailed, Cause: err}
			log.Printf("[APPLY] Applied to %s but could not record it: %v", link, err)
		}
		log.Printf("[APPLY] Success: applied to %s at %s", p.Title, p.Company)
		return att, s.confirmed()

	default:
		att.Outcome = OutcomeFailed
		att.Err = err
		next = s.failed()
		log.Printf("[APPLY] Failed on %s: %v (consecutive failures: %d)", link, err, next.ConsecutiveFailures)
		return att, next
	}
}

type stepOutcome int

const (
	stepContinue stepOutcome = iota
	stepAlreadyApplied
	stepConfirmed
	stepFailed
)

// walk runs steps 2 to 7 for one posting.
func (w *Walker) walk(ctx context.Context, att *Attempt, link string) (stepOutcome, error) {
	if out, err := w.openAndApply(ctx, link); out != stepContinue {
		return out, err
	}

	prompted, err := w.page.OpenLogin(ctx)
	if err != nil {
		w.verbosef("login affordance check failed: %v", err)
	}
	if prompted {
		if out, err := w.authenticate(ctx); out != stepContinue {
			return out, err
		}
		att.LoggedIn = true
		// Logging in can drop the application form, so start the posting over.
		if out, err := w.openAndApply(ctx, link); out != stepContinue {
			return out, err
		}
	}

	if warn := w.fillFields(ctx); warn != nil {
		att.Incomplete = true
		att.Warnings = append(att.Warnings, warn)
		log.Printf("[APPLY] Warning: %v; submitting anyway", warn)
	}

	out, err := w.submit(ctx, att)
	return out, err
}

// openAndApply loads the posting, clears any overlay and presses apply.
func (w *Walker) openAndApply(ctx context.Context, link string) (stepOutcome, error) {
	if err := w.page.Navigate(ctx, link); err != nil {
		return stepFailed, &StepError{Step: StepNavigate, Kind: KindPostingFailed, Cause: err}
	}
	if err := w.opts.Clock.Sleep(ctx, w.opts.PageSettle); err != nil {
		return stepFailed, &StepError{Step: StepNavigate, Kind: KindPostingFailed, Cause: err}
	}

	dismissed, err := w.page.DismissOverlay(ctx)
	switch {
	case err != nil:
		w.verbosef("overlay dismissal failed: %v", err)
	case dismissed:
		w.verbosef("closed popup")
	}

	state, err := w.page.ApplyControl(ctx)
	if err != nil {
		w.verbosef("apply control state unknown: %v", err)
	}
	if state == ControlAlreadyApplied {
		return stepAlreadyApplied, nil
	}

	err = w.opts.ApplyRetry.Do(ctx, w.opts.Clock, func(attempt int) error {
		primaryErr := w.page.ClickApply(ctx)
		if primaryErr == nil {
			return nil
		}
		altErr := w.page.ClickApplyByLabel(ctx, w.opts.AlternateApplyLabel)
		if altErr == nil {
			w.verbosef("clicked fallback %q button", w.opts.AlternateApplyLabel)
			return nil
		}
		log.Printf("[APPLY] Attempt %d: apply button not clickable", attempt)
		return &StepError{Step: StepApplyControl, Kind: KindTransientUI, Cause: errors.Join(primaryErr, altErr)}
	})
	if err != nil {
		return stepFailed, &StepError{Step: StepApplyControl, Kind: KindPostingFailed, Cause: err}
	}
	return stepContinue, nil
}

// authenticate submits the credentials until the login form goes away.
func (w *Walker) authenticate(ctx context.Context) (stepOutcome, error) {
	err := w.opts.LoginRetry.Do(ctx, w.opts.Clock, func(attempt int) error {
		if err := w.page.SubmitLogin(ctx, w.creds); err != nil {
			log.Printf("[APPLY] Login attempt %d failed: %v", attempt, err)
			return &StepError{Step: StepLogin, Kind: KindTransientUI, Cause: err}
		}
		if err := w.opts.Clock.Sleep(ctx, w.opts.LoginSettle); err != nil {
			return err
		}
		visible, err := w.page.LoginFormVisible(ctx)
		if err != nil {
			return &StepError{Step: StepLogin, Kind: KindTransientUI, Cause: err}
		}
		if visible {
			log.Printf("[APPLY] Login attempt %d: form still visible", attempt)
			return &StepError{Step: StepLogin, Kind: KindTransientUI, Cause: ErrLoginFormVisible}
		}
		return nil
	})
	if err != nil {
		return stepFailed, &StepError{Step: StepLogin, Kind: KindPostingFailed, Cause: err}
	}
	log.Printf("[APPLY] Login successful")
	return stepContinue, nil
}

// fillFields answers the availability prompt and every question block. It returns a
// soft-incomplete error when something was left unanswered.
func (w *Walker) fillFields(ctx context.Context) error {
	var missed []string

	// Not every form asks about availability; only a failed answer counts.
	if ok, err := w.page.ConfirmAvailability(ctx, w.opts.AvailabilityNote); err != nil {
		missed = append(missed, "availability")
	} else if ok {
		w.verbosef("confirmed availability")
	}

	blocks, err := w.page.QuestionBlocks(ctx)
	if err != nil {
		missed = append(missed, "question blocks")
	}

	for _, b := range blocks {
		if !w.fillBlock(ctx, b) {
			missed = append(missed, fmt.Sprintf("question %d", b.Index+1))
		}
	}

	if len(missed) == 0 {
		return nil
	}
	return &StepError{
		Step:  StepFillFields,
		Kind:  KindSoftIncomplete,
		Cause: fmt.Errorf("could not answer %s", strings.Join(missed, ", ")),
	}
}

// fillBlock reports whether anything in the block was answered.
func (w *Walker) fillBlock(ctx context.Context, b QuestionBlock) bool {
	handled := false

	for _, v := range b.RadioValues {
		if !w.affirmative(v) {
			continue
		}
		if err := w.page.ChooseRadio(ctx, b.Index, v); err != nil {
			w.verbosef("question %d: radio %q: %v", b.Index+1, v, err)
		} else {
			handled = true
		}
		break
	}

	if b.TextAreas > 0 {
		n, err := w.page.FillTextAreas(ctx, b.Index, w.opts.PortfolioLink)
		if err != nil {
			w.verbosef("question %d: textareas: %v", b.Index+1, err)
		}
		handled = handled || n > 0
	}

	if b.TextInputs > 0 {
		n, err := w.page.FillTextInputs(ctx, b.Index, w.opts.TextPlaceholder)
		if err != nil {
			w.verbosef("question %d: text inputs: %v", b.Index+1, err)
		}
		handled = handled || n > 0
	}

	return handled
}

func (w *Walker) affirmative(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, a := range w.opts.AffirmativeValues {
		if value == a {
			return true
		}
	}
	return false
}

// submit presses submit, waits, and checks the resulting page.
func (w *Walker) submit(ctx context.Context, att *Attempt) (stepOutcome, error) {
	if err := w.page.Submit(ctx); err != nil {
		return stepFailed, &StepError{Step: StepSubmit, Kind: KindPostingFailed, Cause: err}
	}
	if err := w.opts.Clock.Sleep(ctx, w.opts.SubmitSettle); err != nil {
		return stepFailed, &StepError{Step: StepSubmit, Kind: KindPostingFailed, Cause: err}
	}

	url, content, err := w.page.Location(ctx)
	if err != nil {
		return stepFailed, &StepError{Step: StepConfirm, Kind: KindPostingFailed, Cause: err}
	}

	att.Verdict, att.Signal = w.opts.Confirmation.Check(url, content)
	switch att.Verdict {
	case VerdictConfirmed:
		return stepConfirmed, nil
	case VerdictAmbiguous:
		log.Printf("[APPLY] Warning: ambiguous confirmation at %s (%s); counting it as a failure", url, att.Signal)
		return stepFailed, &StepError{Step: StepConfirm, Kind: KindPostingFailed, Cause: ErrAmbiguousConfirmation}
	default:
		return stepFailed, &StepError{Step: StepConfirm, Kind: KindPostingFailed, Cause: ErrNotConfirmed}
	}
}

func (w *Walker) verbosef(format string, args ...any) {
	if w.opts.Verbose {
		log.Printf("[VERBOSE] "+format, args...)
	}
}
