package apply

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/intern-autoapply/internal/types"
)

// Outcome is how a single posting ended.
type Outcome string

// Outcomes
const (
	OutcomeConfirmed      Outcome = "confirmed"
	OutcomeAlreadyApplied Outcome = "already_applied"
	OutcomeFailed         Outcome = "failed"
)

// StopReason is why a run ended.
type StopReason string

// Stop reasons
const (
	StopSuccessCap StopReason = "success_cap"
	StopFailureCap StopReason = "failure_cap"
	StopExhausted  StopReason = "exhausted"
	StopCancelled  StopReason = "cancelled"
)

// Step names a stage of the per-posting walk.
type Step string

// Steps
const (
	StepSkipCheck    Step = "skip_check"
	StepNavigate     Step = "navigate"
	StepApplyControl Step = "apply_control"
	StepLogin        Step = "login"
	StepFillFields   Step = "fill_fields"
	StepSubmit       Step = "submit"
	StepConfirm      Step = "confirm"
	StepRecord       Step = "record"
	StepWalk         Step = "walk"
)

// ErrorKind classifies a StepError.
type ErrorKind string

// Error kinds
const (
	// KindTransientUI is a control that was not interactable yet; the step retries it.
	KindTransientUI ErrorKind = "transient_ui"
	// KindSoftIncomplete is a field block that could not be filled; the walk continues.
	KindSoftIncomplete ErrorKind = "soft_incomplete"
	// KindPostingFailed ends the posting and counts against the failure budget.
	KindPostingFailed ErrorKind = "posting_failed"
)

// Confirmation failures
var (
	ErrNotConfirmed          = errors.New("submission not confirmed")
	ErrAmbiguousConfirmation = errors.New("submission confirmation is ambiguous")
	ErrLoginFormVisible      = errors.New("login form still visible")
)

// StepError is an error raised by one step of a posting's walk.
type StepError struct {
	Step  Step
	Kind  ErrorKind
	Cause error
}

func (e *StepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %v", e.Step, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s (%s)", e.Step, e.Kind)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// SetupError means a run could not start. No posting is attempted.
type SetupError struct {
	Message string
	Cause   error
}

func (e *SetupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("apply setup failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("apply setup failed: %s", e.Message)
}

func (e *SetupError) Unwrap() error {
	return e.Cause
}

// Attempt describes one posting's walk.
type Attempt struct {
	Posting    types.Posting
	Outcome    Outcome
	Verdict    Verdict
	Signal     string // what the verdict matched
	LoggedIn   bool   // the login gate was passed during this walk
	Incomplete bool   // some question block could not be filled
	Record     *types.SubmissionRecord
	Err        error // why the posting failed, or a non-fatal problem on success
	Warnings   []error
	StartedAt  time.Time
	Duration   time.Duration
}

// RunResult summarizes a run.
type RunResult struct {
	RunID      uuid.UUID
	Applied    []types.SubmissionRecord
	Attempts   []Attempt
	Session    Session
	StopReason StopReason
}
