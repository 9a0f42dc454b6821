package apply

import (
	"context"

	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/types"
)

// ControlState is what the posting page shows where the apply control should be.
type ControlState int

// Control states
const (
	ControlMissing ControlState = iota
	ControlAvailable
	// ControlAlreadyApplied is the disabled "already applied" button.
	ControlAlreadyApplied
)

func (s ControlState) String() string {
	switch s {
	case ControlAvailable:
		return "available"
	case ControlAlreadyApplied:
		return "already_applied"
	default:
		return "missing"
	}
}

// QuestionBlock is one extra question on the application form.
type QuestionBlock struct {
	Index       int
	RadioValues []string // value attribute of every radio option, in page order
	TextAreas   int
	TextInputs  int
}

// Page is the walker's view of the browser tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// DismissOverlay closes a blocking popup if one is open and reports whether it found one.
	DismissOverlay(ctx context.Context) (bool, error)
	ApplyControl(ctx context.Context) (ControlState, error)
	// ClickApply activates the primary apply control.
	ClickApply(ctx context.Context) error
	// ClickApplyByLabel activates the first button whose visible text contains label.
	ClickApplyByLabel(ctx context.Context, label string) error
	// OpenLogin opens the login form if the page offers one and reports whether it did.
	OpenLogin(ctx context.Context) (bool, error)
	SubmitLogin(ctx context.Context, creds config.Credentials) error
	LoginFormVisible(ctx context.Context) (bool, error)
	// ConfirmAvailability ticks the availability option and fills its note. It reports
	// whether the option was found.
	ConfirmAvailability(ctx context.Context, note string) (bool, error)
	QuestionBlocks(ctx context.Context) ([]QuestionBlock, error)
	ChooseRadio(ctx context.Context, block int, value string) error
	// FillTextAreas and FillTextInputs return how many fields they filled.
	FillTextAreas(ctx context.Context, block int, text string) (int, error)
	FillTextInputs(ctx context.Context, block int, text string) (int, error)
	Submit(ctx context.Context) error
	// Location returns the current URL and page content.
	Location(ctx context.Context) (url string, content string, err error)
}

// Ledger is the part of the submission ledger the walker needs.
type Ledger interface {
	Has(ctx context.Context, link string) (bool, error)
	Record(ctx context.Context, rec types.SubmissionRecord) error
}
