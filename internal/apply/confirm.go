package apply

import "strings"

// Verdict is what the page looked like after submitting.
type Verdict string

// Verdicts
const (
	VerdictNone        Verdict = ""
	VerdictConfirmed   Verdict = "confirmed"
	VerdictUnconfirmed Verdict = "unconfirmed"
	// VerdictAmbiguous means a confirmation signal and an error phrase were both present.
	// It is counted as a failure and logged as a warning.
	VerdictAmbiguous Verdict = "ambiguous"
)

// Confirmation holds the signals that a submission went through.
// Matching is case-insensitive substring matching.
type Confirmation struct {
	URLMarkers   []string // found in the URL the page redirected to
	Phrases      []string // found in the page content
	ErrorPhrases []string // found in the page content; they make a match ambiguous
}

// DefaultConfirmation matches the listing site's post-submission page.
func DefaultConfirmation() Confirmation {
	return Confirmation{
		URLMarkers: []string{"matching-preferences"},
		Phrases:    []string{"application submitted"},
		ErrorPhrases: []string{
			"something went wrong",
			"this field is required",
			"please try again",
		},
	}
}

// Check returns the verdict and the signal (or signals) it was based on.
func (c Confirmation) Check(url, content string) (Verdict, string) {
	url = strings.ToLower(url)
	content = strings.ToLower(content)

	matched := ""
	for _, m := range c.URLMarkers {
		if m != "" && strings.Contains(url, strings.ToLower(m)) {
			matched = "url:" + m
			break
		}
	}
	if matched == "" {
		for _, p := range c.Phrases {
			if p != "" && strings.Contains(content, strings.ToLower(p)) {
				matched = "content:" + p
				break
			}
		}
	}

	problem := ""
	for _, p := range c.ErrorPhrases {
		if p != "" && strings.Contains(content, strings.ToLower(p)) {
			problem = "error:" + p
			break
		}
	}

	switch {
	case matched != "" && problem != "":
		return VerdictAmbiguous, matched + " " + problem
	case matched != "":
		return VerdictConfirmed, matched
	default:
		return VerdictUnconfirmed, problem
	}
}
