// Package types provides type definitions for structured data used throughout the auto-apply system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Placeholder is stored in any posting field the listing page did not provide.
const Placeholder = "N/A"

// Posting represents a single scraped internship or job listing.
// The JSON keys mirror the CSV column names so the UI layer can read either.
type Posting struct {
	Title       string `json:"Title"`
	Company     string `json:"Company"`
	Link        string `json:"Link" validate:"required,url"`
	Location    string `json:"Location"`
	Stipend     string `json:"Stipend"`
	Duration    string `json:"Duration"`
	Skills      string `json:"Skills"`
	WhoCanApply string `json:"Who can apply"`
	Description string `json:"Description"`
}

// CanonicalLink normalizes a posting URL into its identity key:
// surrounding whitespace trimmed and trailing slashes removed.
func CanonicalLink(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// Key returns the posting's identity (its canonical link).
func (p Posting) Key() string {
	return CanonicalLink(p.Link)
}

// WithDefaults returns a copy with every empty descriptive field set to Placeholder
// and the link canonicalized. Link itself is never defaulted.
func (p Posting) WithDefaults() Posting {
	fields := []*string{&p.Title, &p.Company, &p.Location, &p.Stipend, &p.Duration,
		&p.Skills, &p.WhoCanApply, &p.Description}
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
		if *f == "" {
			*f = Placeholder
		}
	}
	p.Link = CanonicalLink(p.Link)
	return p
}

// Validate checks that the posting carries a usable link.
func (p *Posting) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}
