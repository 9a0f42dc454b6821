package types

import "time"

// SubmissionRecord is the durable trace of one successful application.
type SubmissionRecord struct {
	Link      string    `json:"link"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSubmissionRecord builds a record for a posting, keyed by its canonical link.
func NewSubmissionRecord(p Posting, at time.Time) SubmissionRecord {
	title := p.Title
	if title == "" {
		title = "Unknown Title"
	}
	company := p.Company
	if company == "" {
		company = "Unknown Company"
	}
	return SubmissionRecord{
		Link:      p.Key(),
		Title:     title,
		Company:   company,
		Timestamp: at,
	}
}
