package types

import "github.com/go-playground/validator/v10"

// ParseResumeResult is returned by the resume parsing operation.
type ParseResumeResult struct {
	JobTitles []string `json:"job_titles"`
}

// ScrapeRequest is the body of a scrape request.
type ScrapeRequest struct {
	Keyword  string `json:"keyword" validate:"required,min=1,max=200"`
	Limit    int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	Category string `json:"category,omitempty" validate:"omitempty,oneof=internship job"`
}

// Validate validates the ScrapeRequest using the validator.
func (r *ScrapeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ScrapeResult is returned by the scraping operation.
type ScrapeResult struct {
	Internships []Posting `json:"internships"`
}

// AutoApplyResult summarizes one apply run.
type AutoApplyResult struct {
	RunID   string             `json:"run_id"`
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Applied []SubmissionRecord `json:"applied"`
}

// Auto-apply status values
const (
	StatusSuccess = "success"
	StatusAborted = "aborted"
)
