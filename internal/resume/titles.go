package resume

import (
	"context"
	"log"
	"strings"

	"github.com/jonathan/intern-autoapply/internal/llm"
	"github.com/jonathan/intern-autoapply/internal/prompts"
)

// MaxPromptChars is how much resume text the model sees.
const MaxPromptChars = 3000

// MaxJobTitles caps the titles returned to the caller.
const MaxJobTitles = 5

// nonTitleWords mark lines that name a credential or an event rather than a role.
var nonTitleWords = []string{
	"certified", "university", "degree", "award", "reference",
	"available", "winner", "hackathon", "prize",
}

// ExtractJobTitles asks the model for up to five job titles that fit the resume.
func ExtractJobTitles(ctx context.Context, client llm.Client, resumeText string) ([]string, error) {
	if client == nil {
		return nil, &APICallError{Message: "LLM client is required"}
	}
	if strings.TrimSpace(resumeText) == "" {
		return nil, &ParseError{Message: "resume text is empty"}
	}

	prompt := prompts.Format(prompts.MustGet(prompts.ResumeFile, "extract-job-titles"), map[string]string{
		"Resume": Truncate(resumeText, MaxPromptChars),
	})

	answer, err := client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &APICallError{Message: "failed to generate job titles", Cause: err}
	}

	titles := FilterJobTitles(llm.NumberedItems(answer))
	if len(titles) == 0 {
		log.Printf("[RESUME] Model answer held no usable titles: %q", answer)
		return nil, &ParseError{Message: "model answer", Cause: ErrNoJobTitles}
	}
	return titles, nil
}

// FilterJobTitles drops credential-like lines and keeps the first MaxJobTitles.
func FilterJobTitles(candidates []string) []string {
	titles := make([]string, 0, MaxJobTitles)
	for _, c := range candidates {
		if len(titles) == MaxJobTitles {
			break
		}
		if c = strings.TrimSpace(c); c == "" || mentionsNonTitle(c) {
			continue
		}
		titles = append(titles, c)
	}
	return titles
}

func mentionsNonTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, w := range nonTitleWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
