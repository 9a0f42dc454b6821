package listing

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/jonathan/intern-autoapply/internal/llm"
	"github.com/jonathan/intern-autoapply/internal/prompts"
)

var nonKeywordChars = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// CleanKeyword removes everything but ASCII letters, digits and spaces.
func CleanKeyword(keyword string) string {
	return strings.TrimSpace(nonKeywordChars.ReplaceAllString(keyword, ""))
}

// ExpandKeywords asks the model for related job titles and returns them lower-cased,
// the cleaned keyword first and no duplicates. Any model failure, or an empty answer,
// leaves just the cleaned keyword.
func ExpandKeywords(ctx context.Context, client llm.Client, keyword string) []string {
	cleaned := strings.ToLower(CleanKeyword(keyword))
	fallback := []string{cleaned}
	if client == nil {
		return fallback
	}

	prompt := prompts.Format(prompts.MustGet(prompts.ListingFile, "expand-keywords"), map[string]string{
		"Keyword": cleaned,
	})
	answer, err := client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		log.Printf("[LISTING] Keyword expansion failed, using %q only: %v", cleaned, err)
		return fallback
	}

	related := llm.SplitList(llm.StripPreamble(strings.TrimSpace(answer)))
	if len(related) == 0 {
		log.Printf("[LISTING] Keyword expansion returned nothing, using %q only", cleaned)
		return fallback
	}

	seen := map[string]bool{cleaned: true}
	expanded := fallback
	for _, kw := range related {
		kw = strings.ToLower(kw)
		if seen[kw] {
			continue
		}
		seen[kw] = true
		expanded = append(expanded, kw)
	}
	return expanded
}
