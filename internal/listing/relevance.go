package listing

import (
	"regexp"
	"strings"

	"github.com/jonathan/intern-autoapply/internal/types"
)

var nonTokenChars = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// Tokenize lower-cases text and splits it into a set of ASCII alphanumeric words.
func Tokenize(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(nonTokenChars.ReplaceAllString(text, " ")))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsRelevant reports whether any expanded keyword shares a token with the posting's
// title and description. A placeholder description contributes no tokens.
func IsRelevant(p types.Posting, expanded []string) bool {
	description := p.Description
	if description == types.Placeholder {
		description = ""
	}
	haystack := Tokenize(p.Title + " " + description)
	if len(haystack) == 0 {
		return false
	}

	for _, kw := range expanded {
		for token := range Tokenize(kw) {
			if _, ok := haystack[token]; ok {
				return true
			}
		}
	}
	return false
}
