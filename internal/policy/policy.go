// Package policy implements the forbidden-word checks applied to usernames,
// room names and message text.
package policy

import "strings"

// Filter matches configured forbidden words by case-insensitive substring
// containment. A word embedded inside a longer token still matches.
type Filter struct {
	words []string
}

func NewFilter(words []string) *Filter {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w != "" {
			lowered = append(lowered, w)
		}
	}
	return &Filter{words: lowered}
}

// Contains reports whether text contains any forbidden word.
func (f *Filter) Contains(text string) bool {
	lowered := strings.ToLower(text)
	for _, w := range f.words {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}
