package search

import (
	"strings"
	"unicode/utf8"
)

// DefaultAuthorWords are the query words that mark a question about the author:
// "writer" and "author" in Arabic, and "author" in English.
var DefaultAuthorWords = []string{"كاتب", "مؤلف", "author"}

// queryTokens splits a query on whitespace, lowercases it and keeps tokens
// longer than minLength characters. Duplicates are kept.
func queryTokens(query string, minLength int) []string {
	words := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		if utf8.RuneCountInString(word) > minLength {
			tokens = append(tokens, word)
		}
	}

	return tokens
}

// mentionsAny reports whether the lowercased query contains any of words.
func mentionsAny(lowerQuery string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(lowerQuery, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
