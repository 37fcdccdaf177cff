package query

import "strings"

// Words ignored when checking a document for every term of a question
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "were": true, "to": true, "of": true, "and": true, "in": true,
	"that": true, "have": true, "has": true, "had": true, "it": true, "for": true,
	"not": true, "on": true, "with": true, "as": true, "you": true, "do": true,
	"does": true, "did": true, "at": true, "this": true, "but": true, "by": true,
	"from": true, "which": true, "what": true, "who": true, "how": true,
	"many": true, "much": true, "any": true, "all": true, "there": true,
	"show": true, "me": true, "list": true, "our": true, "we": true, "i": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}$%"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// containsAllQueryWords reports whether every filtered question word appears in the document.
func containsAllQueryWords(document, question string) bool {
	questionWords := tokenizeAndFilter(question)
	if len(questionWords) == 0 {
		return false
	}

	docWordSet := make(map[string]bool)
	for _, word := range tokenizeAndFilter(document) {
		docWordSet[word] = true
	}

	for _, word := range questionWords {
		if !docWordSet[word] {
			return false
		}
	}
	return true
}
