package search

import "strings"

// tokenize splits text into lowercase words with surrounding punctuation
// trimmed. Interior punctuation is kept so ticker forms like "$BTC" reduce
// to "btc" while "don't" survives intact.
func tokenize(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}$#"))
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}

	return tokens
}

// tokenSet returns the unique tokens of text.
func tokenSet(text string) map[string]bool {
	tokens := tokenize(text)
	set := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		set[token] = true
	}
	return set
}
