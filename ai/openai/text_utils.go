package openai

import (
	"github.com/pkoukk/tiktoken-go"
)

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// truncateTokens cuts text down to at most maxTokens tokens using the
// cl100k_base encoding. If the tokenizer is unavailable the text is
// returned unchanged.
func truncateTokens(text string, maxTokens int) string {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}
