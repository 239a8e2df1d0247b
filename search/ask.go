package search

import (
	"context"
	"fmt"
	"strings"
)

// apologyAnswer is returned when the language model cannot produce an
// answer. Ask degrades instead of failing once retrieval has succeeded.
const apologyAnswer = "Sorry, I could not come up with an answer to that question."

// Ask answers a free-form question grounded in the stored messages.
// It retrieves up to limit relevant messages, formats them as context
// passages, and asks the chat model for an answer.
func (s *Searcher) Ask(ctx context.Context, question string, limit int) (string, []*Result, error) {
	results, err := s.Search(ctx, question, SearchOptions{Limit: limit})
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "I found no messages related to that question.", nil, nil
	}

	passages := make([]string, 0, len(results))
	for _, result := range results {
		passages = append(passages, formatPassage(result))
	}

	answer, err := s.responder.Respond(ctx, question, passages)
	if err != nil {
		s.logger.Error("error generating answer", "question", question, "err", err)
		return apologyAnswer, results, nil
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return apologyAnswer, results, nil
	}
	return answer, results, nil
}

// formatPassage renders a retrieved message as a context passage with
// enough framing for the model to attribute and date it.
func formatPassage(result *Result) string {
	message := result.Message
	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s: %s", message.SenderName, message.Timestamp.Format("2006-01-02"), message.Content)
	if message.Summary != "" && message.Summary != message.Content {
		fmt.Fprintf(&b, "\n(summary: %s)", message.Summary)
	}
	return b.String()
}
