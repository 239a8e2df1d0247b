package mock

import (
	"context"
	"strings"

	"github.com/chatvault/chatvault/ai"
	"github.com/chatvault/chatvault/core"
)

// MockAnalyzer is a test double for ai.Analyzer.
// It allows custom behavior injection via function fields.
type MockAnalyzer struct {
	// AnalyzeFunc is called by Analyze if set.
	// If nil, uses default word-based behavior.
	AnalyzeFunc func(ctx context.Context, content string, messageType core.MessageType) (*ai.Analysis, error)

	callCount int
}

// NewMockAnalyzer creates a mock analyzer with default behavior.
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// Analyze produces a simple deterministic analysis.
// Default behavior: taxonomy words found in the content become
// categories, the first few words become tags, exclamation marks lift
// the sentiment.
func (m *MockAnalyzer) Analyze(ctx context.Context, content string, messageType core.MessageType) (*ai.Analysis, error) {
	m.callCount++

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, content, messageType)
	}

	lower := strings.ToLower(content)

	var categories []string
	for _, cat := range ai.Categories {
		if strings.Contains(lower, cat) {
			categories = append(categories, cat)
		}
		if len(categories) == ai.MaxCategories {
			break
		}
	}
	if len(categories) == 0 {
		categories = []string{ai.CategoryUncategorized}
	}

	var tags []string
	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word == "" {
			continue
		}
		tags = append(tags, word)
		if len(tags) == ai.MaxTags {
			break
		}
	}

	sentiment := 0.0
	if strings.Contains(content, "!") {
		sentiment = 0.5
	}

	return &ai.Analysis{
		Categories: categories,
		Tags:       tags,
		Sentiment:  sentiment,
		Summary:    ai.FallbackAnalysis(content).Summary,
	}, nil
}

// CallCount returns the number of times Analyze was called.
func (m *MockAnalyzer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockAnalyzer) Reset() {
	m.callCount = 0
	m.AnalyzeFunc = nil
}
