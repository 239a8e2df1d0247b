package ai

// Categories defines the valid classification labels for messages.
// Analyzers must not emit labels outside this taxonomy.
var Categories = []string{
	"crypto",
	"ai-tools",
	"news",
	"personal",
	"work",
	"entertainment",
	"finance",
	"tech",
	"health",
	"travel",
}

// CategoryUncategorized is assigned when no taxonomy label applies.
const CategoryUncategorized = "uncategorized"

const (
	// MaxCategories caps the number of category labels per message.
	MaxCategories = 3
	// MaxTags caps the number of free-form tags per message.
	MaxTags = 5
)

// Analysis holds the enrichment metadata derived from a single message.
type Analysis struct {
	// Categories are taxonomy labels, at most MaxCategories of them.
	Categories []string

	// Tags are free-form lowercase keywords, at most MaxTags of them.
	Tags []string

	// Sentiment is a score in [-1, 1], negative to positive.
	Sentiment float64

	// Summary is a one-sentence description of the message, roughly
	// fifty words at most.
	Summary string
}

// FallbackAnalysis returns the neutral analysis used when the model
// produced nothing usable. The summary is the content itself, truncated.
func FallbackAnalysis(content string) *Analysis {
	summary := content
	if runes := []rune(summary); len(runes) > 100 {
		summary = string(runes[:100]) + "..."
	}
	return &Analysis{
		Categories: []string{CategoryUncategorized},
		Tags:       nil,
		Sentiment:  0,
		Summary:    summary,
	}
}

// IsKnownCategory reports whether label is part of the taxonomy.
func IsKnownCategory(label string) bool {
	if label == CategoryUncategorized {
		return true
	}
	for _, c := range Categories {
		if c == label {
			return true
		}
	}
	return false
}
