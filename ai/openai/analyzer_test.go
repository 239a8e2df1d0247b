package openai

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatvault/chatvault/ai"
)

func testAnalyzer() *Analyzer {
	return &Analyzer{logger: slog.Default()}
}

func TestSanitizeFiltersUnknownCategories(t *testing.T) {
	raw := &rawAnalysis{
		Categories: []string{"Crypto", "astrology", "tech"},
		Sentiment:  0.5,
		Summary:    "a message about coins",
	}
	got := testAnalyzer().sanitize(raw, "BTC talk")
	assert.Equal(t, []string{"crypto", "tech"}, got.Categories)
}

func TestSanitizeEmptyCategoriesFallBack(t *testing.T) {
	raw := &rawAnalysis{Summary: "something"}
	got := testAnalyzer().sanitize(raw, "hello")
	assert.Equal(t, []string{ai.CategoryUncategorized}, got.Categories)
}

func TestSanitizeCapsCategoriesAndTags(t *testing.T) {
	raw := &rawAnalysis{
		Categories: []string{"crypto", "finance", "tech", "news", "work"},
		Tags:       []string{"a", "b", "c", "d", "e", "f", "g"},
		Summary:    "s",
	}
	got := testAnalyzer().sanitize(raw, "plain message")
	assert.Len(t, got.Categories, ai.MaxCategories)
	assert.Len(t, got.Tags, ai.MaxTags)
}

func TestSanitizeClampsSentiment(t *testing.T) {
	got := testAnalyzer().sanitize(&rawAnalysis{Sentiment: 7, Summary: "s"}, "x")
	assert.Equal(t, 1.0, got.Sentiment)

	got = testAnalyzer().sanitize(&rawAnalysis{Sentiment: -3, Summary: "s"}, "x")
	assert.Equal(t, -1.0, got.Sentiment)
}

func TestSanitizeMergesTickers(t *testing.T) {
	raw := &rawAnalysis{Tags: []string{"moon"}, Summary: "s"}
	got := testAnalyzer().sanitize(raw, "BTC to the moon")
	assert.Equal(t, []string{"moon", "btc"}, got.Tags)
}

func TestSanitizeEmptySummaryUsesContent(t *testing.T) {
	got := testAnalyzer().sanitize(&rawAnalysis{}, "short content")
	assert.Equal(t, "short content", got.Summary)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}

func TestTruncateWords(t *testing.T) {
	long := strings.Repeat("word ", 80)
	got := truncateWords(long, 50)
	assert.Len(t, strings.Fields(got), 50)

	assert.Equal(t, "short text", truncateWords("short text", 50))
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid untouched", `{"summary": "hi"}`, `{"summary": "hi"}`},
		{"missing opening quote", `{summary": "hi"}`, `{"summary": "hi"}`},
		{"after comma", `{"a": 1, tags": []}`, `{"a": 1, "tags": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}
