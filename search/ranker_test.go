package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatvault/chatvault/embedstore"
)

func candidate(id, text string, distance float64) embedstore.Match {
	return embedstore.Match{
		Document: embedstore.Document{ID: id, Text: text},
		Distance: distance,
	}
}

func TestRankVectorScoreDominates(t *testing.T) {
	ranker := NewRanker()

	// Identical keyword overlap, different distances.
	candidates := []embedstore.Match{
		candidate("far", "pizza tonight", 0.9),
		candidate("near", "pizza tonight", 0.1),
	}

	scored := ranker.Rank("pizza tonight", candidates, 10)
	require.Len(t, scored, 2)
	assert.Equal(t, "near", scored[0].Document.ID)
	assert.Equal(t, "far", scored[1].Document.ID)
	assert.Greater(t, scored[0].Score, scored[1].Score)
}

func TestRankKeywordOverlapBreaksEqualDistance(t *testing.T) {
	ranker := NewRanker()

	candidates := []embedstore.Match{
		candidate("partial", "bought some groceries", 0.5),
		candidate("full", "bought BTC and ETH today", 0.5),
	}

	scored := ranker.Rank("btc eth", candidates, 10)
	require.Len(t, scored, 2)
	assert.Equal(t, "full", scored[0].Document.ID)
	assert.InDelta(t, 1.0, scored[0].KeywordScore, 1e-9)
	assert.InDelta(t, 0.0, scored[1].KeywordScore, 1e-9)
}

func TestRankCombinedScoreFormula(t *testing.T) {
	ranker := NewRanker()

	scored := ranker.Rank("hello world", []embedstore.Match{
		candidate("a", "hello there", 0.2),
	}, 10)
	require.Len(t, scored, 1)

	// vector 0.8, keyword 0.5
	assert.InDelta(t, 0.8, scored[0].VectorScore, 1e-9)
	assert.InDelta(t, 0.5, scored[0].KeywordScore, 1e-9)
	assert.InDelta(t, 0.7*0.8+0.3*0.5, scored[0].Score, 1e-9)
}

func TestRankStableForTies(t *testing.T) {
	ranker := NewRanker()

	candidates := []embedstore.Match{
		candidate("first", "same text", 0.5),
		candidate("second", "same text", 0.5),
		candidate("third", "same text", 0.5),
	}

	scored := ranker.Rank("unrelated query", candidates, 10)
	require.Len(t, scored, 3)
	assert.Equal(t, "first", scored[0].Document.ID)
	assert.Equal(t, "second", scored[1].Document.ID)
	assert.Equal(t, "third", scored[2].Document.ID)
}

func TestRankTruncatesToLimit(t *testing.T) {
	ranker := NewRanker()

	candidates := []embedstore.Match{
		candidate("a", "alpha", 0.3),
		candidate("b", "beta", 0.2),
		candidate("c", "gamma", 0.1),
	}

	scored := ranker.Rank("query", candidates, 2)
	require.Len(t, scored, 2)
	assert.Equal(t, "c", scored[0].Document.ID)
	assert.Equal(t, "b", scored[1].Document.ID)
}

func TestRankEmptyQueryYieldsZeroKeywordScore(t *testing.T) {
	ranker := NewRanker()

	scored := ranker.Rank("", []embedstore.Match{
		candidate("a", "some text", 0.4),
	}, 10)
	require.Len(t, scored, 1)
	assert.InDelta(t, 0.0, scored[0].KeywordScore, 1e-9)
	assert.InDelta(t, 0.7*0.6, scored[0].Score, 1e-9)
}

func TestTokenizeTrimsPunctuationAndCase(t *testing.T) {
	tokens := tokenize("Bought $BTC, sold (ETH)! Don't panic.")
	assert.Equal(t, []string{"bought", "btc", "sold", "eth", "don't", "panic"}, tokens)
}

func TestKeywordOverlapDuplicateQueryWords(t *testing.T) {
	// Repeated query words count once.
	overlap := keywordOverlap(tokenize("btc btc eth"), "btc went up")
	assert.InDelta(t, 0.5, overlap, 1e-9)
}
