package search

import (
	"sort"

	"github.com/chatvault/chatvault/embedstore"
)

// Score weights for the hybrid ranking formula. Vector similarity
// dominates; keyword overlap corrects for exact-term queries.
const (
	vectorWeight  = 0.7
	keywordWeight = 0.3
)

// Scored is a candidate document with its ranking signals.
type Scored struct {
	Document     embedstore.Document
	VectorScore  float64
	KeywordScore float64
	Score        float64
}

// Ranker orders embedding-store candidates by a weighted combination of
// vector similarity and lexical overlap with the query. Ranking is
// deterministic: equal scores preserve retrieval order.
type Ranker struct{}

// NewRanker creates a ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank scores the candidates against queryText and returns the top limit
// entries in descending score order.
func (r *Ranker) Rank(queryText string, candidates []embedstore.Match, limit int) []Scored {
	queryTokens := tokenize(queryText)

	scored := make([]Scored, 0, len(candidates))
	for _, candidate := range candidates {
		vector := 1.0 - candidate.Distance
		keyword := keywordOverlap(queryTokens, candidate.Document.Text)
		scored = append(scored, Scored{
			Document:     candidate.Document,
			VectorScore:  vector,
			KeywordScore: keyword,
			Score:        vectorWeight*vector + keywordWeight*keyword,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// keywordOverlap returns the fraction of query tokens that appear in the
// candidate text. An empty query has overlap 0.
func keywordOverlap(queryTokens []string, text string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	textSet := tokenSet(text)
	hits := 0
	seen := make(map[string]bool, len(queryTokens))
	for _, token := range queryTokens {
		if seen[token] {
			continue
		}
		seen[token] = true
		if textSet[token] {
			hits++
		}
	}

	return float64(hits) / float64(len(seen))
}
