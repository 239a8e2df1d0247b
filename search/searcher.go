// Copyright 2025 ChatVault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/chatvault/chatvault/ai"
	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/embedstore"
	"github.com/chatvault/chatvault/storage"
)

// DefaultLimit is the result count used when SearchOptions.Limit is zero.
const DefaultLimit = 10

// SearchOptions narrows a search.
type SearchOptions struct {
	// Limit caps the number of results. Zero means DefaultLimit.
	Limit int

	// Category restricts results to messages carrying the category.
	Category string

	// MessageType restricts results to one message type.
	MessageType core.MessageType

	// SenderID restricts results to one sender.
	SenderID string
}

// Result is a message matched by a search, carrying its ranking signals.
type Result struct {
	Message      *core.Message
	Score        float64
	VectorScore  float64
	KeywordScore float64
}

// Searcher runs hybrid retrieval: vector search over the embedding store
// followed by lexical re-ranking, hydrating matches from the repository.
type Searcher struct {
	repository storage.MessageRepository
	store      embedstore.Store
	embedder   ai.Embedder
	responder  ai.Responder
	ranker     *Ranker
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	repository storage.MessageRepository,
	store embedstore.Store,
	provider ai.Provider,
	opts ...Option,
) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if store == nil {
		return nil, ErrEmbedStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		repository: repository,
		store:      store,
		embedder:   provider.Embedder(),
		responder:  provider.Responder(),
		ranker:     NewRanker(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds messages relevant to the query, ranked by combined vector
// and keyword score.
func (s *Searcher) Search(ctx context.Context, query string, opts SearchOptions) ([]*Result, error) {
	return s.SearchWithMonitor(ctx, query, opts, nil)
}

// SearchWithMonitor runs Search with observation callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, opts SearchOptions, monitor SearchMonitor) ([]*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Fetch twice the requested count so the lexical stage has a pool
	// to re-rank.
	candidates := s.store.QuerySimilar(ctx, embedding, 2*limit, buildFilter(opts))

	documentIDs := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		documentIDs = append(documentIDs, candidate.Document.ID)
	}
	monitor.AfterVectorSearch(documentIDs)

	if len(candidates) == 0 {
		return []*Result{}, nil
	}

	scored := s.ranker.Rank(query, candidates, limit)
	monitor.AfterRanking(scored)

	ids := make([]core.ID, 0, len(scored))
	scoreByID := make(map[core.ID]Scored, len(scored))
	for _, sc := range scored {
		id, ok := messageID(sc.Document)
		if !ok {
			s.logger.Warn("embedded document carries no message id", "documentID", sc.Document.ID)
			continue
		}
		if _, dup := scoreByID[id]; dup {
			continue
		}
		ids = append(ids, id)
		scoreByID[id] = sc
	}

	messages, err := s.repository.GetMessages(ctx, ids...)
	if err != nil {
		s.logger.Error("error retrieving messages", "messageCount", len(ids), "err", err)
		return nil, err
	}
	monitor.AfterMessageRetrieval(messages)

	byID := make(map[core.ID]*core.Message, len(messages))
	for _, message := range messages {
		if message != nil {
			byID[message.Id] = message
		}
	}

	// Results follow ranking order. Documents whose message was deleted
	// since embedding are dropped.
	results := make([]*Result, 0, len(ids))
	for _, id := range ids {
		message, ok := byID[id]
		if !ok {
			s.logger.Debug("embedded document refers to a missing message", "id", id)
			continue
		}
		sc := scoreByID[id]
		results = append(results, &Result{
			Message:      message,
			Score:        sc.Score,
			VectorScore:  sc.VectorScore,
			KeywordScore: sc.KeywordScore,
		})
	}

	monitor.Finish(results)
	return results, nil
}

// SuggestedCategories returns the categories present in the results,
// most frequent first. Ties break alphabetically.
func SuggestedCategories(results []*Result) []string {
	counts := make(map[string]int)
	for _, result := range results {
		if result == nil || result.Message == nil {
			continue
		}
		for _, category := range result.Message.Categories {
			counts[category]++
		}
	}

	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		if counts[categories[i]] != counts[categories[j]] {
			return counts[categories[i]] > counts[categories[j]]
		}
		return categories[i] < categories[j]
	})

	return categories
}

// buildFilter translates search options into embedding store metadata
// constraints. Field names match the payload written during enrichment.
func buildFilter(opts SearchOptions) embedstore.Filter {
	filter := embedstore.Filter{}
	if opts.Category != "" {
		filter["categories"] = opts.Category
	}
	if opts.MessageType != "" {
		filter["type"] = string(opts.MessageType)
	}
	if opts.SenderID != "" {
		filter["sender"] = opts.SenderID
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}

// messageID recovers the repository id stored in the document metadata.
func messageID(document embedstore.Document) (core.ID, bool) {
	raw, ok := document.Metadata["message_id"]
	if !ok {
		return 0, false
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return core.ID(parsed), true
}
