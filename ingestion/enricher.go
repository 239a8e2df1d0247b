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

package ingestion

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chatvault/chatvault/ai"
	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/embedstore"
	"github.com/chatvault/chatvault/storage"
)

// Enricher applies AI analysis and embeddings to stored messages.
//
// Enrichment is terminal: every message an Enricher touches comes out
// with Enriched=true, regardless of how many individual steps degraded.
// AI failures degrade silently to fallback values; storage failures are
// recorded in EnrichmentError.
type Enricher struct {
	repository storage.MessageRepository
	analyzer   ai.Analyzer
	embedder   ai.Embedder
	store      embedstore.Store
	logger     *slog.Logger
}

// NewEnricher creates an enricher over the given services.
func NewEnricher(repository storage.MessageRepository, provider ai.Provider, store embedstore.Store) (*Enricher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if store == nil {
		return nil, ErrEmbedStoreRequired
	}

	return &Enricher{
		repository: repository,
		analyzer:   provider.Analyzer(),
		embedder:   provider.Embedder(),
		store:      store,
		logger:     slog.Default().With("component", "enricher"),
	}, nil
}

// Enrich processes the messages identified by the given IDs.
// Already-enriched messages are skipped.
func (e *Enricher) Enrich(ctx context.Context, ids ...core.ID) error {
	messages, err := e.repository.GetMessages(ctx, ids...)
	if err != nil {
		e.logger.Error("error retrieving messages", "err", err)
		return err
	}

	for _, message := range messages {
		if message.Enriched {
			continue
		}
		e.EnrichMessage(ctx, message)
	}
	return nil
}

// EnrichMessage runs the full enrichment flow on a single message and
// persists the outcome.
func (e *Enricher) EnrichMessage(ctx context.Context, message *core.Message) {
	if strings.TrimSpace(message.Content) == "" {
		e.logger.Debug("skipping empty message", "id", message.Id)
		return
	}

	var enrichErr string

	analysis, err := e.analyzer.Analyze(ctx, message.Content, message.MessageType)
	if err != nil {
		e.logger.Warn("analyzer unavailable, using fallback", "id", message.Id, "err", err)
		analysis = ai.FallbackAnalysis(message.Content)
	}

	vector, err := e.embedder.EmbedText(ctx, message.Content)
	if err != nil {
		// Silent degradation: the message stays searchable by keyword
		// and can be picked up again by a reindex run.
		e.logger.Warn("embedding failed", "id", message.Id, "err", err)
		vector = nil
	}

	message.Categories = analysis.Categories
	message.Tags = analysis.Tags
	message.Sentiment = analysis.Sentiment
	message.Summary = analysis.Summary

	if len(vector) > 0 {
		docID := embedstore.DocumentID(message.Id, message.Content)
		stored := e.store.Add(ctx, embedstore.Document{
			ID:       docID,
			Vector:   vector,
			Text:     message.Content,
			Metadata: documentMetadata(message),
		})
		if stored != "" {
			message.EmbeddingID = stored
			message.HasEmbedding = true
		} else {
			enrichErr = "embedding store rejected document"
		}
	}

	message.Enriched = true
	message.EnrichmentError = enrichErr

	if _, err := e.repository.UpdateMessages(ctx, message); err != nil {
		// One retry with the failure recorded, so the message still
		// reaches its terminal state.
		e.logger.Error("failed to persist enrichment, retrying", "id", message.Id, "err", err)
		message.EnrichmentError = "update: " + err.Error()
		if _, err := e.repository.UpdateMessages(ctx, message); err != nil {
			e.logger.Error("failed to persist enrichment", "id", message.Id, "err", err)
		}
	}
}

// documentMetadata builds the embedding store payload for a message.
func documentMetadata(message *core.Message) map[string]string {
	return map[string]string{
		"message_id": message.Id.String(),
		"sender":     message.SenderID,
		"type":       string(message.MessageType),
		"timestamp":  message.Timestamp.UTC().Format(time.RFC3339),
		"categories": embedstore.StringifyList(message.Categories),
		"tags":       embedstore.StringifyList(message.Tags),
	}
}
