package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/chatvault/chatvault/ai"
	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/embedstore"
	"github.com/chatvault/chatvault/storage"
)

// BatchProcessor re-embeds batches of messages and rewrites their
// documents in the embedding store.
type BatchProcessor struct {
	repository     storage.MessageRepository
	store          embedstore.Store
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repository storage.MessageRepository, store embedstore.Store, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repository:     repository,
		store:          store,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process re-embeds a batch of messages and updates both the embedding
// store and the repository. Vectors are normalized for cosine similarity.
// Document ids are content-addressed, so a message whose content changed
// since its last embedding gets a fresh document and the stale one is
// removed.
func (bp *BatchProcessor) Process(ctx context.Context, messages []*core.Message) error {
	if len(messages) == 0 {
		return nil
	}

	texts := make([]string, len(messages))
	for i, message := range messages {
		texts[i] = message.Content
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(messages) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(messages), len(embeddings))
	}

	for i, message := range messages {
		vector := NormalizeVector(embeddings[i])
		docID := embedstore.DocumentID(message.Id, message.Content)

		if message.EmbeddingID != "" && message.EmbeddingID != docID {
			bp.store.Delete(ctx, message.EmbeddingID)
		}

		if len(vector) == 0 {
			if message.EmbeddingID == docID {
				bp.store.Delete(ctx, docID)
			}
			message.EmbeddingID = ""
			message.HasEmbedding = false
			continue
		}

		stored := bp.store.Replace(ctx, embedstore.Document{
			ID:       docID,
			Vector:   vector,
			Text:     message.Content,
			Metadata: documentMetadata(message),
		})
		if !stored {
			message.EmbeddingID = ""
			message.HasEmbedding = false
			continue
		}

		message.EmbeddingID = docID
		message.HasEmbedding = true
	}

	if _, err := bp.repository.UpdateMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to update messages: %w", err)
	}

	return nil
}

// documentMetadata mirrors the payload written during enrichment.
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
