package reindex

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatvault/chatvault/ai/mock"
	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/embedstore"
	"github.com/chatvault/chatvault/storage"
	storagebadger "github.com/chatvault/chatvault/storage/badger"
)

func setupRepo(t *testing.T) storage.MessageRepository {
	t.Helper()
	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return repo
}

func seedMessages(t *testing.T, repo storage.MessageRepository, count int) []*core.Message {
	t.Helper()
	ctx := context.Background()

	messages := make([]*core.Message, count)
	for i := range messages {
		messages[i] = &core.Message{
			SourceType:   "whatsapp",
			SourceChatID: "family",
			SenderName:   "Alice",
			SenderID:     "alice",
			Content:      "message number " + string(rune('a'+i)),
			MessageType:  core.MessageTypeText,
			Timestamp:    time.Date(2025, 4, 6, 11, 0, i, 0, time.UTC),
			Enriched:     true,
		}
	}
	stored, err := repo.AddMessages(ctx, messages...)
	require.NoError(t, err)
	require.Len(t, stored, count)
	return stored
}

func TestReindexer_Run(t *testing.T) {
	repo := setupRepo(t)
	store := embedstore.NewMemoryStore()
	embedder := mock.NewMockEmbedder()
	ctx := context.Background()

	stored := seedMessages(t, repo, 10)

	var buf bytes.Buffer
	config := &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}

	reindexer := NewReindexer(repo, store, embedder, config, &buf)
	require.NoError(t, reindexer.Run(ctx))

	assert.Equal(t, 10, store.Count(ctx))
	assert.Contains(t, buf.String(), "Reindex complete")

	for _, message := range stored {
		updated, err := repo.GetMessage(ctx, message.Id)
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.True(t, updated.HasEmbedding)
		assert.Equal(t, embedstore.DocumentID(updated.Id, updated.Content), updated.EmbeddingID)
	}

	// Rewritten documents carry the same payload enrichment writes.
	matches := store.QuerySimilar(ctx, nil, 1, embedstore.Filter{"sender": "alice"})
	require.Len(t, matches, 1)
	assert.Equal(t, stored[0].Id.String(), matches[0].Document.Metadata["message_id"])
	assert.Equal(t, stored[0].Timestamp.UTC().Format(time.RFC3339), matches[0].Document.Metadata["timestamp"])
}

func TestReindexer_RunEmpty(t *testing.T) {
	repo := setupRepo(t)
	store := embedstore.NewMemoryStore()

	var buf bytes.Buffer
	reindexer := NewReindexer(repo, store, mock.NewMockEmbedder(), nil, &buf)
	require.NoError(t, reindexer.Run(context.Background()))
	assert.Contains(t, buf.String(), "No messages")
	assert.Zero(t, store.Count(context.Background()))
}

func TestReindexer_RemovesStaleDocuments(t *testing.T) {
	repo := setupRepo(t)
	store := embedstore.NewMemoryStore()
	ctx := context.Background()

	stored := seedMessages(t, repo, 1)
	message := stored[0]

	// Simulate an embedding left over from before a content edit.
	staleID := "stale-document"
	store.Add(ctx, embedstore.Document{ID: staleID, Vector: []float32{0.1}, Text: "old content"})
	message.EmbeddingID = staleID
	message.HasEmbedding = true
	_, err := repo.UpdateMessages(ctx, message)
	require.NoError(t, err)

	var buf bytes.Buffer
	reindexer := NewReindexer(repo, store, mock.NewMockEmbedder(), nil, &buf)
	require.NoError(t, reindexer.Run(ctx))

	assert.Equal(t, 1, store.Count(ctx))

	updated, err := repo.GetMessage(ctx, message.Id)
	require.NoError(t, err)
	assert.Equal(t, embedstore.DocumentID(updated.Id, updated.Content), updated.EmbeddingID)
	assert.NotEqual(t, staleID, updated.EmbeddingID)
}

func TestReindexer_EmbedderFailurePropagates(t *testing.T) {
	repo := setupRepo(t)
	store := embedstore.NewMemoryStore()
	seedMessages(t, repo, 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}

	var buf bytes.Buffer
	config := &Config{BatchSize: 2, ReportInterval: 2, MaxRetries: 2, RetryDelay: time.Millisecond}
	reindexer := NewReindexer(repo, store, embedder, config, &buf)

	err := reindexer.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process batch")
}

func TestMessageIterator_Batches(t *testing.T) {
	repo := setupRepo(t)
	seedMessages(t, repo, 7)

	iterator := NewMessageIterator(repo, 3)

	var batchSizes []int
	err := iterator.ForEach(context.Background(), func(messages []*core.Message) error {
		batchSizes = append(batchSizes, len(messages))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, batchSizes)
}

func TestMessageIterator_StopsOnError(t *testing.T) {
	repo := setupRepo(t)
	seedMessages(t, repo, 5)

	iterator := NewMessageIterator(repo, 2)

	calls := 0
	err := iterator.ForEach(context.Background(), func(messages []*core.Message) error {
		calls++
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
