package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatvault/chatvault/ai"
	"github.com/chatvault/chatvault/ai/mock"
	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/embedstore"
	"github.com/chatvault/chatvault/storage"
	storagebadger "github.com/chatvault/chatvault/storage/badger"
)

func newEnricherFixture(t *testing.T) (storage.MessageRepository, *mock.MockProvider, *embedstore.MemoryStore, *Enricher) {
	t.Helper()

	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	provider := mock.NewMockProvider().(*mock.MockProvider)
	store := embedstore.NewMemoryStore()

	enricher, err := NewEnricher(repo, provider, store)
	require.NoError(t, err)

	return repo, provider, store, enricher
}

func addMessage(t *testing.T, repo storage.MessageRepository, content string) *core.Message {
	t.Helper()
	added, err := repo.AddMessages(context.Background(), &core.Message{
		SenderName:  "Alice",
		SenderID:    "alice",
		Content:     content,
		MessageType: core.MessageTypeText,
		Timestamp:   time.Now().UTC(),
	})
	require.NoError(t, err)
	return added[0]
}

func TestEnrichMessageSuccess(t *testing.T) {
	repo, _, store, enricher := newEnricherFixture(t)
	ctx := context.Background()

	msg := addMessage(t, repo, "thinking about crypto investments!")
	enricher.EnrichMessage(ctx, msg)

	got, err := repo.GetMessage(ctx, msg.Id)
	require.NoError(t, err)
	assert.True(t, got.Enriched)
	assert.Empty(t, got.EnrichmentError)
	assert.True(t, got.HasEmbedding)
	assert.NotEmpty(t, got.EmbeddingID)
	assert.Contains(t, got.Categories, "crypto")
	assert.Equal(t, 0.5, got.Sentiment)
	assert.Equal(t, 1, store.Count(ctx))
}

func TestEnrichMessageAnalyzerFailureDegrades(t *testing.T) {
	repo, provider, _, enricher := newEnricherFixture(t)
	ctx := context.Background()

	provider.GetMockAnalyzer().AnalyzeFunc = func(ctx context.Context, content string, messageType core.MessageType) (*ai.Analysis, error) {
		return nil, errors.New("service down")
	}

	msg := addMessage(t, repo, "some message")
	enricher.EnrichMessage(ctx, msg)

	got, err := repo.GetMessage(ctx, msg.Id)
	require.NoError(t, err)
	assert.True(t, got.Enriched)
	assert.Equal(t, []string{ai.CategoryUncategorized}, got.Categories)
	assert.Equal(t, "some message", got.Summary)
	// AI degradation is not an enrichment error.
	assert.Empty(t, got.EnrichmentError)
	// Embedding still happened.
	assert.True(t, got.HasEmbedding)
}

func TestEnrichMessageEmbedderFailureDegrades(t *testing.T) {
	repo, provider, store, enricher := newEnricherFixture(t)
	ctx := context.Background()

	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}

	msg := addMessage(t, repo, "some message")
	enricher.EnrichMessage(ctx, msg)

	got, err := repo.GetMessage(ctx, msg.Id)
	require.NoError(t, err)
	assert.True(t, got.Enriched)
	assert.False(t, got.HasEmbedding)
	assert.Empty(t, got.EmbeddingID)
	// An unreachable embedder degrades silently; EnrichmentError is
	// reserved for storage and update failures.
	assert.Empty(t, got.EnrichmentError)
	assert.Equal(t, 0, store.Count(ctx))
	// Analysis still applied.
	assert.NotEmpty(t, got.Categories)
}

func TestEnrichMessageEmptyContentNoop(t *testing.T) {
	repo, provider, store, enricher := newEnricherFixture(t)
	ctx := context.Background()

	msg := addMessage(t, repo, "   ")
	enricher.EnrichMessage(ctx, msg)

	got, err := repo.GetMessage(ctx, msg.Id)
	require.NoError(t, err)
	assert.False(t, got.Enriched)
	assert.False(t, got.HasEmbedding)
	assert.Equal(t, 0, store.Count(ctx))
	assert.Equal(t, 0, provider.GetMockAnalyzer().CallCount())
	assert.Equal(t, 0, provider.GetMockEmbedder().CallCount())
}

func TestEnrichMessageTerminal(t *testing.T) {
	repo, provider, _, enricher := newEnricherFixture(t)
	ctx := context.Background()

	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("down")
	}

	msg := addMessage(t, repo, "a message")
	enricher.EnrichMessage(ctx, msg)

	// Even a fully degraded run leaves nothing pending.
	pending, err := repo.ListUnenriched(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// A second pass skips the terminal message entirely.
	provider.GetMockAnalyzer().Reset()
	require.NoError(t, enricher.Enrich(ctx, msg.Id))
	assert.Equal(t, 0, provider.GetMockAnalyzer().CallCount())
}

func TestEnrichSkipsAlreadyEnriched(t *testing.T) {
	repo, provider, _, enricher := newEnricherFixture(t)
	ctx := context.Background()

	msg := addMessage(t, repo, "hello")
	enricher.EnrichMessage(ctx, msg)

	before := provider.GetMockEmbedder().CallCount()
	require.NoError(t, enricher.Enrich(ctx, msg.Id))
	assert.Equal(t, before, provider.GetMockEmbedder().CallCount())
}

func TestDocumentMetadata(t *testing.T) {
	msg := &core.Message{
		Id:          5,
		SenderID:    "alice",
		MessageType: core.MessageTypeText,
		Timestamp:   time.Date(2025, 4, 6, 11, 18, 0, 0, time.UTC),
		Categories:  []string{"crypto", "finance"},
		Tags:        []string{"btc"},
	}
	meta := documentMetadata(msg)
	assert.Equal(t, "5", meta["message_id"])
	assert.Equal(t, "alice", meta["sender"])
	assert.Equal(t, "text", meta["type"])
	assert.Equal(t, "2025-04-06T11:18:00Z", meta["timestamp"])
	assert.Equal(t, "crypto, finance", meta["categories"])
	assert.Equal(t, "btc", meta["tags"])
}
