package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatvault/chatvault/ai/mock"
	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/embedstore"
	storagebadger "github.com/chatvault/chatvault/storage/badger"
)

type searchFixture struct {
	searcher *Searcher
	repo     interface {
		AddMessages(ctx context.Context, messages ...*core.Message) ([]*core.Message, error)
	}
	store    *embedstore.MemoryStore
	provider *mock.MockProvider
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()

	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	store := embedstore.NewMemoryStore()
	provider := mock.NewMockProvider().(*mock.MockProvider)

	searcher, err := NewSearcher(repo, store, provider)
	require.NoError(t, err)

	return &searchFixture{searcher: searcher, repo: repo, store: store, provider: provider}
}

// seed stores a message and its embedding document, returning the stored id.
func (f *searchFixture) seed(t *testing.T, content, senderID string, categories []string) core.ID {
	t.Helper()
	ctx := context.Background()

	message := &core.Message{
		SourceType:   "whatsapp",
		SourceChatID: "family",
		SenderName:   senderID,
		SenderID:     senderID,
		Content:      content,
		MessageType:  core.MessageTypeText,
		Timestamp:    time.Date(2025, 4, 6, 11, 18, 0, 0, time.UTC),
		Categories:   categories,
		Enriched:     true,
	}
	stored, err := f.repo.AddMessages(ctx, message)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	docID := f.store.Add(ctx, embedstore.Document{
		ID:     embedstore.DocumentID(stored[0].Id, content),
		Vector: []float32{0.1, 0.2, 0.3},
		Text:   content,
		Metadata: map[string]string{
			"message_id": stored[0].Id.String(),
			"sender":     senderID,
			"type":       string(core.MessageTypeText),
			"categories": embedstore.StringifyList(categories),
		},
	})
	require.NotEmpty(t, docID)
	return stored[0].Id
}

func TestSearchRanksByKeywordOverlap(t *testing.T) {
	f := newSearchFixture(t)

	// The memory store reports a uniform distance, so ordering is
	// decided by the lexical stage.
	f.seed(t, "lunch at the new place was great", "alice", []string{"personal"})
	wantID := f.seed(t, "BTC broke 70k this morning", "bob", []string{"crypto"})
	f.seed(t, "meeting moved to Thursday", "carol", []string{"work"})

	results, err := f.searcher.Search(context.Background(), "btc morning", SearchOptions{Limit: 3})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, wantID, results[0].Message.Id)
	assert.InDelta(t, 1.0, results[0].KeywordScore, 1e-9)
	assert.Greater(t, results[0].Score, results[len(results)-1].Score)
}

func TestSearchHonorsCategoryFilter(t *testing.T) {
	f := newSearchFixture(t)

	f.seed(t, "new season dropped last night", "alice", []string{"entertainment"})
	cryptoID := f.seed(t, "sold half my ETH position", "bob", []string{"crypto", "finance"})

	results, err := f.searcher.Search(context.Background(), "position", SearchOptions{Limit: 5, Category: "crypto"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, cryptoID, results[0].Message.Id)
}

func TestSearchHonorsSenderFilter(t *testing.T) {
	f := newSearchFixture(t)

	f.seed(t, "did you see the match", "alice", nil)
	bobID := f.seed(t, "did you see the news", "bob", []string{"news"})

	results, err := f.searcher.Search(context.Background(), "did you see", SearchOptions{Limit: 5, SenderID: "bob"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, bobID, results[0].Message.Id)
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newSearchFixture(t)

	_, err := f.searcher.Search(context.Background(), "   ", SearchOptions{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchNoCandidates(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.searcher.Search(context.Background(), "anything", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchEmbedderFailurePropagates(t *testing.T) {
	f := newSearchFixture(t)
	f.seed(t, "hello", "alice", nil)

	f.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	_, err := f.searcher.Search(context.Background(), "hello", SearchOptions{})
	assert.Error(t, err)
}

func TestSearchDropsDanglingDocuments(t *testing.T) {
	f := newSearchFixture(t)
	f.seed(t, "kept message", "alice", nil)

	// Document whose message was never stored.
	f.store.Add(context.Background(), embedstore.Document{
		ID:       "999",
		Vector:   []float32{0.1},
		Text:     "kept message ghost",
		Metadata: map[string]string{"message_id": "424242"},
	})

	results, err := f.searcher.Search(context.Background(), "kept message", SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "kept message", results[0].Message.Content)
}

func TestSearchMonitorCallbacks(t *testing.T) {
	f := newSearchFixture(t)
	f.seed(t, "monitored message", "alice", nil)

	monitor := &recordingMonitor{}
	results, err := f.searcher.SearchWithMonitor(context.Background(), "monitored", SearchOptions{}, monitor)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "monitored", monitor.query)
	assert.Len(t, monitor.documentIDs, 1)
	assert.Len(t, monitor.scored, 1)
	assert.Len(t, monitor.messages, 1)
	assert.Len(t, monitor.results, 1)
}

type recordingMonitor struct {
	query       string
	documentIDs []string
	scored      []Scored
	messages    []*core.Message
	results     []*Result
}

func (m *recordingMonitor) Start(query string)                 { m.query = query }
func (m *recordingMonitor) AfterVectorSearch(ids []string)     { m.documentIDs = ids }
func (m *recordingMonitor) AfterRanking(scored []Scored)       { m.scored = scored }
func (m *recordingMonitor) AfterMessageRetrieval(msgs []*core.Message) { m.messages = msgs }
func (m *recordingMonitor) Finish(results []*Result)           { m.results = results }

func TestAskAnswersFromRetrievedMessages(t *testing.T) {
	f := newSearchFixture(t)
	f.seed(t, "we land in Lisbon on Friday", "alice", []string{"travel"})

	answer, sources, err := f.searcher.Ask(context.Background(), "when do they land in Lisbon", 5)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Contains(t, answer, "when do they land in Lisbon")
}

func TestAskNoMatches(t *testing.T) {
	f := newSearchFixture(t)

	answer, sources, err := f.searcher.Ask(context.Background(), "anything at all", 5)
	require.NoError(t, err)
	assert.Empty(t, sources)
	assert.Contains(t, answer, "no messages")
}

func TestAskDegradesOnResponderFailure(t *testing.T) {
	f := newSearchFixture(t)
	f.seed(t, "dinner at eight", "alice", nil)

	f.provider.GetMockResponder().RespondFunc = func(ctx context.Context, question string, passages []string) (string, error) {
		return "", fmt.Errorf("model unavailable")
	}

	answer, sources, err := f.searcher.Ask(context.Background(), "dinner at eight", 5)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, apologyAnswer, answer)
}

func TestSuggestedCategories(t *testing.T) {
	results := []*Result{
		{Message: &core.Message{Categories: []string{"crypto", "finance"}}},
		{Message: &core.Message{Categories: []string{"crypto"}}},
		{Message: &core.Message{Categories: []string{"news"}}},
	}

	assert.Equal(t, []string{"crypto", "finance", "news"}, SuggestedCategories(results))
	assert.Empty(t, SuggestedCategories(nil))
}
