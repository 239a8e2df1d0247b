package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/storage"
)

func newTestRepo(t *testing.T) storage.MessageRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func testMessage(sender string, ts time.Time) *core.Message {
	return &core.Message{
		SourceType:  "whatsapp",
		SenderName:  sender,
		SenderID:    sender,
		Content:     "message from " + sender,
		MessageType: core.MessageTypeText,
		Timestamp:   ts,
	}
}

func TestAddAndGetMessage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	msg := testMessage("alice", time.Now().UTC())
	added, err := repo.AddMessages(ctx, msg)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.NotZero(t, added[0].Id)
	assert.False(t, added[0].CreatedAt.IsZero())

	got, err := repo.GetMessage(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "message from alice", got.Content)
	assert.Equal(t, "alice", got.SenderID)
}

func TestGetMessageNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetMessage(context.Background(), 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetMessagesSkipsMissing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddMessages(ctx, testMessage("alice", time.Now().UTC()))
	require.NoError(t, err)

	got, err := repo.GetMessages(ctx, added[0].Id, 12345)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUpdateMessage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddMessages(ctx, testMessage("alice", time.Now().UTC()))
	require.NoError(t, err)
	msg := added[0]

	msg.Categories = []string{"personal"}
	msg.Enriched = true

	_, err = repo.UpdateMessages(ctx, msg)
	require.NoError(t, err)

	got, err := repo.GetMessage(ctx, msg.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"personal"}, got.Categories)
	assert.True(t, got.Enriched)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func TestUpdateMessageNotFound(t *testing.T) {
	repo := newTestRepo(t)

	missing := testMessage("ghost", time.Now().UTC())
	missing.Id = 777
	_, err := repo.UpdateMessages(context.Background(), missing)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteMessage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddMessages(ctx, testMessage("alice", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteMessages(ctx, added[0].Id))

	_, err = repo.GetMessage(ctx, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteMessages(ctx, added[0].Id), storage.ErrNotFound)
}

func TestGetBySource(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	msg := testMessage("alice", time.Now().UTC())
	msg.SourceChatID = "family"
	msg.SourceMessageID = "whatsapp_3"
	_, err := repo.AddMessages(ctx, msg)
	require.NoError(t, err)

	got, err := repo.GetBySource(ctx, "family", "whatsapp_3")
	require.NoError(t, err)
	assert.Equal(t, msg.Id, got.Id)

	_, err = repo.GetBySource(ctx, "family", "whatsapp_99")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetMessagesByDateRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := repo.AddMessages(ctx, testMessage("alice", base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	got, err := repo.GetMessagesByDateRange(ctx, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Timestamp.Before(got[1].Timestamp))
}

func TestGetRecentMessages(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := repo.AddMessages(ctx, testMessage(fmt.Sprintf("sender%d", i), base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	got, err := repo.GetRecentMessages(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sender4", got[0].SenderID)
	assert.Equal(t, "sender3", got[1].SenderID)
}

func TestGetMessagesBySender(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := repo.AddMessages(ctx,
		testMessage("alice", now),
		testMessage("bob", now.Add(time.Second)),
		testMessage("alice", now.Add(2*time.Second)),
	)
	require.NoError(t, err)

	got, err := repo.GetMessagesBySender(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, m := range got {
		assert.Equal(t, "alice", m.SenderID)
	}

	got, err = repo.GetMessagesBySender(ctx, "carol", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListUnenriched(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	added, err := repo.AddMessages(ctx,
		testMessage("alice", now),
		testMessage("bob", now.Add(time.Second)),
	)
	require.NoError(t, err)

	pending, err := repo.ListUnenriched(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	// Enriching removes a message from the pending set permanently.
	added[0].Enriched = true
	_, err = repo.UpdateMessages(ctx, added[0])
	require.NoError(t, err)

	pending, err = repo.ListUnenriched(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, added[1].Id, pending[0].Id)
}

func TestCountBySender(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := repo.AddMessages(ctx,
		testMessage("alice", now),
		testMessage("alice", now.Add(time.Second)),
		testMessage("bob", now.Add(2*time.Second)),
	)
	require.NoError(t, err)

	counts, err := repo.CountBySender(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, counts)
}

func TestCount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = repo.AddMessages(ctx, testMessage("alice", time.Now().UTC()), testMessage("bob", time.Now().UTC().Add(time.Second)))
	require.NoError(t, err)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestListMessages(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 4, 6, 10, 0, 0, 0, time.UTC)

	alice := testMessage("alice", base)
	alice.Categories = []string{"crypto"}
	bob := testMessage("bob", base.Add(time.Minute))
	bob.MessageType = core.MessageTypeImage
	carol := testMessage("carol", base.Add(2*time.Minute))
	carol.Categories = []string{"work", "tech"}

	_, err := repo.AddMessages(ctx, alice, bob, carol)
	require.NoError(t, err)

	t.Run("no constraints returns all oldest first", func(t *testing.T) {
		got, err := repo.ListMessages(ctx, storage.MessageFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "alice", got[0].SenderID)
		assert.Equal(t, "carol", got[2].SenderID)
	})

	t.Run("by sender", func(t *testing.T) {
		got, err := repo.ListMessages(ctx, storage.MessageFilter{SenderID: "bob"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "bob", got[0].SenderID)
	})

	t.Run("by message type", func(t *testing.T) {
		got, err := repo.ListMessages(ctx, storage.MessageFilter{
			MessageTypes: []core.MessageType{core.MessageTypeImage},
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "bob", got[0].SenderID)
	})

	t.Run("by category", func(t *testing.T) {
		got, err := repo.ListMessages(ctx, storage.MessageFilter{Categories: []string{"tech", "crypto"}})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "alice", got[0].SenderID)
		assert.Equal(t, "carol", got[1].SenderID)
	})

	t.Run("date range is end exclusive", func(t *testing.T) {
		got, err := repo.ListMessages(ctx, storage.MessageFilter{From: base, To: base.Add(time.Minute)})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "alice", got[0].SenderID)
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := repo.ListMessages(ctx, storage.MessageFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "bob", got[0].SenderID)
	})

	t.Run("no matches", func(t *testing.T) {
		got, err := repo.ListMessages(ctx, storage.MessageFilter{SenderID: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
