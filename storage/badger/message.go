package badger

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/storage"
)

// MessageRepository implements storage.MessageRepository for BadgerDB.
type MessageRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(backend *Backend) (*MessageRepository, error) {
	idSeq, err := backend.GetSequence(messageIDSeq)
	if err != nil {
		return nil, err
	}

	return &MessageRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *MessageRepository) Close() error {
	return r.idSeq.Release()
}

// AddMessages adds one or more messages to storage.
func (r *MessageRepository) AddMessages(ctx context.Context, messages ...*core.Message) ([]*core.Message, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, message := range messages {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			message.Id = core.ID(nextID)

			message.CreatedAt = time.Now().UTC()
			message.UpdatedAt = message.CreatedAt

			if err := r.writeMessage(tx, message); err != nil {
				return err
			}

			// New messages start out unenriched
			if !message.Enriched {
				if err := tx.Set(makeMessagePendingKey(message.Id), storage.MarshalID(message.Id)); err != nil {
					return err
				}
			}

			if err := tx.Set(makeMessageDateKey(message.Timestamp, message.Id), storage.MarshalID(message.Id)); err != nil {
				return err
			}
			if err := tx.Set(makeMessageSenderKey(message.SenderID, message.Id), storage.MarshalID(message.Id)); err != nil {
				return err
			}
			if message.SourceMessageID != "" {
				if err := tx.Set(makeMessageSourceKey(message.SourceChatID, message.SourceMessageID), storage.MarshalID(message.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return messages, err
}

// UpdateMessages updates existing messages.
func (r *MessageRepository) UpdateMessages(ctx context.Context, messages ...*core.Message) ([]*core.Message, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, message := range messages {
			old, err := r.readMessage(tx, makeMessageKey(message.Id))
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			message.UpdatedAt = time.Now().UTC()

			if err := r.writeMessage(tx, message); err != nil {
				return err
			}

			// Keep the date index aligned with the timestamp
			if !old.Timestamp.Equal(message.Timestamp) {
				if err := tx.Delete(makeMessageDateKey(old.Timestamp, old.Id)); err != nil {
					return err
				}
				if err := tx.Set(makeMessageDateKey(message.Timestamp, message.Id), storage.MarshalID(message.Id)); err != nil {
					return err
				}
			}

			// Enrichment is terminal: drop the pending entry once set
			if message.Enriched && !old.Enriched {
				if err := tx.Delete(makeMessagePendingKey(message.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return messages, err
}

// DeleteMessages removes messages by their IDs.
func (r *MessageRepository) DeleteMessages(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeMessageKey(id)

			message, err := r.readMessage(tx, key)
			if err != nil {
				return err
			}
			if message == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeMessageDateKey(message.Timestamp, message.Id)); err != nil {
				return err
			}
			if err := tx.Delete(makeMessageSenderKey(message.SenderID, message.Id)); err != nil {
				return err
			}
			if !message.Enriched {
				if err := tx.Delete(makeMessagePendingKey(message.Id)); err != nil {
					return err
				}
			}
			if message.SourceMessageID != "" {
				if err := tx.Delete(makeMessageSourceKey(message.SourceChatID, message.SourceMessageID)); err != nil {
					return err
				}
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetMessage retrieves a single message by ID.
func (r *MessageRepository) GetMessage(ctx context.Context, id core.ID) (*core.Message, error) {
	var result *core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readMessage(tx, makeMessageKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetMessages retrieves multiple messages by their IDs.
func (r *MessageRepository) GetMessages(ctx context.Context, ids ...core.ID) ([]*core.Message, error) {
	var result []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			message, err := r.readMessage(tx, makeMessageKey(id))
			if err != nil {
				return err
			}
			if message != nil {
				result = append(result, message)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetBySource looks up a message by its source coordinates.
func (r *MessageRepository) GetBySource(ctx context.Context, sourceChatID, sourceMessageID string) (*core.Message, error) {
	var result *core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMessageSourceKey(sourceChatID, sourceMessageID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = r.readMessage(tx, makeMessageKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetMessagesByDateRange retrieves messages within a time range.
func (r *MessageRepository) GetMessagesByDateRange(ctx context.Context, start, end time.Time) ([]*core.Message, error) {
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialMessageDateKey(start)
		endKey := makePartialMessageDateKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
				break
			}

			message, err := r.readIndexedMessage(tx, iter.Item())
			if err != nil {
				return err
			}
			if message != nil {
				results = append(results, message)
			}
		}
		return nil
	}, false)

	return results, err
}

// ListMessages retrieves messages matching the filter via the date
// index, oldest first.
func (r *MessageRepository) ListMessages(ctx context.Context, filter storage.MessageFilter) ([]*core.Message, error) {
	from := filter.From
	if from.IsZero() {
		from = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	to := filter.To
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)
	}

	var results []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialMessageDateKey(from)
		endKey := makePartialMessageDateKey(to)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		skipped := 0
		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
				break
			}

			message, err := r.readIndexedMessage(tx, iter.Item())
			if err != nil {
				return err
			}
			if message == nil || !matchesFilter(message, filter) {
				continue
			}

			if skipped < filter.Offset {
				skipped++
				continue
			}

			results = append(results, message)
			if filter.Limit > 0 && len(results) >= filter.Limit {
				break
			}
		}
		return nil
	}, false)

	return results, err
}

// matchesFilter applies the non-date constraints of a filter.
func matchesFilter(message *core.Message, filter storage.MessageFilter) bool {
	if filter.SenderID != "" && message.SenderID != filter.SenderID {
		return false
	}
	if len(filter.MessageTypes) > 0 && !slices.Contains(filter.MessageTypes, message.MessageType) {
		return false
	}
	if len(filter.Categories) > 0 {
		matched := false
		for _, category := range filter.Categories {
			if slices.Contains(message.Categories, category) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// GetRecentMessages retrieves up to limit messages, most recent first.
func (r *MessageRepository) GetRecentMessages(ctx context.Context, limit int) ([]*core.Message, error) {
	var results []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible date key, then walk backwards
		startKey := makePartialMessageDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(messageDatePrefix + ":")

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}

			message, err := r.readIndexedMessage(tx, iter.Item())
			if err != nil {
				return err
			}
			if message != nil {
				results = append(results, message)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetMessagesBySender retrieves up to limit messages from one sender, oldest first.
func (r *MessageRepository) GetMessagesBySender(ctx context.Context, senderID string, limit int) ([]*core.Message, error) {
	var results []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialMessageSenderKey(senderID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, startKey) {
				break
			}

			message, err := r.readIndexedMessage(tx, iter.Item())
			if err != nil {
				return err
			}
			if message != nil {
				results = append(results, message)
			}
		}
		return nil
	}, false)

	return results, err
}

// ListUnenriched retrieves up to limit messages pending enrichment, oldest first.
func (r *MessageRepository) ListUnenriched(ctx context.Context, limit int) ([]*core.Message, error) {
	var results []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(messagePendingPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(results) < limit; iter.Next() {
			message, err := r.readIndexedMessage(tx, iter.Item())
			if err != nil {
				return err
			}
			if message != nil {
				results = append(results, message)
			}
		}
		return nil
	}, false)

	return results, err
}

// CountBySender returns the number of stored messages per sender id.
func (r *MessageRepository) CountBySender(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(messageSenderPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if sender, ok := senderFromIndexKey(iter.Item().Key()); ok {
				counts[sender]++
			}
		}
		return nil
	}, false)

	return counts, err
}

// Count returns the total number of stored messages.
func (r *MessageRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(messageDatePrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	return count, err
}

// Helper methods

// writeMessage stores the primary record.
func (r *MessageRepository) writeMessage(tx *badger.Txn, message *core.Message) error {
	return tx.Set(makeMessageKey(message.Id), storage.MarshalMessage(message))
}

// readMessage reads a message from the transaction.
// Returns nil without error when the key does not exist.
func (r *MessageRepository) readMessage(tx *badger.Txn, key []byte) (*core.Message, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var message *core.Message
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		message, unmarshalErr = storage.UnmarshalMessage(val)
		return unmarshalErr
	})
	return message, err
}

// readIndexedMessage resolves an index entry to its full message.
func (r *MessageRepository) readIndexedMessage(tx *badger.Txn, item *badger.Item) (*core.Message, error) {
	var id core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}
	return r.readMessage(tx, makeMessageKey(id))
}
