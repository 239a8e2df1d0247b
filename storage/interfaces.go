package storage

import (
	"context"
	"time"

	"github.com/chatvault/chatvault/core"
)

// MessageFilter narrows ListMessages. Zero fields impose no constraint.
type MessageFilter struct {
	// SenderID keeps only messages from one sender.
	SenderID string

	// MessageTypes keeps only messages of the listed types.
	MessageTypes []core.MessageType

	// Categories keeps messages carrying at least one listed category.
	Categories []string

	// From and To bound the message timestamp: From <= Timestamp < To.
	From time.Time
	To   time.Time

	// Limit caps the result count; zero means no cap.
	Limit int

	// Offset skips that many matching messages first.
	Offset int
}

// MessageRepository provides operations for managing stored messages.
// Implementations must be thread-safe and support concurrent access.
type MessageRepository interface {
	// AddMessages adds one or more messages to storage.
	// IDs are generated from a sequence; CreatedAt/UpdatedAt are set.
	// Returns the messages with generated IDs and timestamps populated.
	AddMessages(ctx context.Context, messages ...*core.Message) ([]*core.Message, error)

	// UpdateMessages updates existing messages.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any message doesn't exist.
	UpdateMessages(ctx context.Context, messages ...*core.Message) ([]*core.Message, error)

	// DeleteMessages removes messages by their IDs.
	// Also removes associated index entries.
	// Returns ErrNotFound if any message doesn't exist.
	DeleteMessages(ctx context.Context, ids ...core.ID) error

	// GetMessage retrieves a single message by ID.
	// Returns ErrNotFound if the message doesn't exist.
	GetMessage(ctx context.Context, id core.ID) (*core.Message, error)

	// GetMessages retrieves multiple messages by their IDs.
	// Returns only the messages that exist (no error for missing ones).
	GetMessages(ctx context.Context, ids ...core.ID) ([]*core.Message, error)

	// GetBySource looks up a message by its source coordinates.
	// Returns ErrNotFound if no such message exists.
	GetBySource(ctx context.Context, sourceChatID, sourceMessageID string) (*core.Message, error)

	// GetMessagesByDateRange retrieves messages within a time range.
	// Returns messages where start <= Timestamp < end, ordered by timestamp.
	GetMessagesByDateRange(ctx context.Context, start, end time.Time) ([]*core.Message, error)

	// GetRecentMessages retrieves up to limit messages, most recent first.
	GetRecentMessages(ctx context.Context, limit int) ([]*core.Message, error)

	// GetMessagesBySender retrieves up to limit messages from one sender,
	// oldest first.
	GetMessagesBySender(ctx context.Context, senderID string, limit int) ([]*core.Message, error)

	// ListMessages retrieves messages matching the filter via the date
	// index, oldest first.
	ListMessages(ctx context.Context, filter MessageFilter) ([]*core.Message, error)

	// ListUnenriched retrieves up to limit messages that have not
	// completed enrichment yet, oldest first.
	ListUnenriched(ctx context.Context, limit int) ([]*core.Message, error)

	// CountBySender returns the number of stored messages per sender id.
	CountBySender(ctx context.Context) (map[string]int, error)

	// Count returns the total number of stored messages.
	Count(ctx context.Context) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}
