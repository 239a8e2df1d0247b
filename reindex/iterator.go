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


package reindex

import (
	"context"
	"time"

	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/storage"
)

const (
	// DefaultBatchSize is the default number of messages to fetch in each batch
	DefaultBatchSize = 100
)

// MessageIterator iterates over all stored messages in batches.
type MessageIterator struct {
	repository storage.MessageRepository
	batchSize  int
}

// NewMessageIterator creates a new message iterator.
// batchSize: number of messages per batch (must be > 0)
func NewMessageIterator(repository storage.MessageRepository, batchSize int) *MessageIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &MessageIterator{
		repository: repository,
		batchSize:  batchSize,
	}
}

// ForEach iterates over all messages, calling fn for each batch.
// Iteration stops on the first error from fn or when all messages are
// processed. Context cancellation is checked between batches.
func (it *MessageIterator) ForEach(ctx context.Context, fn func([]*core.Message) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	messages, err := allMessages(ctx, it.repository)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	for i := 0; i < len(messages); i += it.batchSize {
		end := i + it.batchSize
		if end > len(messages) {
			end = len(messages)
		}

		if err := fn(messages[i:end]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}

// allMessages fetches every stored message via the date index.
func allMessages(ctx context.Context, repository storage.MessageRepository) ([]*core.Message, error) {
	start := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC)
	return repository.GetMessagesByDateRange(ctx, start, end)
}
