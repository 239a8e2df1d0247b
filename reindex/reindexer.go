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
	"fmt"
	"io"
	"time"

	"github.com/chatvault/chatvault/ai"
	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/embedstore"
	"github.com/chatvault/chatvault/storage"
)

// Config holds configuration for a reindex run.
type Config struct {
	// BatchSize is the number of messages to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of messages)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer orchestrates re-embedding every stored message into the
// embedding store.
type Reindexer struct {
	repository storage.MessageRepository
	config     *Config
	progress   io.Writer
	processor  *BatchProcessor
	iterator   *MessageIterator
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(repository storage.MessageRepository, store embedstore.Store, embedder ai.Embedder, config *Config, progress io.Writer) *Reindexer {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(repository, store, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewMessageIterator(repository, config.BatchSize)

	return &Reindexer{
		repository: repository,
		config:     config,
		progress:   progress,
		processor:  processor,
		iterator:   iterator,
	}
}

// Run executes the reindex.
// Every stored message is re-embedded with the configured embedder and
// its document in the embedding store rewritten. Progress is reported
// to the configured writer.
func (r *Reindexer) Run(ctx context.Context) error {
	all, err := allMessages(ctx, r.repository)
	if err != nil {
		return fmt.Errorf("failed to query messages: %w", err)
	}

	total := len(all)
	if total == 0 {
		fmt.Fprintf(r.progress, "No messages found in database (0 messages)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d messages (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(messages []*core.Message) error {
		if err := r.processor.Process(ctx, messages); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(messages)
		tracker.Update(processed)
		return nil
	})

	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Processed %d messages in %v (%.1f messages/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}
