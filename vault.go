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


package chatvault

import (
	"context"
	"io"
	"log/slog"

	"github.com/chatvault/chatvault/ai"
	"github.com/chatvault/chatvault/ai/openai"
	"github.com/chatvault/chatvault/chatlog"
	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/embedstore"
	"github.com/chatvault/chatvault/embedstore/qdrant"
	"github.com/chatvault/chatvault/ingestion"
	"github.com/chatvault/chatvault/reindex"
	"github.com/chatvault/chatvault/search"
	"github.com/chatvault/chatvault/storage"
	"github.com/chatvault/chatvault/storage/badger"
)

// Vault is the top-level handle over the message database, the embedding
// store, and the AI provider. It wires the ingestion pipeline and the
// searcher over a single backend.
type Vault struct {
	backend    *badger.Backend
	repository storage.MessageRepository
	store      embedstore.Store
	provider   ai.Provider
	embedder   ai.Embedder
	pipeline   *ingestion.Pipeline
	searcher   *search.Searcher
	parser     *chatlog.Parser
	logger     *slog.Logger
}

// VaultOption configures a Vault.
type VaultOption func(*vaultOptions)

type vaultOptions struct {
	aiConfig     *ai.Config
	qdrantConfig qdrant.Config
	provider     ai.Provider
	store        embedstore.Store
	poolSize     int
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) VaultOption {
	return func(o *vaultOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithQdrantConfig sets the vector index connection settings.
func WithQdrantConfig(config qdrant.Config) VaultOption {
	return func(o *vaultOptions) {
		o.qdrantConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// client construction. Intended for tests.
func WithProvider(provider ai.Provider) VaultOption {
	return func(o *vaultOptions) {
		o.provider = provider
	}
}

// WithEmbedStore injects a pre-built embedding store, bypassing the
// qdrant probe. Intended for tests.
func WithEmbedStore(store embedstore.Store) VaultOption {
	return func(o *vaultOptions) {
		o.store = store
	}
}

// WithPoolSize sets the enrichment worker pool size.
func WithPoolSize(size int) VaultOption {
	return func(o *vaultOptions) {
		o.poolSize = size
	}
}

// Open opens a vault at filePath. An empty filePath opens an in-memory
// message database.
//
// The embedding store is selected once here: if the qdrant index is
// reachable it backs the vault durably, otherwise a volatile in-process
// store takes its place with degraded search quality. The process never
// fails to start because the vector index is down.
func Open(ctx context.Context, filePath string, opts ...VaultOption) (*Vault, error) {
	options := &vaultOptions{
		aiConfig:     ai.DefaultConfig(),
		qdrantConfig: qdrant.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	logger := slog.Default().With("component", "vault")

	backend, err := badger.OpenBackend(filePath, filePath == "")
	if err != nil {
		return nil, err
	}

	repository, err := badger.NewMessageRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	store := options.store
	if store == nil {
		qdrantStore, err := qdrant.Open(ctx, options.qdrantConfig)
		if err != nil {
			logger.Warn("vector index unreachable, falling back to in-memory embedding store",
				"host", options.qdrantConfig.Host, "port", options.qdrantConfig.Port, "err", err)
			store = embedstore.NewMemoryStore()
		} else {
			store = qdrantStore
		}
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			store.Close()
			repository.Close()
			backend.Close()
			return nil, err
		}
	}

	pipelineOpts := []ingestion.Option{}
	if options.poolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(options.poolSize))
	}
	pipeline, err := ingestion.NewPipeline(repository, provider, store, pipelineOpts...)
	if err != nil {
		provider.Close()
		store.Close()
		repository.Close()
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(repository, store, provider)
	if err != nil {
		pipeline.Release()
		provider.Close()
		store.Close()
		repository.Close()
		backend.Close()
		return nil, err
	}

	return &Vault{
		backend:    backend,
		repository: repository,
		store:      store,
		provider:   provider,
		embedder:   provider.Embedder(),
		pipeline:   pipeline,
		searcher:   searcher,
		parser:     chatlog.NewParser(),
		logger:     logger,
	}, nil
}

// ImportChatExport parses a raw chat export and ingests its messages.
// Enrichment is scheduled in the background; the call returns as soon as
// the messages are durable.
func (v *Vault) ImportChatExport(ctx context.Context, sourceType, chatID, raw string) (ingestion.ImportResult, error) {
	parsed, err := v.parser.Parse(raw, chatID)
	if err != nil {
		return ingestion.ImportResult{}, err
	}
	return v.pipeline.Ingest(ctx, ingestion.Source{Type: sourceType, ChatID: chatID}, parsed)
}

// Search finds messages relevant to the query.
func (v *Vault) Search(ctx context.Context, query string, opts search.SearchOptions) ([]*search.Result, error) {
	return v.searcher.Search(ctx, query, opts)
}

// Ask answers a question grounded in the stored messages, returning the
// answer and the messages it drew on.
func (v *Vault) Ask(ctx context.Context, question string, limit int) (string, []*search.Result, error) {
	return v.searcher.Ask(ctx, question, limit)
}

// Message retrieves a single message. Returns storage.ErrNotFound when
// no message has that id.
func (v *Vault) Message(ctx context.Context, id core.ID) (*core.Message, error) {
	return v.repository.GetMessage(ctx, id)
}

// ListMessages retrieves messages matching the filter, oldest first.
func (v *Vault) ListMessages(ctx context.Context, filter storage.MessageFilter) ([]*core.Message, error) {
	return v.repository.ListMessages(ctx, filter)
}

// RecentMessages returns the most recently timestamped messages.
func (v *Vault) RecentMessages(ctx context.Context, limit int) ([]*core.Message, error) {
	return v.repository.GetRecentMessages(ctx, limit)
}

// Count returns the number of stored messages.
func (v *Vault) Count(ctx context.Context) (int, error) {
	return v.repository.Count(ctx)
}

// DeleteMessage removes a message and its embedding document. The
// embedding is deleted first so a failed message delete cannot leave a
// dangling document behind after a retry.
func (v *Vault) DeleteMessage(ctx context.Context, id core.ID) error {
	message, err := v.repository.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if message == nil {
		return storage.ErrNotFound
	}

	if message.EmbeddingID != "" {
		if !v.store.Delete(ctx, message.EmbeddingID) {
			v.logger.Debug("embedding document already absent", "id", id, "embeddingID", message.EmbeddingID)
		}
	}

	return v.repository.DeleteMessages(ctx, id)
}

// EnrichPending synchronously enriches up to limit messages that are
// still awaiting enrichment. Returns the number processed.
func (v *Vault) EnrichPending(ctx context.Context, limit int) (int, error) {
	return v.pipeline.EnrichPending(ctx, limit)
}

// Reindex re-embeds every stored message into the embedding store,
// writing progress to the given writer.
func (v *Vault) Reindex(ctx context.Context, config *reindex.Config, progress io.Writer) error {
	reindexer := reindex.NewReindexer(v.repository, v.store, v.embedder, config, progress)
	return reindexer.Run(ctx)
}

// Repository exposes the message repository.
func (v *Vault) Repository() storage.MessageRepository {
	return v.repository
}

// Close releases the worker pool and closes the provider, the embedding
// store, and the message database. In-flight enrichment tasks may be
// abandoned; affected messages stay pending and are picked up by
// EnrichPending on the next run.
func (v *Vault) Close() error {
	v.pipeline.Release()

	if err := v.provider.Close(); err != nil {
		v.logger.Error("error closing AI provider", "err", err)
	}
	if err := v.store.Close(); err != nil {
		v.logger.Error("error closing embedding store", "err", err)
	}

	if err := v.repository.Close(); err != nil {
		v.logger.Error("error closing message repository", "err", err)
		return err
	}
	if err := v.backend.Close(); err != nil {
		v.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
