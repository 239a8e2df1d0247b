package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/panjf2000/ants/v2"

	"github.com/chatvault/chatvault/ai"
	"github.com/chatvault/chatvault/chatlog"
	"github.com/chatvault/chatvault/core"
	"github.com/chatvault/chatvault/embedstore"
	"github.com/chatvault/chatvault/storage"
)

// Source identifies where an imported batch of messages came from.
type Source struct {
	// Type is the export origin, e.g. "whatsapp".
	Type string

	// ChatID names the conversation within the source.
	ChatID string
}

// ImportResult reports what an import batch did.
type ImportResult struct {
	Added   int
	Skipped int
}

// Pipeline orchestrates the import and enrichment of chat messages.
type Pipeline struct {
	repository storage.MessageRepository
	enricher   *Enricher
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent enrichment.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.MessageRepository,
	provider ai.Provider,
	store embedstore.Store,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if store == nil {
		return nil, ErrEmbedStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		pool:       pool,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	enricher, err := NewEnricher(repository, provider, store)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.enricher = enricher

	return p, nil
}

// Ingest persists parsed messages and schedules their enrichment.
// Messages whose source coordinates are already stored are skipped, so
// re-importing the same export is idempotent.
func (p *Pipeline) Ingest(ctx context.Context, source Source, parsed []chatlog.ParsedMessage) (ImportResult, error) {
	var result ImportResult
	if len(parsed) == 0 {
		return result, ErrNoMessages
	}

	var fresh []*core.Message
	for _, pm := range parsed {
		sourceMessageID := fmt.Sprintf("%s_%d", source.Type, pm.Ordinal)

		_, err := p.repository.GetBySource(ctx, source.ChatID, sourceMessageID)
		if err == nil {
			result.Skipped++
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return result, err
		}

		fresh = append(fresh, &core.Message{
			SourceType:      source.Type,
			SourceChatID:    source.ChatID,
			SourceMessageID: sourceMessageID,
			SenderName:      pm.Sender,
			SenderID:        SenderID(pm.Sender),
			Content:         pm.Body,
			MessageType:     pm.Type,
			Timestamp:       pm.Timestamp,
		})
	}

	if len(fresh) == 0 {
		p.logger.Info("nothing new to import", "chat", source.ChatID, "skipped", result.Skipped)
		return result, nil
	}

	added, err := p.repository.AddMessages(ctx, fresh...)
	if err != nil {
		return result, err
	}
	result.Added = len(added)

	ids := make([]core.ID, len(added))
	for i, message := range added {
		ids[i] = message.Id
	}
	p.ScheduleEnrichment(ids...)

	p.logger.Info("imported messages",
		"chat", source.ChatID,
		"added", result.Added,
		"skipped", result.Skipped)
	return result, nil
}

// ScheduleEnrichment submits messages for asynchronous enrichment.
// Errors during processing are logged, never surfaced.
func (p *Pipeline) ScheduleEnrichment(ids ...core.ID) {
	if len(ids) == 0 {
		return
	}
	p.pool.Submit(func() {
		if err := p.enricher.Enrich(context.Background(), ids...); err != nil {
			p.logger.Error("error enriching messages", "err", err)
		}
	})
}

// EnrichPending enriches up to limit stored messages that never
// completed enrichment, synchronously. Returns the number processed.
func (p *Pipeline) EnrichPending(ctx context.Context, limit int) (int, error) {
	pending, err := p.repository.ListUnenriched(ctx, limit)
	if err != nil {
		return 0, err
	}

	for _, message := range pending {
		p.enricher.EnrichMessage(ctx, message)
	}
	return len(pending), nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// SenderID derives a stable sender identifier from a display name.
func SenderID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
