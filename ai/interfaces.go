package ai

import (
	"context"

	"github.com/chatvault/chatvault/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Analyzer derives enrichment metadata from message content.
// Implementations must be thread-safe for concurrent use.
type Analyzer interface {
	// Analyze examines message content and produces categories, tags,
	// a sentiment score and a short summary. Results are always
	// sanitized against the known taxonomy before being returned.
	//
	// Analyze degrades rather than fails: when the underlying model
	// cannot produce usable output it returns FallbackAnalysis and a
	// nil error. A non-nil error indicates the service itself was
	// unreachable.
	Analyze(ctx context.Context, content string, messageType core.MessageType) (*Analysis, error)
}

// Responder generates natural-language answers grounded in retrieved
// message context. Implementations must be thread-safe for concurrent use.
type Responder interface {
	// Respond answers the question using the provided context passages.
	Respond(ctx context.Context, question string, passages []string) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Analyzer returns the message analysis service.
	Analyzer() Analyzer

	// Responder returns the question answering service.
	Responder() Responder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
