package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a message repository is not provided.
	ErrRepositoryRequired = errors.New("message repository required")

	// ErrEmbedStoreRequired is returned when an embedding store is not provided.
	ErrEmbedStoreRequired = errors.New("embedding store required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrNoMessages is returned when an import batch contains no messages.
	ErrNoMessages = errors.New("no messages to import")
)
