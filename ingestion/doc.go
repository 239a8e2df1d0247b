// Package ingestion provides pipeline orchestration for importing and
// enriching chat messages.
//
// The Pipeline type manages the import workflow:
//   - Persisting parsed messages to storage, skipping duplicates by
//     source coordinates
//   - Enriching messages asynchronously with AI-derived metadata and
//     embeddings
//
// Enrichment is performed concurrently using a worker pool and runs at
// most once per message: whatever the outcome, the message ends up
// marked enriched and is never picked up again. Errors during async
// processing are logged but do not fail the import operation.
package ingestion
