// Package reindex rebuilds the embedding store from the stored messages.
//
// Run it after switching embedding models or after losing the vector
// index: every message is re-embedded in batches and written back under
// a fresh content-addressed document id. The package provides batch
// iteration, progress reporting, retry with exponential backoff, and
// vector normalization for cosine similarity.
package reindex
