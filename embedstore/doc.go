// Package embedstore defines the vector document store used for
// semantic search over message embeddings.
//
// The Store interface is deliberately fail-soft: operations log and
// degrade instead of returning errors, so a broken or unreachable
// vector database never takes down ingestion or search. Add returns an
// empty id on failure, QuerySimilar returns no matches, Delete and
// Replace report whether they took effect.
//
// Two implementations exist: a durable Qdrant-backed store in the
// qdrant subpackage, and the volatile MemoryStore in this package used
// as a degraded fallback and in tests. The implementation is chosen
// once at startup and never switched mid-run.
package embedstore
