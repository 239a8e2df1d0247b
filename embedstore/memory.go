package embedstore

import (
	"context"
	"log/slog"
	"sync"
)

// memoryDistance is the nominal distance reported for all matches from
// the degraded in-memory store, which cannot rank by similarity.
const memoryDistance = 0.5

// MemoryStore is a volatile, in-process Store. It is used as the
// degraded fallback when the durable store is unreachable at startup,
// and as a lightweight store in tests.
//
// QuerySimilar does not rank by vector similarity: it scans documents
// in insertion order, applies the filter, and reports a fixed nominal
// distance for every match.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]Document
	order []string

	log *slog.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]Document),
		log:  slog.Default().With("component", "memory-embedstore"),
	}
}

// Add stores the document, overwriting any previous document with the
// same id without disturbing its insertion position.
func (s *MemoryStore) Add(ctx context.Context, doc Document) string {
	if doc.ID == "" {
		s.log.Warn("rejecting document without id")
		return ""
	}
	if len(doc.Vector) == 0 {
		s.log.Warn("rejecting document without vector", "id", doc.ID)
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; !exists {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = doc
	return doc.ID
}

// QuerySimilar scans documents in insertion order and returns up to
// limit filter matches at the nominal distance.
func (s *MemoryStore) QuerySimilar(ctx context.Context, vector []float32, limit int, filter Filter) []Match {
	if limit <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Match
	for _, id := range s.order {
		doc := s.docs[id]
		if !MatchesFilter(doc.Metadata, filter) {
			continue
		}
		matches = append(matches, Match{Document: doc, Distance: memoryDistance})
		if len(matches) == limit {
			break
		}
	}
	return matches
}

// Delete removes the document and reports whether it was present.
func (s *MemoryStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[id]; !exists {
		return false
	}
	delete(s.docs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Replace removes any existing document under the id and stores the
// new one. The document is briefly absent between the two steps.
func (s *MemoryStore) Replace(ctx context.Context, doc Document) bool {
	s.Delete(ctx, doc.ID)
	return s.Add(ctx, doc) != ""
}

// Count returns the number of stored documents.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
