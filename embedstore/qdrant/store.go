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

package qdrant

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/chatvault/chatvault/embedstore"
)

// Metadata fields holding stringified lists; they are matched with
// full-text conditions instead of exact keyword matches.
var listFields = map[string]bool{
	"categories": true,
	"tags":       true,
}

// Config holds connection settings for a Qdrant-backed store.
type Config struct {
	Host       string
	Port       int
	Collection string
	VectorSize uint64
}

// DefaultConfig returns settings for a local Qdrant instance.
func DefaultConfig() Config {
	return Config{
		Host:       "localhost",
		Port:       6334,
		Collection: "chatvault_messages",
		VectorSize: 384,
	}
}

// Store is a durable embedstore.Store backed by Qdrant.
type Store struct {
	client     *qdrant.Client
	collection string
	log        *slog.Logger
}

// Open connects to Qdrant, verifies the server is reachable and creates
// the collection if it does not exist yet. An error here means the
// server is unusable and the caller should degrade to the in-memory
// store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		return nil, errors.New("qdrant: collection name is required")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, err
	}

	s := &Store{
		client:     client,
		collection: cfg.Collection,
		log:        slog.Default().With("component", "qdrant-embedstore"),
	}

	// Reachability probe doubles as the existence check.
	existing, err := client.ListCollections(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	for _, name := range existing {
		if name == cfg.Collection {
			return s, nil
		}
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	s.log.Info("created collection", "collection", cfg.Collection, "vector_size", cfg.VectorSize)
	return s, nil
}

// Add stores the document and returns its id, or "" on failure.
func (s *Store) Add(ctx context.Context, doc embedstore.Document) string {
	point, err := buildPoint(doc)
	if err != nil {
		s.log.Warn("rejecting document", "id", doc.ID, "err", err)
		return ""
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		s.log.Error("failed to upsert document", "id", doc.ID, "err", err)
		return ""
	}
	return doc.ID
}

// QuerySimilar returns up to limit documents nearest to vector.
func (s *Store) QuerySimilar(ctx context.Context, vector []float32, limit int, filter embedstore.Filter) []embedstore.Match {
	if limit <= 0 {
		return nil
	}

	lim := uint64(limit)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &lim,
		Filter:         buildFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		s.log.Error("similarity query failed", "err", err)
		return nil
	}

	matches := make([]embedstore.Match, 0, len(hits))
	for _, hit := range hits {
		doc := hitToDocument(hit)
		if doc.ID == "" {
			continue
		}
		// Cosine similarity score to distance.
		distance := 1 - float64(hit.GetScore())
		if distance < 0 {
			distance = 0
		}
		matches = append(matches, embedstore.Match{Document: doc, Distance: distance})
	}
	return matches
}

// Delete removes the document and reports whether it was present.
func (s *Store) Delete(ctx context.Context, id string) bool {
	pointID, err := parsePointID(id)
	if err != nil {
		s.log.Warn("invalid document id", "id", id, "err", err)
		return false
	}

	existing, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{pointID},
	})
	if err != nil {
		s.log.Error("failed to look up document", "id", id, "err", err)
		return false
	}
	if len(existing) == 0 {
		return false
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(pointID),
	})
	if err != nil {
		s.log.Error("failed to delete document", "id", id, "err", err)
		return false
	}
	return true
}

// Replace removes any existing document under the id, then recreates
// it. The document is briefly absent between the two steps.
func (s *Store) Replace(ctx context.Context, doc embedstore.Document) bool {
	pointID, err := parsePointID(doc.ID)
	if err != nil {
		s.log.Warn("invalid document id", "id", doc.ID, "err", err)
		return false
	}

	if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(pointID),
	}); err != nil {
		s.log.Error("failed to delete document", "id", doc.ID, "err", err)
		return false
	}

	return s.Add(ctx, doc) != ""
}

// Count returns the number of stored documents, or 0 on failure.
func (s *Store) Count(ctx context.Context) int {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
	})
	if err != nil {
		s.log.Error("failed to count documents", "err", err)
		return 0
	}
	return int(count)
}

// Close releases the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func buildPoint(doc embedstore.Document) (*qdrant.PointStruct, error) {
	num, err := parseNumericID(doc.ID)
	if err != nil {
		return nil, err
	}
	if len(doc.Vector) == 0 {
		return nil, errors.New("empty vector")
	}

	payload := map[string]any{"text": doc.Text}
	for field, value := range doc.Metadata {
		payload[field] = value
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(num),
		Vectors: qdrant.NewVectors(doc.Vector...),
		Payload: qdrant.NewValueMap(payload),
	}, nil
}

func buildFilter(filter embedstore.Filter) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for field, value := range filter {
		if listFields[field] {
			conditions = append(conditions, qdrant.NewMatchText(field, value))
		} else {
			conditions = append(conditions, qdrant.NewMatch(field, value))
		}
	}
	return &qdrant.Filter{Must: conditions}
}

func hitToDocument(hit *qdrant.ScoredPoint) embedstore.Document {
	doc := embedstore.Document{
		ID:       strconv.FormatUint(hit.GetId().GetNum(), 10),
		Metadata: make(map[string]string),
	}
	for field, value := range hit.GetPayload() {
		if field == "text" {
			doc.Text = value.GetStringValue()
			continue
		}
		doc.Metadata[field] = value.GetStringValue()
	}
	return doc
}

func parseNumericID(id string) (uint64, error) {
	return strconv.ParseUint(id, 10, 64)
}

func parsePointID(id string) (*qdrant.PointId, error) {
	num, err := parseNumericID(id)
	if err != nil {
		return nil, err
	}
	return qdrant.NewIDNum(num), nil
}
