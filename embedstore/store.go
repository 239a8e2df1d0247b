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

package embedstore

import (
	"context"
	"strconv"
	"strings"

	"github.com/chatvault/chatvault/core"
)

// Document is an embedded text with its metadata, ready for storage.
type Document struct {
	// ID is the store-wide document identifier, a decimal uint64
	// produced by DocumentID.
	ID string

	Vector []float32
	Text   string

	// Metadata holds scalar payload fields. List-valued fields are
	// stored stringified via StringifyList.
	Metadata map[string]string
}

// Match is a similarity search hit.
type Match struct {
	Document Document

	// Distance is 1 - cosine similarity, so 0 is an exact match.
	Distance float64
}

// Filter restricts QuerySimilar results by metadata field values.
// Scalar fields match exactly; stringified list fields match when they
// contain the wanted element.
type Filter map[string]string

// Store persists embedding documents and answers similarity queries.
//
// All operations are fail-soft: they log failures and degrade rather
// than returning errors. Implementations must be safe for concurrent use.
type Store interface {
	// Add stores the document and returns its id, or "" on failure.
	Add(ctx context.Context, doc Document) string

	// QuerySimilar returns up to limit documents nearest to vector,
	// most similar first. A nil filter matches everything. Failures
	// yield an empty result.
	QuerySimilar(ctx context.Context, vector []float32, limit int, filter Filter) []Match

	// Delete removes the document and reports whether it was present.
	Delete(ctx context.Context, id string) bool

	// Replace overwrites the document under its existing id and
	// reports whether the write took effect.
	Replace(ctx context.Context, doc Document) bool

	// Count returns the number of stored documents, or 0 on failure.
	Count(ctx context.Context) int

	// Close releases underlying resources.
	Close() error
}

// DocumentID derives the store document id for a message. The id is
// content-addressed so re-importing identical content maps to the same
// document.
func DocumentID(messageID core.ID, content string) string {
	return strconv.FormatUint(uint64(core.IDFromContent(strconv.FormatUint(uint64(messageID), 10)+"\x00"+content)), 10)
}

// StringifyList flattens a list-valued metadata field for storage.
func StringifyList(values []string) string {
	return strings.Join(values, ", ")
}

// listContains reports whether a stringified list holds the element.
func listContains(stringified, element string) bool {
	for _, v := range strings.Split(stringified, ", ") {
		if v == element {
			return true
		}
	}
	return false
}

// MatchesFilter reports whether metadata satisfies every filter entry.
func MatchesFilter(metadata map[string]string, filter Filter) bool {
	for field, want := range filter {
		got, ok := metadata[field]
		if !ok {
			return false
		}
		if got != want && !listContains(got, want) {
			return false
		}
	}
	return true
}
