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


// Package search provides hybrid vector and keyword retrieval over
// enriched chat messages.
//
// The Searcher type implements a two-stage retrieve-then-rerank design:
//   - Vector retrieval against the embedding store for semantic recall
//   - Lexical re-ranking by query-word overlap to correct for embedding
//     drift on exact-term queries such as ticker symbols
//
// The combined score favors the vector signal. Ask builds on Search to
// answer free-form questions grounded in the retrieved messages.
package search
