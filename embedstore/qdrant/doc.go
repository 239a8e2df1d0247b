// Package qdrant implements the embedstore.Store interface on a Qdrant
// vector database reached over gRPC.
//
// Open probes the server and creates the collection if missing; a
// connection failure at that point is the caller's cue to fall back to
// the in-memory store. After a successful Open, all operations follow
// the fail-soft contract of embedstore.Store: failures are logged and
// degrade to empty results.
package qdrant
