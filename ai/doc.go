// Package ai defines the interfaces and configuration for AI services
// used in message enrichment and question answering.
//
// Three services are defined:
//   - Embedder generates vector embeddings for semantic search
//   - Analyzer derives categories, tags, sentiment and a summary from
//     message content
//   - Responder produces natural-language answers grounded in
//     retrieved messages
//
// All services target OpenAI-compatible APIs, which allows using local
// servers (Ollama, LocalAI, vLLM) as well as hosted endpoints. Concrete
// implementations live in the openai subpackage, deterministic test
// doubles in the mock subpackage.
//
// Analysis results are best-effort: callers should expect
// FallbackAnalysis when the analyzer cannot produce usable output, and
// must not treat analyzer failure as fatal to ingestion.
package ai
