package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Message IDs come from database sequences; embedding document IDs
// are derived from content via IDFromContent.
type ID uint64

// String renders the ID as a decimal number.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID, which keeps embedding
// documents content-addressed.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// MessageType classifies message content.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeVideo    MessageType = "video"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeDocument MessageType = "document"
	MessageTypeLink     MessageType = "link"
	MessageTypeMedia    MessageType = "media"
)

// MessageTypes lists every valid MessageType value.
var MessageTypes = []MessageType{
	MessageTypeText,
	MessageTypeImage,
	MessageTypeVideo,
	MessageTypeAudio,
	MessageTypeDocument,
	MessageTypeLink,
	MessageTypeMedia,
}

// Message is a stored chat message. It is created by ingestion and later
// enriched in the background with AI-derived metadata and an embedding
// reference.
type Message struct {
	Id ID

	// Source information
	SourceType      string // e.g. "whatsapp", "telegram"
	SourceChatID    string
	SourceMessageID string // stable per-file: "<sourceType>_<ordinal>"

	SenderName string
	SenderID   string

	Content     string
	MessageType MessageType

	Timestamp time.Time // when the message was originally sent
	CreatedAt time.Time // when the record was inserted
	UpdatedAt time.Time // when the record was last updated

	// Enrichment results (populated by the background enricher)
	Categories []string
	Tags       []string
	Sentiment  float64 // [-1, 1]
	Summary    string

	// EmbeddingID references the document in the embedding store.
	// It is non-empty iff a vector was successfully stored.
	EmbeddingID  string
	HasEmbedding bool

	// Enriched becomes true exactly once, whether enrichment succeeded
	// or failed. EnrichmentError carries the failure description when a
	// non-AI step failed.
	Enriched        bool
	EnrichmentError string
}
