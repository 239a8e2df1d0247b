package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/chatvault/chatvault/core"
)

// Key prefixes for different data types
const (
	messagePrefix        = "msgrec"
	messageDatePrefix    = "msgrecd"
	messageSenderPrefix  = "msgrecs"
	messagePendingPrefix = "msgrecp"
	messageSourcePrefix  = "msgreco"
	messageIDSeq         = "msgrecseq"
)

// makeMessageKey generates a key for a message by ID.
func makeMessageKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", messagePrefix, id))
}

// makeMessageDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeMessageDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := []byte(messageDatePrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// BigEndian so lexicographic ordering follows time order
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialMessageDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialMessageDateKey(timestamp time.Time) []byte {
	prefix := []byte(messageDatePrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeMessageSenderKey generates a composite key for the sender index.
// Format: prefix:senderID\x00id
func makeMessageSenderKey(senderID string, id core.ID) []byte {
	prefix := []byte(messageSenderPrefix + ":")
	buf := make([]byte, len(prefix)+len(senderID)+1+8)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], senderID)
	buf[offset] = 0
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialMessageSenderKey generates a partial key for sender queries.
func makePartialMessageSenderKey(senderID string) []byte {
	prefix := []byte(messageSenderPrefix + ":")
	buf := make([]byte, len(prefix)+len(senderID)+1)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], senderID)
	buf[offset] = 0
	return buf
}

// senderFromIndexKey extracts the sender id back out of a sender index key.
func senderFromIndexKey(key []byte) (string, bool) {
	prefix := []byte(messageSenderPrefix + ":")
	if len(key) < len(prefix)+1+8 {
		return "", false
	}
	body := key[len(prefix) : len(key)-8]
	if len(body) == 0 || body[len(body)-1] != 0 {
		return "", false
	}
	return string(body[:len(body)-1]), true
}

// makeMessagePendingKey generates a key for the pending-enrichment index.
// Format: prefix:id
func makeMessagePendingKey(id core.ID) []byte {
	prefix := []byte(messagePendingPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeMessageSourceKey generates a key for source coordinate lookups.
// Format: prefix:sourceChatID\x00sourceMessageID
func makeMessageSourceKey(sourceChatID, sourceMessageID string) []byte {
	prefix := []byte(messageSourcePrefix + ":")
	buf := make([]byte, len(prefix)+len(sourceChatID)+1+len(sourceMessageID))
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], sourceChatID)
	buf[offset] = 0
	offset++
	copy(buf[offset:], sourceMessageID)
	return buf
}
