package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateMessageType checks that t is one of the known message types.
func ValidateMessageType(t MessageType) error {
	for _, known := range MessageTypes {
		if t == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidMessageType, t)
}

// ValidateSentiment checks that s lies within [-1, 1].
func ValidateSentiment(s float64) error {
	if s < -1 || s > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSentiment, s)
	}
	return nil
}

// IsValidTimestamp reports whether ts is usable as a message timestamp.
// Zero times and times absurdly far in the future are rejected.
func IsValidTimestamp(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(time.Now().Add(24 * time.Hour))
}

// ValidateMessage checks the invariants a Message must hold before it
// can be persisted.
func ValidateMessage(m *Message) error {
	if strings.TrimSpace(m.Content) == "" {
		return ErrEmptyContent
	}
	if strings.TrimSpace(m.SenderName) == "" {
		return ErrEmptySender
	}
	if err := ValidateMessageType(m.MessageType); err != nil {
		return err
	}
	if err := ValidateSentiment(m.Sentiment); err != nil {
		return err
	}
	if !IsValidTimestamp(m.Timestamp) {
		return fmt.Errorf("%w: %v", ErrInvalidTimestamp, m.Timestamp)
	}
	return nil
}
