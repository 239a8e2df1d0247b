package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validMessage() *Message {
	return &Message{
		Id:          1,
		SourceType:  "whatsapp",
		SenderName:  "Alice",
		SenderID:    "alice",
		Content:     "hello",
		MessageType: MessageTypeText,
		Timestamp:   time.Now().UTC(),
	}
}

func TestValidateMessageType(t *testing.T) {
	for _, mt := range MessageTypes {
		assert.NoError(t, ValidateMessageType(mt))
	}
	err := ValidateMessageType(MessageType("carrier-pigeon"))
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestValidateSentiment(t *testing.T) {
	assert.NoError(t, ValidateSentiment(0))
	assert.NoError(t, ValidateSentiment(-1))
	assert.NoError(t, ValidateSentiment(1))
	assert.ErrorIs(t, ValidateSentiment(1.5), ErrInvalidSentiment)
	assert.ErrorIs(t, ValidateSentiment(-2), ErrInvalidSentiment)
}

func TestIsValidTimestamp(t *testing.T) {
	assert.False(t, IsValidTimestamp(time.Time{}))
	assert.True(t, IsValidTimestamp(time.Now()))
	assert.True(t, IsValidTimestamp(time.Date(2009, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.False(t, IsValidTimestamp(time.Now().Add(48*time.Hour)))
}

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Message)
		wantErr error
	}{
		{"valid", func(m *Message) {}, nil},
		{"empty content", func(m *Message) { m.Content = "  " }, ErrEmptyContent},
		{"empty sender", func(m *Message) { m.SenderName = "" }, ErrEmptySender},
		{"bad type", func(m *Message) { m.MessageType = "hologram" }, ErrInvalidMessageType},
		{"sentiment out of range", func(m *Message) { m.Sentiment = 3 }, ErrInvalidSentiment},
		{"zero timestamp", func(m *Message) { m.Timestamp = time.Time{} }, ErrInvalidTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMessage()
			tt.mutate(m)
			err := ValidateMessage(m)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
