package core

import "errors"

var (
	ErrEmptyContent       = errors.New("message content is empty")
	ErrEmptySender        = errors.New("message sender is empty")
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrInvalidSentiment   = errors.New("sentiment out of range [-1, 1]")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
)
