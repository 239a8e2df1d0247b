package mock

import (
	"context"
	"fmt"
)

// MockResponder is a test double for ai.Responder.
// It allows custom behavior injection via function fields.
type MockResponder struct {
	// RespondFunc is called by Respond if set.
	RespondFunc func(ctx context.Context, question string, passages []string) (string, error)

	callCount int
}

// NewMockResponder creates a mock responder with default behavior.
func NewMockResponder() *MockResponder {
	return &MockResponder{}
}

// Respond echoes the question and the number of context passages.
func (m *MockResponder) Respond(ctx context.Context, question string, passages []string) (string, error) {
	m.callCount++

	if m.RespondFunc != nil {
		return m.RespondFunc(ctx, question, passages)
	}

	return fmt.Sprintf("answer to %q based on %d passages", question, len(passages)), nil
}

// CallCount returns the number of times Respond was called.
func (m *MockResponder) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockResponder) Reset() {
	m.callCount = 0
	m.RespondFunc = nil
}
