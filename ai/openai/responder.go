package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/chatvault/chatvault/ai"
)

// maxContextTokens bounds the combined size of passages sent to the model.
const maxContextTokens = 4096

// Responder implements ai.Responder using OpenAI-compatible chat APIs.
type Responder struct {
	client llms.Model
	logger *slog.Logger
}

// newResponder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newResponder(config *ai.Config) (*Responder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.AnalyzerHost),
		openai.WithToken("none"),
		openai.WithModel(config.AnalyzerModel),
	)
	if err != nil {
		return nil, err
	}

	return &Responder{
		client: client,
		logger: slog.Default().With("component", "openai-responder"),
	}, nil
}

// NewResponder creates a new responder using the provided configuration.
//
// Returns the ai.Responder interface to enforce abstraction.
func NewResponder(config *ai.Config) (ai.Responder, error) {
	return newResponder(config)
}

// Respond answers the question using the provided context passages.
func (r *Responder) Respond(ctx context.Context, question string, passages []string) (string, error) {
	contextBlock := truncateTokens(strings.Join(passages, "\n---\n"), maxContextTokens)

	prompt := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(respondPromptTemplate),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart("Excerpts:\n" + contextBlock + "\n\nQuestion: " + question),
			},
		},
	}

	response, err := r.client.GenerateContent(ctx, prompt, llms.WithTemperature(0.2))
	if err != nil {
		r.logger.Error("failed to generate answer", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		r.logger.Warn("no choices returned from model")
		return "", nil
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}
