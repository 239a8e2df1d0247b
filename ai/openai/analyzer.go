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

package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/chatvault/chatvault/ai"
	"github.com/chatvault/chatvault/core"
)

// Analyzer implements ai.Analyzer using OpenAI-compatible chat APIs.
type Analyzer struct {
	client llms.Model
	logger *slog.Logger
}

// rawAnalysis matches the JSON structure requested from the LLM.
type rawAnalysis struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	Sentiment  float64  `json:"sentiment"`
	Summary    string   `json:"summary"`
}

// newAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAnalyzer(config *ai.Config) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that
	// don't require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.AnalyzerHost),
		openai.WithToken("none"),
		openai.WithModel(config.AnalyzerModel),
	)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		client: client,
		logger: slog.Default().With("component", "openai-analyzer"),
	}, nil
}

// NewAnalyzer creates a new message analyzer using the provided configuration.
//
// Returns the ai.Analyzer interface to enforce abstraction.
func NewAnalyzer(config *ai.Config) (ai.Analyzer, error) {
	return newAnalyzer(config)
}

// Analyze derives categories, tags, sentiment and a summary from message
// content using an LLM. Malformed model output degrades to
// ai.FallbackAnalysis with a nil error; only transport failures surface
// as errors.
func (a *Analyzer) Analyze(ctx context.Context, content string, messageType core.MessageType) (*ai.Analysis, error) {
	prompt := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildAnalysisPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart("Message type: " + string(messageType) + "\nMessage: " + content),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var raw rawAnalysis
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := a.client.GenerateContent(ctx, prompt, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			a.logger.Error("failed to generate analysis", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			a.logger.Debug("no choices returned from model")
			return ai.FallbackAnalysis(content), nil
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
			lastErr = err
			a.logger.Warn("error parsing analyzer response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		a.logger.Error("failed to parse analyzer response after retries", "err", lastErr)
		return ai.FallbackAnalysis(content), nil
	}

	return a.sanitize(&raw, content), nil
}

// sanitize enforces the taxonomy and result caps on raw model output.
func (a *Analyzer) sanitize(raw *rawAnalysis, content string) *ai.Analysis {
	categories := make([]string, 0, ai.MaxCategories)
	for _, c := range raw.Categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || c == ai.CategoryUncategorized || !ai.IsKnownCategory(c) {
			continue
		}
		if !contains(categories, c) {
			categories = append(categories, c)
		}
		if len(categories) == ai.MaxCategories {
			break
		}
	}
	if len(categories) == 0 {
		categories = []string{ai.CategoryUncategorized}
	}

	tags := make([]string, 0, len(raw.Tags))
	for _, t := range raw.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tags = append(tags, t)
		}
	}
	tags = ai.MergeTags(tags, ai.ExtractTickers(content))

	sentiment := raw.Sentiment
	if sentiment < -1 {
		sentiment = -1
	} else if sentiment > 1 {
		sentiment = 1
	}

	summary := truncateWords(strings.TrimSpace(raw.Summary), 50)
	if summary == "" {
		summary = ai.FallbackAnalysis(content).Summary
	}

	return &ai.Analysis{
		Categories: categories,
		Tags:       tags,
		Sentiment:  sentiment,
		Summary:    summary,
	}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
