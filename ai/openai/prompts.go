package openai

import (
	"fmt"
	"strings"

	"github.com/chatvault/chatvault/ai"
)

const analysisResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "categories": {
      "type": "array",
      "items": {"type": "string"},
      "maxItems": 3
    },
    "tags": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z0-9][a-z0-9 -]*$"},
      "maxItems": 5
    },
    "sentiment": {
      "type": "number",
      "minimum": -1,
      "maximum": 1
    },
    "summary": {
      "type": "string"
    }
  },
  "required": ["categories", "tags", "sentiment", "summary"],
  "additionalProperties": false
}`

const analysisPromptTemplate = `Analyze the given chat message and return the result as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Categories must match exactly one of the listed values: %s. Use at most 3; pick none if none applies.
- Tags are lowercase keywords from the message itself, at most 5. Do not hallucinate.
- Sentiment is a number from -1 (very negative) to 1 (very positive); 0 is neutral.
- Summary is one sentence of at most 50 words describing what the message says.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example (formal):
Input: "I just transferred 0.5 BTC to the cold wallet, markets look shaky."
Output:
{
  "categories": ["crypto", "finance"],
  "tags": ["btc", "cold wallet", "markets"],
  "sentiment": -0.3,
  "summary": "The sender moved half a bitcoin to cold storage because the markets look unstable."
}

Example (informal, no punctuation):
Input: "hey wanna grab dinner tonight"
Output:
{
  "categories": ["personal"],
  "tags": ["dinner"],
  "sentiment": 0.4,
  "summary": "An invitation to have dinner together tonight."
}

Example (nothing classifiable):
Input: "ok"
Output:
{
  "categories": [],
  "tags": [],
  "sentiment": 0,
  "summary": "A brief acknowledgment."
}`

const respondPromptTemplate = `You answer questions about a personal chat archive.

You are given excerpts from stored chat messages, each prefixed with its sender and date, followed by a
question. Answer the question using ONLY the information in the excerpts. Quote senders and dates when they
support the answer. If the excerpts do not contain the answer, say so plainly instead of guessing.

Keep answers short and factual.`

// buildAnalysisPrompt creates the analyzer system prompt with the
// category taxonomy embedded.
func buildAnalysisPrompt() string {
	return fmt.Sprintf(analysisPromptTemplate,
		analysisResponseSchema,
		strings.Join(ai.Categories, ", "))
}
