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

package chatlog

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/chatvault/chatvault/core"
)

// ParsedMessage is a single message extracted from a chat export, before
// it has been persisted or enriched.
type ParsedMessage struct {
	Sender    string
	Timestamp time.Time
	Body      string
	Type      core.MessageType
	Ordinal   int
}

// Header patterns for the known WhatsApp export variants, tried in order.
// Each captures (date, time, sender, first body line).
var headerPatterns = []*regexp.Regexp{
	// 6.4.2025, 11:18 - Alice: hello
	regexp.MustCompile(`^(\d{1,2}\.\d{1,2}\.\d{4}),?\s+(\d{1,2}:\d{2})\s*-\s*([^:]+):\s*(.+)$`),
	// 4/6/25, 11:18 AM - Alice: hello
	regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}),?\s+(\d{1,2}:\d{2}(?:\s*[APap][Mm])?)\s*-\s*([^:]+):\s*(.+)$`),
	// [4/6/25, 11:18:03 AM] Alice: hello (iOS)
	regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}),?\s+(\d{1,2}:\d{2}(?::\d{2})?\s*[APap][Mm])\]\s*([^:]+):\s*(.+)$`),
	// 06/04/2025, 11:18 - Alice: hello
	regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{4}),?\s+(\d{1,2}:\d{2})\s*-\s*([^:]+):\s*(.+)$`),
	// 6.4.25, 11:18:03 - Alice: hello
	regexp.MustCompile(`^(\d{1,2}\.\d{1,2}\.\d{2,4}),?\s+(\d{1,2}:\d{2}(?::\d{2})?)\s*-\s*([^:]+):\s*(.+)$`),
}

var datetimeLayouts = []string{
	"2.1.2006 15:04",
	"2.1.06 15:04",
	"1/2/06 3:04 PM",
	"1/2/2006 3:04 PM",
	"2/1/2006 15:04",
	"2/1/06 15:04",
	"1/2/06 3:04:05 PM",
	"2/1/2006 3:04 PM",
}

// Substrings identifying WhatsApp system notifications. The markers are
// checked against the captured body of a header line; a match discards
// that record entirely.
var systemNotificationMarkers = []string{
	"messages and calls are end-to-end encrypted",
	"created group",
	"added",
	"removed",
	"left",
	"changed",
	"security code changed",
	"blocked this contact",
	"unblocked this contact",
	"הודעות ושיחות מוצפנות מקצה לקצה",
	"יצר קבוצה",
	"הוסיף",
	"הסיר",
	"עזב",
	"שינה",
}

// Parser extracts structured messages from WhatsApp text exports.
type Parser struct {
	log *slog.Logger
}

func NewParser() *Parser {
	return &Parser{
		log: slog.Default().With("component", "chatlog-parser"),
	}
}

// Parse splits a raw export into messages. Lines before the first
// recognizable header are dropped, continuation lines are appended to
// the preceding message, and system notifications are suppressed.
// chatLabel names the export in log output only.
//
// An export with no recognizable messages yields an empty sequence,
// never an error.
func (p *Parser) Parse(raw, chatLabel string) ([]ParsedMessage, error) {
	raw = strings.TrimPrefix(raw, "\uFEFF")

	var (
		messages []ParsedMessage
		current  *ParsedMessage
		ordinal  int
		dropped  int
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimRight(current.Body, "\n ")
		if current.Body != "" {
			current.Type = InferMessageType(current.Body)
			current.Ordinal = ordinal
			ordinal++
			messages = append(messages, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if date, clock, sender, body, ok := matchHeader(line); ok {
			flush()
			// System notifications are discarded at the header, never
			// accumulated.
			if isSystemNotification(body) {
				continue
			}
			current = &ParsedMessage{
				Sender:    strings.TrimSpace(sender),
				Timestamp: p.parseTimestamp(date, clock, chatLabel),
				Body:      body,
			}
			continue
		}

		if current == nil {
			// Orphan continuation with no preceding header.
			dropped++
			continue
		}
		current.Body += "\n" + line
	}
	flush()

	if dropped > 0 {
		p.log.Warn("dropped orphan lines", "chat", chatLabel, "count", dropped)
	}
	return messages, nil
}

func matchHeader(line string) (date, clock, sender, body string, ok bool) {
	for _, pat := range headerPatterns {
		if m := pat.FindStringSubmatch(line); m != nil {
			return m[1], m[2], m[3], m[4], true
		}
	}
	return "", "", "", "", false
}

func (p *Parser) parseTimestamp(date, clock, chatLabel string) time.Time {
	// Uppercase so "am"/"pm" markers match Go's PM layout token.
	combined := strings.ToUpper(date + " " + clock)
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, combined); err == nil {
			return ts.UTC()
		}
	}
	p.log.Warn("unparseable timestamp, using current time",
		"chat", chatLabel, "date", date, "time", clock)
	return time.Now().UTC()
}

func isSystemNotification(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range systemNotificationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// InferMessageType classifies a message body by its media placeholders
// and content.
func InferMessageType(body string) core.MessageType {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "<media omitted>"):
		return core.MessageTypeMedia
	case strings.Contains(lower, "image omitted"):
		return core.MessageTypeImage
	case strings.Contains(lower, "video omitted"):
		return core.MessageTypeVideo
	case strings.Contains(lower, "audio omitted"):
		return core.MessageTypeAudio
	case strings.Contains(lower, "document omitted"),
		strings.Contains(lower, ".pdf"),
		strings.Contains(lower, ".doc"):
		return core.MessageTypeDocument
	case strings.Contains(lower, "http://"), strings.Contains(lower, "https://"):
		return core.MessageTypeLink
	default:
		return core.MessageTypeText
	}
}
