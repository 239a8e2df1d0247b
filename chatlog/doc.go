// Package chatlog parses exported chat transcripts into structured messages.
//
// The Parser type understands the WhatsApp text export format in its
// regional variants (dot- and slash-separated dates, 12- and 24-hour
// clocks, bracketed iOS headers). Multi-line messages are accumulated
// until the next header, and system notifications such as encryption
// notices or group membership changes are suppressed.
package chatlog
