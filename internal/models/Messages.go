package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one entry of a room's history. Username is empty for
// system-generated notices and omitted from the wire payload in that case.
// The ID exists for persistence dedupe only and never leaves the server.
type Message struct {
	ID       uuid.UUID `json:"-"`
	TS       time.Time `json:"ts"`
	Text     string    `json:"text"`
	Username string    `json:"username,omitempty"`
}

// NewMessage stamps a user-authored message with the current time.
func NewMessage(text, username string) *Message {
	return &Message{
		ID:       uuid.New(),
		TS:       time.Now().UTC(),
		Text:     text,
		Username: username,
	}
}

// NewSystemMessage builds a server-generated notice with no author.
func NewSystemMessage(text string) *Message {
	return &Message{
		ID:   uuid.New(),
		TS:   time.Now().UTC(),
		Text: text,
	}
}
