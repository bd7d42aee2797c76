// internal/models/message.go
package models

import "time"

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser    Sender = "user"
	SenderPartner Sender = "partner"
)

// ChatMessage is a single message in a practice conversation.
// Messages are immutable once created; IDs are monotonic within a session.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Feedback  string    `json:"feedback,omitempty"`
}

// ContextRole is the role of an entry in the conversation context
// sent to the AI backend.
type ContextRole string

const (
	ContextRoleSystem  ContextRole = "system"
	ContextRoleUser    ContextRole = "user"
	ContextRolePartner ContextRole = "partner"
)

// ContextEntry is one turn in the bounded conversation context.
// Entry 0 of a context is always the system instruction.
type ContextEntry struct {
	Role    ContextRole `json:"role"`
	Content string      `json:"content"`
}
