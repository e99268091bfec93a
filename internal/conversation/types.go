// Package conversation stores per-user chat history and long-term memory.
package conversation

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// CategoryPreference tags memory entries extracted from preference language.
const CategoryPreference = "preference"

// Message is a single immutable conversation turn.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemoryEntry is a durable note about a user, used to personalise later turns.
type MemoryEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cleared reports how many records ClearUser removed.
type Cleared struct {
	Messages int `json:"messages"`
	Memories int `json:"memories"`
}
