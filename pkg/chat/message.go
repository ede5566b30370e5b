package chat

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Messages are created once and never mutated.
type Message struct {
	ID        string
	Content   string
	Role      Role
	Timestamp time.Time
}

func newMessage(role Role, content string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Role:      role,
		Timestamp: now,
	}
}

const (
	WelcomeText = "Good morning! ☕ I'm your AI news assistant. I can help you understand today's news, " +
		"answer questions about current events, or dive deeper into any stories that interest you. " +
		"What would you like to know?"
	ClearedText  = "Chat cleared! What would you like to know about today's news?"
	FallbackText = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."
)

// Suggestions are the canned quick prompts offered below the input.
var Suggestions = []string{
	"What are the top stories today?",
	"Tell me about tech news",
	"Any business updates?",
	"What's happening in politics?",
}

// NoSession marks the absence of a backend session id.
const NoSession = ""
