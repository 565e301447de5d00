package domain

import "time"

// Sender kinds for messages.
const (
	SenderCustomer = "customer"
	SenderAgent    = "agent"
	SenderAI       = "ai"
)

// Message is one immutable utterance inside a conversation. Messages are
// persisted append-only and ordered by creation time.
type Message struct {
	ID             string
	ConversationID string
	Sender         string // customer | agent | ai
	SenderID       string // user id for agent messages, empty otherwise
	Content        string
	CreatedAt      time.Time
}
