package domain

import "time"

// Conversation lifecycle status.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Conversation is one customer-merchant dialogue. It is the unit of
// ownership, membership and responder mode.
//
// Mode invariant: exactly one of AIEnabled / TakenOver is true at any
// time. Takeover forces automated replies off; release restores them.
type Conversation struct {
	ID             string
	MerchantID     string
	CustomerID     string
	CustomerName   string
	CustomerEmail  string
	CustomerToken  string // reconnection secret, empty when none was minted
	Status         string
	AIEnabled      bool
	TakenOver      bool
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// IsClosed reports whether the conversation has been explicitly closed.
func (c *Conversation) IsClosed() bool {
	return c.Status == StatusClosed
}
