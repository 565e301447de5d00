package domain

import "time"

// Merchant is a chat-enabled storefront. Conversations belong to exactly
// one merchant for their lifetime.
type Merchant struct {
	ID          string
	OwnerUserID string
	Name        string
	Description string
	ChatEnabled bool
	CreatedAt   time.Time
}

// Product is one catalog entry, used only to assemble the automated
// responder's system instruction.
type Product struct {
	ID          string
	MerchantID  string
	Name        string
	Description string
	Price       float64
}

// AuthSession is an authentication-session record as returned by the
// authentication collaborator: opaque token, owning user, optional
// merchant, and expiry. This service only ever reads these.
type AuthSession struct {
	Token      string
	UserID     string
	MerchantID string
	ExpiresAt  time.Time
}

// IsExpired reports whether the session has expired at the given instant.
func (s *AuthSession) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
