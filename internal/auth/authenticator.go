// Package auth resolves an inbound connection's claimed credential to an
// identity exactly once, at connection establishment.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YusufHabib317/chat-service/internal/domain"
	"github.com/YusufHabib317/chat-service/internal/repository"
)

var (
	// ErrInvalidToken rejects a presented credential that does not resolve
	// to a backing session. A malformed identity claim never silently
	// downgrades to guest.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNoMerchant rejects a valid session whose user has no merchant
	// profile; such a user has no business on the operator channel.
	ErrNoMerchant = errors.New("no merchant profile for user")
)

// Authenticator resolves credentials against the authentication-session
// store and the merchant catalog.
type Authenticator struct {
	sessions  repository.AuthSessionRepository
	merchants repository.MerchantRepository

	now func() time.Time
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(sessions repository.AuthSessionRepository, merchants repository.MerchantRepository) *Authenticator {
	return &Authenticator{
		sessions:  sessions,
		merchants: merchants,
		now:       time.Now,
	}
}

// Resolve maps a raw presented credential to an identity.
//
//   - empty credential: guest
//   - valid, non-expired session owned by a user with a merchant profile:
//     operator for that merchant
//   - anything else: an error; the caller must refuse the connection
func (a *Authenticator) Resolve(ctx context.Context, rawCredential string) (domain.Identity, error) {
	if rawCredential == "" {
		return domain.Guest(), nil
	}

	token := ParseToken(rawCredential)
	if token == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	session, err := a.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return domain.Identity{}, ErrInvalidToken
		}
		return domain.Identity{}, fmt.Errorf("session lookup: %w", err)
	}
	if session.IsExpired(a.now()) {
		return domain.Identity{}, ErrInvalidToken
	}

	merchantID := session.MerchantID
	if merchantID == "" {
		merchant, err := a.merchants.GetByOwner(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrMerchantNotFound) {
				return domain.Identity{}, ErrNoMerchant
			}
			return domain.Identity{}, fmt.Errorf("merchant lookup: %w", err)
		}
		merchantID = merchant.ID
	}

	return domain.Operator(session.UserID, merchantID), nil
}
