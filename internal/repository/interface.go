package repository

import (
	"context"
	"errors"

	"github.com/YusufHabib317/chat-service/internal/domain"
)

// Sentinel errors returned by repositories.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMerchantNotFound     = errors.New("merchant not found")
	ErrSessionNotFound      = errors.New("auth session not found")
)

// ConversationRepository persists conversation records.
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	// LatestForCustomer returns the most recently active conversation for
	// the (merchant, customer) pair, or ErrConversationNotFound.
	LatestForCustomer(ctx context.Context, merchantID, customerID string) (*domain.Conversation, error)
	// ListActive returns active conversations for a merchant ordered by
	// most-recently-active first.
	ListActive(ctx context.Context, merchantID string, limit, offset int) ([]*domain.Conversation, error)
	// UpdateCustomer refreshes display name, email and the activity
	// timestamp on a resumed conversation.
	UpdateCustomer(ctx context.Context, id, name, email string) error
	// SetMode flips the responder-mode pair atomically.
	SetMode(ctx context.Context, id string, aiEnabled, takenOver bool) error
	SetStatus(ctx context.Context, id, status string) error
}

// MessageRepository persists messages append-only.
type MessageRepository interface {
	// Append persists the message and refreshes the owning conversation's
	// activity timestamp in one transaction.
	Append(ctx context.Context, msg *domain.Message) error
	// List returns messages for a conversation ordered by creation time
	// ascending, with limit/offset paging.
	List(ctx context.Context, conversationID string, limit, offset int) ([]*domain.Message, error)
	// ListRecent returns the trailing n messages in ascending order.
	ListRecent(ctx context.Context, conversationID string, n int) ([]*domain.Message, error)
}

// MerchantRepository reads the merchant/product catalog.
type MerchantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)
	GetByOwner(ctx context.Context, userID string) (*domain.Merchant, error)
	ListProducts(ctx context.Context, merchantID string, limit int) ([]*domain.Product, error)
}

// AuthSessionRepository reads authentication-session records.
type AuthSessionRepository interface {
	GetByToken(ctx context.Context, token string) (*domain.AuthSession, error)
}
