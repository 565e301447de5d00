// Package directory is the authoritative mapping from a conversation
// identifier to its participants, ownership and responder mode. It is
// backed by the persistent store; authorization is the caller's job, and
// the directory trusts anyone holding a conversation identifier.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/YusufHabib317/chat-service/internal/domain"
	"github.com/YusufHabib317/chat-service/internal/repository"
)

var (
	// ErrNotFound mirrors the repository sentinel at the directory boundary.
	ErrNotFound = errors.New("conversation not found")
	// ErrSecretMismatch rejects a reconnection attempt whose presented
	// secret does not match the stored one. The directory never silently
	// creates a new session in that case; guessing customer identifiers
	// must not allow session takeover.
	ErrSecretMismatch = errors.New("customer token mismatch")
)

// Directory implements the session directory over the persistent store.
type Directory struct {
	convs repository.ConversationRepository
	msgs  repository.MessageRepository
}

// New creates a Directory.
func New(convs repository.ConversationRepository, msgs repository.MessageRepository) *Directory {
	return &Directory{convs: convs, msgs: msgs}
}

// Create always creates a fresh conversation with automated responses
// enabled and no takeover. A reconnection secret is minted and stored;
// callers return it to the customer for future reconnections.
func (d *Directory) Create(ctx context.Context, merchantID, customerName, customerEmail, customerID string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	conv := &domain.Conversation{
		ID:             uuid.New().String(),
		MerchantID:     merchantID,
		CustomerID:     customerID,
		CustomerName:   customerName,
		CustomerEmail:  customerEmail,
		CustomerToken:  uuid.New().String(),
		Status:         domain.StatusActive,
		AIEnabled:      true,
		TakenOver:      false,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := d.convs.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// FindOrCreate resolves the most recently active conversation for the
// (merchant, customer) pair. A stored reconnection secret must match the
// presented one or the call fails; a match refreshes the customer display
// fields. With no prior conversation it delegates to Create.
func (d *Directory) FindOrCreate(ctx context.Context, merchantID, customerID, name, email, presentedSecret string) (*domain.Conversation, bool, error) {
	conv, err := d.convs.LatestForCustomer(ctx, merchantID, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			created, cerr := d.Create(ctx, merchantID, name, email, customerID)
			return created, false, cerr
		}
		return nil, false, fmt.Errorf("lookup conversation: %w", err)
	}

	if conv.CustomerToken != "" && conv.CustomerToken != presentedSecret {
		return nil, false, ErrSecretMismatch
	}

	if err := d.convs.UpdateCustomer(ctx, conv.ID, name, email); err != nil {
		return nil, false, fmt.Errorf("refresh conversation: %w", err)
	}
	conv.CustomerName = name
	if email != "" {
		conv.CustomerEmail = email
	}
	conv.LastActivityAt = time.Now().UTC()
	return conv, true, nil
}

// Get returns a conversation by id.
func (d *Directory) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	conv, err := d.convs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return conv, nil
}

// ListActive returns a merchant's active conversations, most recently
// active first.
func (d *Directory) ListActive(ctx context.Context, merchantID string, limit, offset int) ([]*domain.Conversation, error) {
	return d.convs.ListActive(ctx, merchantID, limit, offset)
}

// AppendMessage persists a message and refreshes the conversation's
// activity timestamp as one unit.
func (d *Directory) AppendMessage(ctx context.Context, conversationID, content, sender, senderID string) (*domain.Message, error) {
	msg := &domain.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Sender:         sender,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := d.msgs.Append(ctx, msg); err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// Messages returns a page of a conversation's messages in creation order.
func (d *Directory) Messages(ctx context.Context, conversationID string, limit, offset int) ([]*domain.Message, error) {
	return d.msgs.List(ctx, conversationID, limit, offset)
}

// RecentMessages returns the trailing n messages in creation order, for
// the automated responder's history window.
func (d *Directory) RecentMessages(ctx context.Context, conversationID string, n int) ([]*domain.Message, error) {
	return d.msgs.ListRecent(ctx, conversationID, n)
}

// Takeover marks the conversation operator-controlled. The pair flips in
// one update: takeover forces automated responses off.
func (d *Directory) Takeover(ctx context.Context, conversationID string) error {
	return d.setMode(ctx, conversationID, false, true)
}

// Release restores automated responses.
func (d *Directory) Release(ctx context.Context, conversationID string) error {
	return d.setMode(ctx, conversationID, true, false)
}

func (d *Directory) setMode(ctx context.Context, conversationID string, aiEnabled, takenOver bool) error {
	err := d.convs.SetMode(ctx, conversationID, aiEnabled, takenOver)
	if errors.Is(err, repository.ErrConversationNotFound) {
		return ErrNotFound
	}
	return err
}

// Close terminates the conversation. Disconnection never closes a
// conversation; only this explicit call does.
func (d *Directory) Close(ctx context.Context, conversationID string) error {
	err := d.convs.SetStatus(ctx, conversationID, domain.StatusClosed)
	if errors.Is(err, repository.ErrConversationNotFound) {
		return ErrNotFound
	}
	return err
}
