package cache

import (
	"context"
	"time"

	"github.com/YusufHabib317/chat-service/internal/domain"
)

// MessagePage is one cached page of a conversation's history.
type MessagePage struct {
	Messages []*domain.Message `json:"messages"`
}

// MessageCache caches pages of persisted message history for the
// read-only query surface. Live fan-out never goes through it.
type MessageCache interface {
	Get(ctx context.Context, key string) (*MessagePage, error)
	Set(ctx context.Context, key string, page *MessagePage, ttl time.Duration) error
	BuildKey(conversationID string, limit, offset int) string
	Close() error
}
