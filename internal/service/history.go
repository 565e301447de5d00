package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/YusufHabib317/chat-service/internal/cache"
	"github.com/YusufHabib317/chat-service/internal/domain"
	"github.com/YusufHabib317/chat-service/internal/repository"
	"github.com/YusufHabib317/chat-service/pkg/log"
)

// HistoryService reads persisted message history for both the join-time
// history replay and the HTTP query surface. Pages beyond the first are
// cached with a short TTL; the first page always reads through so a page
// cached while the conversation was quiet never hides fresh messages.
type HistoryService struct {
	msgs     repository.MessageRepository
	cache    cache.MessageCache // nil disables caching
	cacheTTL time.Duration
	sf       singleflight.Group
}

// NewHistoryService creates a HistoryService. A nil cache is valid and
// makes every read go to the repository.
func NewHistoryService(msgs repository.MessageRepository, msgCache cache.MessageCache, cacheTTL time.Duration) *HistoryService {
	return &HistoryService{
		msgs:     msgs,
		cache:    msgCache,
		cacheTTL: cacheTTL,
	}
}

// Page returns one page of a conversation's messages in creation order.
func (s *HistoryService) Page(ctx context.Context, conversationID string, limit, offset int) ([]*domain.Message, error) {
	if s.cache == nil || offset == 0 {
		return s.msgs.List(ctx, conversationID, limit, offset)
	}

	key := s.cache.BuildKey(conversationID, limit, offset)

	// Collapse concurrent identical reads into one repository call.
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.fetchWithCache(ctx, conversationID, limit, offset, key)
	})
	if err != nil {
		return nil, err
	}

	page, ok := result.(*cache.MessagePage)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return page.Messages, nil
}

func (s *HistoryService) fetchWithCache(ctx context.Context, conversationID string, limit, offset int, key string) (*cache.MessagePage, error) {
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Ctx(ctx).Warn().Err(err).Msg("cache get error")
	}

	messages, err := s.msgs.List(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages from repository: %w", err)
	}

	page := &cache.MessagePage{Messages: messages}

	// Store in cache without blocking the response.
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(cacheCtx, key, page, s.cacheTTL); err != nil {
			log.L().Warn().Err(err).Msg("cache set error")
		}
	}()

	return page, nil
}
