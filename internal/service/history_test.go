package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/YusufHabib317/chat-service/internal/cache"
	"github.com/YusufHabib317/chat-service/internal/domain"
)

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*domain.Message
	listHits int
}

func (f *fakeMessageRepo) Append(context.Context, *domain.Message) error { return nil }

func (f *fakeMessageRepo) List(_ context.Context, _ string, limit, offset int) ([]*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listHits++
	if offset >= len(f.messages) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.messages) {
		end = len(f.messages)
	}
	return f.messages[offset:end], nil
}

func (f *fakeMessageRepo) ListRecent(context.Context, string, int) ([]*domain.Message, error) {
	return nil, nil
}

func (f *fakeMessageRepo) hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listHits
}

type fakeCache struct {
	mu    sync.Mutex
	pages map[string]*cache.MessagePage
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: make(map[string]*cache.MessagePage)}
}

func (f *fakeCache) BuildKey(conversationID string, limit, offset int) string {
	return fmt.Sprintf("test:%s:%d:%d", conversationID, limit, offset)
}

func (f *fakeCache) Get(_ context.Context, key string) (*cache.MessagePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page, ok := f.pages[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return page, nil
}

func (f *fakeCache) Set(_ context.Context, key string, page *cache.MessagePage, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[key] = page
	f.sets++
	return nil
}

func (f *fakeCache) Close() error { return nil }

func seededRepo(n int) *fakeMessageRepo {
	repo := &fakeMessageRepo{}
	for i := 0; i < n; i++ {
		repo.messages = append(repo.messages, &domain.Message{
			ID:      fmt.Sprintf("m%d", i),
			Content: fmt.Sprintf("message %d", i),
		})
	}
	return repo
}

func TestPage_NilCacheReadsRepository(t *testing.T) {
	repo := seededRepo(5)
	s := NewHistoryService(repo, nil, time.Minute)

	msgs, err := s.Page(context.Background(), "conv-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
}

func TestPage_FirstPageAlwaysReadsThrough(t *testing.T) {
	repo := seededRepo(5)
	c := newFakeCache()
	s := NewHistoryService(repo, c, time.Minute)
	ctx := context.Background()

	_, err := s.Page(ctx, "conv-1", 10, 0)
	require.NoError(t, err)
	_, err = s.Page(ctx, "conv-1", 10, 0)
	require.NoError(t, err)

	require.Equal(t, 2, repo.hits(), "offset 0 must never be served from cache")
	c.mu.Lock()
	defer c.mu.Unlock()
	require.Equal(t, 0, c.sets)
}

func TestPage_DeeperPagesAreCached(t *testing.T) {
	repo := seededRepo(20)
	c := newFakeCache()
	s := NewHistoryService(repo, c, time.Minute)
	ctx := context.Background()

	first, err := s.Page(ctx, "conv-1", 5, 10)
	require.NoError(t, err)
	require.Len(t, first, 5)
	require.Equal(t, 1, repo.hits())

	// The write-behind goroutine populates the cache.
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.sets == 1
	}, time.Second, 5*time.Millisecond)

	second, err := s.Page(ctx, "conv-1", 5, 10)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.hits(), "cached page must not hit the repository")
}
