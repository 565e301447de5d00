// Package genlock bounds automated-response concurrency: at most one
// generation call may be in flight per conversation. Entries are held in
// memory only and never persisted.
package genlock

import "sync"

// Lock is a presence set keyed by conversation id.
type Lock struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// New creates an empty Lock.
func New() *Lock {
	return &Lock{active: make(map[string]struct{})}
}

// TryEnter marks the conversation as generating. It returns false if a
// generation is already in flight for that conversation.
func (l *Lock) TryEnter(conversationID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[conversationID]; busy {
		return false
	}
	l.active[conversationID] = struct{}{}
	return true
}

// IsLocked reports whether a generation is in flight for the conversation.
func (l *Lock) IsLocked(conversationID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, busy := l.active[conversationID]
	return busy
}

// Exit clears the marker. Callers defer this immediately after a
// successful TryEnter so a provider failure can never leave a
// conversation stuck unable to generate again.
func (l *Lock) Exit(conversationID string) {
	l.mu.Lock()
	delete(l.active, conversationID)
	l.mu.Unlock()
}
