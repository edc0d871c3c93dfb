package book

import (
	"sync"
	"time"
)

// Store holds the latest order book per token. The REST bootstrap and
// the streaming feed are the only writers; everything else reads.
// A whole book is replaced under one lock so a reader never observes
// bids and asks from different snapshots.
type Store struct {
	now func() time.Time

	mu    sync.RWMutex
	books map[string]Book
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		now:   time.Now,
		books: make(map[string]Book),
	}
}

// WithClock overrides the timestamp source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Apply replaces the entire book for a token. Both sides are re-sorted
// into canonical order before the swap; the feed delivers full
// snapshots, so there is no merge with the previous book.
func (s *Store) Apply(tokenID string, b Book) {
	b.Normalize()
	b.UpdatedAt = s.now()

	s.mu.Lock()
	s.books[tokenID] = b
	s.mu.Unlock()
}

// Get returns a copy of the most recent book for a token. The second
// return value is false if neither a bootstrap nor a snapshot has
// arrived yet, which is distinct from an empty book with zero levels.
func (s *Store) Get(tokenID string) (Book, bool) {
	s.mu.RLock()
	b, ok := s.books[tokenID]
	s.mu.RUnlock()
	if !ok {
		return Book{}, false
	}
	return b.clone(), true
}

// LastUpdate returns when the token's book was last replaced.
func (s *Store) LastUpdate(tokenID string) (time.Time, bool) {
	s.mu.RLock()
	b, ok := s.books[tokenID]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}
	return b.UpdatedAt, true
}

// Drop removes a token's book, used when switching markets.
func (s *Store) Drop(tokenID string) {
	s.mu.Lock()
	delete(s.books, tokenID)
	s.mu.Unlock()
}
