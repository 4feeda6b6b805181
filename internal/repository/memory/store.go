// Package memory is the reference in-memory storage engine. A single Store
// backs every repository so that operations spanning several of them
// (accepting a request and linking the pair) happen under one lock.
package memory

import (
	"sync"
	"time"

	"github.com/Mizu-20/statify/internal/model"
)

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users      map[int64]*model.User
	byExternal map[string]int64
	byUnique   map[string]int64

	requests map[int64]*model.FriendRequest

	// friends is an adjacency index. friends[a][b] exists iff friends[b][a]
	// exists; only linkLocked and unlinkLocked write to it.
	friends map[int64]map[int64]time.Time

	posts map[int64]*model.MoodPost

	sessions map[string]*model.Session

	nextUserID    int64
	nextRequestID int64
	nextPostID    int64
}

type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		users:      make(map[int64]*model.User),
		byExternal: make(map[string]int64),
		byUnique:   make(map[string]int64),
		requests:   make(map[int64]*model.FriendRequest),
		friends:    make(map[int64]map[int64]time.Time),
		posts:      make(map[int64]*model.MoodPost),
		sessions:   make(map[string]*model.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// linkLocked inserts both directions of a friendship. Existing directions are
// kept as they are. Callers must hold s.mu for writing.
func (s *Store) linkLocked(a, b int64, at time.Time) {
	if s.friends[a] == nil {
		s.friends[a] = make(map[int64]time.Time)
	}
	if s.friends[b] == nil {
		s.friends[b] = make(map[int64]time.Time)
	}
	if _, ok := s.friends[a][b]; !ok {
		s.friends[a][b] = at
	}
	if _, ok := s.friends[b][a]; !ok {
		s.friends[b][a] = at
	}
}

// unlinkLocked removes both directions and reports whether either existed.
// Callers must hold s.mu for writing.
func (s *Store) unlinkLocked(a, b int64) bool {
	_, ab := s.friends[a][b]
	_, ba := s.friends[b][a]
	delete(s.friends[a], b)
	delete(s.friends[b], a)
	return ab || ba
}

func (s *Store) linkedLocked(a, b int64) bool {
	_, ok := s.friends[a][b]
	return ok
}
