package memory

import (
	"context"
	"sort"

	"github.com/Mizu-20/statify/internal/repository"
)

type friendshipRepository struct {
	s *Store
}

func NewFriendshipRepository(s *Store) repository.FriendshipRepository {
	return &friendshipRepository{s: s}
}

func (r *friendshipRepository) Link(ctx context.Context, userID, friendID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.linkLocked(userID, friendID, r.s.now())
	return nil
}

func (r *friendshipRepository) Unlink(ctx context.Context, userID, friendID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.unlinkLocked(userID, friendID), nil
}

func (r *friendshipRepository) Exists(ctx context.Context, userID, friendID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.linkedLocked(userID, friendID), nil
}

// ListFriendIDs returns friend ids ordered by when the link was made, oldest first.
func (r *friendshipRepository) ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	links := r.s.friends[userID]
	ids := make([]int64, 0, len(links))
	for id := range links {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := links[ids[i]], links[ids[j]]
		if ti.Equal(tj) {
			return ids[i] < ids[j]
		}
		return ti.Before(tj)
	})
	return ids, nil
}
