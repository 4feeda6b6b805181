package memory

import (
	"context"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/repository"
)

type moodPostRepository struct {
	s *Store
}

func NewMoodPostRepository(s *Store) repository.MoodPostRepository {
	return &moodPostRepository{s: s}
}

func (r *moodPostRepository) Create(ctx context.Context, post *model.MoodPost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextPostID++
	post.ID = r.s.nextPostID
	post.CreatedAt = r.s.now()

	stored := *post
	r.s.posts[post.ID] = &stored
	return nil
}

func (r *moodPostRepository) GetByID(ctx context.Context, id int64) (*model.MoodPost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, model.ErrMoodPostNotFound
	}
	out := *p
	return &out, nil
}

func (r *moodPostRepository) ListByAuthor(ctx context.Context, authorID int64) ([]model.MoodPost, error) {
	return r.ListByAuthors(ctx, []int64{authorID})
}

func (r *moodPostRepository) ListByAuthors(ctx context.Context, authorIDs []int64) ([]model.MoodPost, error) {
	authors := make(map[int64]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}

	r.s.mu.RLock()
	out := make([]model.MoodPost, 0)
	for _, p := range r.s.posts {
		if _, ok := authors[p.UserID]; ok {
			out = append(out, *p)
		}
	}
	r.s.mu.RUnlock()

	model.SortNewestFirst(out)
	return out, nil
}

func (r *moodPostRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[id]; !ok {
		return model.ErrMoodPostNotFound
	}
	delete(r.s.posts, id)
	return nil
}
