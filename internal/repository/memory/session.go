package memory

import (
	"context"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/repository"
)

type sessionRepository struct {
	s *Store
}

func NewSessionRepository(s *Store) repository.SessionRepository {
	return &sessionRepository{s: s}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := *session
	r.s.sessions[session.ID] = &stored
	return nil
}

// Get returns model.ErrSessionNotFound for unknown and expired sessions.
// Expired sessions are dropped on read.
func (r *sessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	if !sess.ExpiresAt.IsZero() && !r.s.now().Before(sess.ExpiresAt) {
		delete(r.s.sessions, id)
		return nil, model.ErrSessionNotFound
	}
	out := *sess
	return &out, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.sessions, id)
	return nil
}
