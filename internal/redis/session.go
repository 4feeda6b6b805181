package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/repository"
)

const sessionKeyPrefix = "session:"

// sessionStore keeps sessions as JSON values that Redis expires on its own.
type sessionStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewSessionStore(client *redis.Client) repository.SessionRepository {
	return &sessionStore{client: client, now: time.Now}
}

func (s *sessionStore) Create(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return nil
		}
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *sessionStore) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *sessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
