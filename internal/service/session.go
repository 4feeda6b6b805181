package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/repository"
)

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionGate issues session tokens and resolves them back to a caller.
// The token is a signed reference to a server-side session record, so
// logout and expiry take effect immediately.
type SessionGate struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	secret   []byte
	maxAge   time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewSessionGate(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	secret string,
	maxAge time.Duration,
	logger *zap.Logger,
) *SessionGate {
	return &SessionGate{
		sessions: sessions,
		users:    users,
		secret:   []byte(secret),
		maxAge:   maxAge,
		now:      time.Now,
		logger:   logger.With(zap.String("component", "session")),
	}
}

// Issue creates an authenticated session for userID and returns its token.
func (g *SessionGate) Issue(ctx context.Context, userID int64) (string, *model.Session, error) {
	now := g.now()
	session := &model.Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		Authenticated: true,
		CreatedAt:     now,
		ExpiresAt:     now.Add(g.maxAge),
	}
	if err := g.sessions.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	claims := sessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, session, nil
}

// Resolve maps a token to its caller. Every reason a token is not usable
// yields model.ErrUnauthenticated; only storage faults come back as other errors.
func (g *SessionGate) Resolve(ctx context.Context, token string) (*model.Caller, error) {
	sessionID, err := g.parse(token)
	if err != nil {
		return nil, g.reject("invalid token", err)
	}

	session, err := g.sessions.Get(ctx, sessionID)
	if errors.Is(err, model.ErrSessionNotFound) {
		return nil, g.reject("session not found", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Authenticated {
		return nil, g.reject("session not authenticated", nil)
	}

	user, err := g.users.GetByID(ctx, session.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, g.reject("session user missing", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	// An expired upstream credential ends the session; there is no refresh here.
	if user.TokenExpired(g.now()) {
		return nil, g.reject("upstream credential expired", nil)
	}

	return &model.Caller{UserID: user.ID, SessionID: session.ID, User: user}, nil
}

// Revoke deletes the session behind token. Unusable tokens are ignored.
func (g *SessionGate) Revoke(ctx context.Context, token string) error {
	sessionID, err := g.parse(token)
	if err != nil {
		return nil
	}
	return g.sessions.Delete(ctx, sessionID)
}

func (g *SessionGate) parse(token string) (string, error) {
	if token == "" {
		return "", errors.New("empty token")
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return "", err
	}
	if claims.SessionID == "" {
		return "", errors.New("missing sid claim")
	}
	return claims.SessionID, nil
}

func (g *SessionGate) reject(reason string, err error) error {
	fields := []zap.Field{zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	g.logger.Debug("session rejected", fields...)
	return model.ErrUnauthenticated
}
