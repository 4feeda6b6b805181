package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/model"
)

// OAuthProvider is the external authentication provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*model.ProviderIdentity, error)
}

// AuthService turns a provider callback into a local identity and session.
type AuthService struct {
	provider OAuthProvider
	identity *IdentityService
	gate     *SessionGate
	now      func() time.Time
	logger   *zap.Logger
}

func NewAuthService(provider OAuthProvider, identity *IdentityService, gate *SessionGate, logger *zap.Logger) *AuthService {
	return &AuthService{
		provider: provider,
		identity: identity,
		gate:     gate,
		now:      time.Now,
		logger:   logger.With(zap.String("component", "auth")),
	}
}

func (s *AuthService) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// Callback exchanges code with the provider, upserts the identity and opens
// a session. It returns the session token.
func (s *AuthService) Callback(ctx context.Context, code string) (string, *model.User, error) {
	if code == "" {
		return "", nil, model.NewValidationError("code", "is required")
	}

	pi, err := s.provider.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrUpstream) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("%w: token exchange: %v", model.ErrUpstream, err)
	}

	user, err := s.identity.UpsertFromProvider(ctx, pi, s.now())
	if err != nil {
		return "", nil, err
	}

	token, _, err := s.gate.Issue(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("login", zap.Int64("user", user.ID), zap.String("unique_id", user.UniqueID))
	return token, user, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.gate.Revoke(ctx, token)
}
