package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/repository"
)

const maxUniqueIDAttempts = 10

// GenerateUniqueID returns a fresh public id. It does not check for collisions.
func GenerateUniqueID() (string, error) {
	return gonanoid.Generate(model.UniqueIDAlphabet, model.UniqueIDLength)
}

// IdentityService owns user records: creation, lookups, profile and search.
type IdentityService struct {
	userRepo       repository.UserRepository
	friendshipRepo repository.FriendshipRepository
	requestRepo    repository.FriendRequestRepository
	logger         *zap.Logger

	newUniqueID func() (string, error)
}

func NewIdentityService(
	userRepo repository.UserRepository,
	friendshipRepo repository.FriendshipRepository,
	requestRepo repository.FriendRequestRepository,
	logger *zap.Logger,
) *IdentityService {
	return &IdentityService{
		userRepo:       userRepo,
		friendshipRepo: friendshipRepo,
		requestRepo:    requestRepo,
		logger:         logger.With(zap.String("component", "identity")),
		newUniqueID:    GenerateUniqueID,
	}
}

// Create stores a new identity under a freshly generated public id. A
// generated id that is already in use is discarded and another one drawn.
func (s *IdentityService) Create(ctx context.Context, nu *model.NewUser) (*model.User, error) {
	for attempt := 1; attempt <= maxUniqueIDAttempts; attempt++ {
		uniqueID, err := s.newUniqueID()
		if err != nil {
			return nil, fmt.Errorf("generate unique id: %w", err)
		}

		if _, err := s.userRepo.GetByUniqueID(ctx, uniqueID); err == nil {
			s.logger.Warn("unique id collision", zap.String("unique_id", uniqueID), zap.Int("attempt", attempt))
			continue
		} else if !errors.Is(err, model.ErrUserNotFound) {
			return nil, fmt.Errorf("check unique id: %w", err)
		}

		user, err := s.userRepo.Create(ctx, nu, uniqueID)
		if errors.Is(err, model.ErrUniqueIDTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		s.logger.Info("user created", zap.Int64("user", user.ID), zap.String("unique_id", user.UniqueID))
		return user, nil
	}
	return nil, model.ErrUniqueIDExhausted
}

// UpsertFromProvider creates or refreshes the identity behind an external
// login. The token expiry is stored in unix seconds.
func (s *IdentityService) UpsertFromProvider(ctx context.Context, pi *model.ProviderIdentity, now time.Time) (*model.User, error) {
	profile := &model.NewUser{
		ExternalID:   pi.ExternalID,
		DisplayName:  pi.DisplayName,
		Email:        pi.Email,
		ProfileImage: pi.ProfileImage,
		Followers:    pi.Followers,
		AccessToken:  pi.AccessToken,
		RefreshToken: pi.RefreshToken,
		TokenExpiry:  now.Unix() + pi.ExpiresIn,
	}
	if profile.DisplayName == "" {
		profile.DisplayName = pi.ExternalID
	}

	existing, err := s.userRepo.GetByExternalID(ctx, pi.ExternalID)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return s.Create(ctx, profile)
	case err != nil:
		return nil, fmt.Errorf("failed to look up external id: %w", err)
	}

	if err := s.UpdateTokens(ctx, existing.ID, profile.AccessToken, profile.RefreshToken, profile.TokenExpiry); err != nil {
		return nil, fmt.Errorf("failed to update tokens: %w", err)
	}
	user, err := s.userRepo.UpdateProfile(ctx, existing.ID, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *IdentityService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *IdentityService) GetByUniqueID(ctx context.Context, uniqueID string) (*model.User, error) {
	return s.userRepo.GetByUniqueID(ctx, uniqueID)
}

func (s *IdentityService) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiry int64) error {
	return s.userRepo.UpdateTokens(ctx, id, accessToken, refreshToken, expiry)
}

func (s *IdentityService) UpdateBio(ctx context.Context, caller model.Caller, bio string) (*model.User, error) {
	if utf8.RuneCountInString(bio) > model.MaxBioLength {
		return nil, model.NewValidationError("bio", fmt.Sprintf("must be at most %d characters", model.MaxBioLength))
	}
	return s.userRepo.UpdateBio(ctx, caller.UserID, bio)
}

// Search matches display names and public ids, leaving the caller out.
// Results are not paginated.
func (s *IdentityService) Search(ctx context.Context, caller model.Caller, query string) ([]model.UserSummary, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < model.MinSearchQueryLength {
		return nil, model.NewValidationError("q", fmt.Sprintf("must be at least %d characters", model.MinSearchQueryLength))
	}

	users, err := s.userRepo.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]model.UserSummary, 0, len(users))
	for i := range users {
		if users[i].ID == caller.UserID {
			continue
		}
		out = append(out, users[i].Summary())
	}
	return out, nil
}

// GetProfile returns the user behind uniqueID together with how they relate
// to the caller.
func (s *IdentityService) GetProfile(ctx context.Context, caller model.Caller, uniqueID string) (*model.Profile, error) {
	user, err := s.userRepo.GetByUniqueID(ctx, uniqueID)
	if err != nil {
		return nil, err
	}

	status, err := s.friendshipStatus(ctx, caller.UserID, user.ID)
	if err != nil {
		return nil, err
	}

	return &model.Profile{
		UserSummary:      user.Summary(),
		Bio:              user.Bio,
		FriendshipStatus: status,
	}, nil
}

func (s *IdentityService) friendshipStatus(ctx context.Context, callerID, otherID int64) (model.FriendshipStatus, error) {
	if callerID == otherID {
		return model.FriendshipNone, nil
	}

	friends, err := s.friendshipRepo.Exists(ctx, callerID, otherID)
	if err != nil {
		return "", err
	}
	if friends {
		return model.FriendshipFriends, nil
	}

	latest, err := s.requestRepo.LatestBetween(ctx, callerID, otherID)
	if errors.Is(err, model.ErrRequestNotFound) {
		return model.FriendshipNone, nil
	}
	if err != nil {
		return "", err
	}

	switch latest.Status {
	case model.RequestPending:
		return model.FriendshipPending, nil
	case model.RequestAccepted:
		return model.FriendshipAccepted, nil
	}
	return model.FriendshipNone, nil
}
