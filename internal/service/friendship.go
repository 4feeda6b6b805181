package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/queue"
	"github.com/Mizu-20/statify/internal/repository"
)

type FriendshipService struct {
	friendshipRepo repository.FriendshipRepository
	userRepo       repository.UserRepository
	publisher      queue.Publisher
	logger         *zap.Logger
}

func NewFriendshipService(
	friendshipRepo repository.FriendshipRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) *FriendshipService {
	return &FriendshipService{
		friendshipRepo: friendshipRepo,
		userRepo:       userRepo,
		publisher:      publisher,
		logger:         logger.With(zap.String("component", "friendship")),
	}
}

// Link makes a and b friends. Linking an existing pair is a no-op.
func (s *FriendshipService) Link(ctx context.Context, a, b int64) error {
	if a == b {
		return model.ErrCannotFriendSelf
	}
	return s.friendshipRepo.Link(ctx, a, b)
}

// Unlink removes the friendship in both directions. model.ErrFriendshipNotFound
// means there was nothing to remove.
func (s *FriendshipService) Unlink(ctx context.Context, caller model.Caller, friendID int64) error {
	changed, err := s.friendshipRepo.Unlink(ctx, caller.UserID, friendID)
	if err != nil {
		return err
	}
	if !changed {
		return model.ErrFriendshipNotFound
	}

	s.logger.Info("friendship removed", zap.Int64("user", caller.UserID), zap.Int64("friend", friendID))
	publish(ctx, s.publisher, s.logger, queue.NewFriendRemovedEvent(caller.UserID, friendID))
	return nil
}

func (s *FriendshipService) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.friendshipRepo.ListFriendIDs(ctx, userID)
}

// ListFriends resolves every friend of userID. Links to users that no longer
// exist are skipped.
func (s *FriendshipService) ListFriends(ctx context.Context, userID int64) ([]model.User, error) {
	ids, err := s.friendshipRepo.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	friends := make([]model.User, 0, len(ids))
	for _, id := range ids {
		u, ok := users[id]
		if !ok {
			s.logger.Warn("skipping stale friend link", zap.Int64("user", userID), zap.Int64("friend", id))
			continue
		}
		friends = append(friends, *u)
	}
	return friends, nil
}
