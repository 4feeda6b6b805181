package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/repository"
)

// FeedService builds the friends feed at read time. Nothing is cached: a
// post shows up exactly while its author and the reader are friends, and
// author details always reflect the current profile.
type FeedService struct {
	friendshipRepo repository.FriendshipRepository
	postRepo       repository.MoodPostRepository
	userRepo       repository.UserRepository
	logger         *zap.Logger
}

func NewFeedService(
	friendshipRepo repository.FriendshipRepository,
	postRepo repository.MoodPostRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *FeedService {
	return &FeedService{
		friendshipRepo: friendshipRepo,
		postRepo:       postRepo,
		userRepo:       userRepo,
		logger:         logger.With(zap.String("component", "feed")),
	}
}

func (s *FeedService) FriendsFeed(ctx context.Context, userID int64) ([]model.FeedPost, error) {
	startTime := time.Now()

	friendIDs, err := s.friendshipRepo.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		return []model.FeedPost{}, nil
	}

	authors, err := s.userRepo.GetByIDs(ctx, friendIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(authors))
	for _, id := range friendIDs {
		if _, ok := authors[id]; ok {
			ids = append(ids, id)
		}
	}

	posts, err := s.postRepo.ListByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}
	model.SortNewestFirst(posts)

	feed := make([]model.FeedPost, 0, len(posts))
	for i := range posts {
		summary := authors[posts[i].UserID].Summary()
		feed = append(feed, model.FeedPost{MoodPost: posts[i], User: &summary})
	}

	s.logger.Debug("feed built",
		zap.Int64("user", userID),
		zap.Int("friends", len(ids)),
		zap.Int("posts", len(feed)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return feed, nil
}
