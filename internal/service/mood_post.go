package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/queue"
	"github.com/Mizu-20/statify/internal/repository"
)

type MoodPostService struct {
	postRepo  repository.MoodPostRepository
	userRepo  repository.UserRepository
	publisher queue.Publisher
	logger    *zap.Logger
}

func NewMoodPostService(
	postRepo repository.MoodPostRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) *MoodPostService {
	return &MoodPostService{
		postRepo:  postRepo,
		userRepo:  userRepo,
		publisher: publisher,
		logger:    logger.With(zap.String("component", "mood_post")),
	}
}

func (s *MoodPostService) Create(ctx context.Context, caller model.Caller, req *model.CreateMoodPostRequest) (*model.MoodPost, error) {
	post, err := validateMoodPost(req)
	if err != nil {
		return nil, err
	}
	post.UserID = caller.UserID

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create mood post: %w", err)
	}

	s.logger.Info("mood post created",
		zap.Int64("post", post.ID),
		zap.Int64("author", post.UserID),
		zap.String("track", post.TrackID),
	)
	publish(ctx, s.publisher, s.logger, queue.NewMoodPostCreatedEvent(post.ID, post.UserID))
	return post, nil
}

func validateMoodPost(req *model.CreateMoodPostRequest) (*model.MoodPost, error) {
	post := &model.MoodPost{
		TrackID:    strings.TrimSpace(req.TrackID),
		TrackName:  strings.TrimSpace(req.TrackName),
		ArtistName: strings.TrimSpace(req.ArtistName),
		AlbumCover: nonEmpty(req.AlbumCover),
		Note:       nonEmpty(req.Note),
	}

	switch {
	case post.TrackID == "":
		return nil, model.NewValidationError("trackId", "is required")
	case post.TrackName == "":
		return nil, model.NewValidationError("trackName", "is required")
	case post.ArtistName == "":
		return nil, model.NewValidationError("artistName", "is required")
	}

	if post.Note != nil && utf8.RuneCountInString(*post.Note) > model.MaxNoteLength {
		return nil, model.NewValidationError("note", fmt.Sprintf("must be at most %d characters", model.MaxNoteLength))
	}

	if req.StartTimeMs != nil {
		if *req.StartTimeMs < 0 {
			return nil, model.NewValidationError("startTimeMs", "must not be negative")
		}
		post.StartTimeMs = *req.StartTimeMs
	}
	return post, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *MoodPostService) GetByID(ctx context.Context, id int64) (*model.MoodPost, error) {
	return s.postRepo.GetByID(ctx, id)
}

// ListByAuthor returns the author's posts, newest first.
func (s *MoodPostService) ListByAuthor(ctx context.Context, authorID int64) ([]model.MoodPost, error) {
	return s.postRepo.ListByAuthor(ctx, authorID)
}

func (s *MoodPostService) ListByAuthorUniqueID(ctx context.Context, uniqueID string) ([]model.MoodPost, error) {
	author, err := s.userRepo.GetByUniqueID(ctx, uniqueID)
	if err != nil {
		return nil, err
	}
	return s.postRepo.ListByAuthor(ctx, author.ID)
}

// Delete removes a post. Only its author may do so.
func (s *MoodPostService) Delete(ctx context.Context, caller model.Caller, postID int64) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != caller.UserID {
		return model.ErrNotPostAuthor
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	s.logger.Info("mood post deleted", zap.Int64("post", postID), zap.Int64("author", caller.UserID))
	publish(ctx, s.publisher, s.logger, queue.NewMoodPostDeletedEvent(postID, caller.UserID))
	return nil
}
