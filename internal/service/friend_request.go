package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/queue"
	"github.com/Mizu-20/statify/internal/repository"
)

// FriendRequestService runs the request state machine:
// pending -> accepted | rejected, decided by the receiver only.
type FriendRequestService struct {
	requestRepo repository.FriendRequestRepository
	userRepo    repository.UserRepository
	publisher   queue.Publisher
	logger      *zap.Logger
}

func NewFriendRequestService(
	requestRepo repository.FriendRequestRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) *FriendRequestService {
	return &FriendRequestService{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		logger:      logger.With(zap.String("component", "friend_request")),
	}
}

// Send creates a pending request from the caller to the user with the given
// public id. A rejected earlier request does not stand in the way.
func (s *FriendRequestService) Send(ctx context.Context, caller model.Caller, receiverUniqueID string) (*model.FriendRequest, error) {
	startTime := time.Now()

	receiverUniqueID = strings.TrimSpace(receiverUniqueID)
	if receiverUniqueID == "" {
		return nil, model.NewValidationError("receiverUniqueId", "is required")
	}

	receiver, err := s.userRepo.GetByUniqueID(ctx, receiverUniqueID)
	if err != nil {
		return nil, err
	}

	if receiver.ID == caller.UserID {
		return nil, model.ErrCannotFriendSelf
	}

	req, err := s.requestRepo.CreatePending(ctx, caller.UserID, receiver.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("friend request sent",
		zap.Int64("request", req.ID),
		zap.Int64("sender", caller.UserID),
		zap.Int64("receiver", receiver.ID),
		zap.Duration("duration", time.Since(startTime)),
	)

	publish(ctx, s.publisher, s.logger, queue.NewFriendRequestSentEvent(req.ID, caller.UserID, receiver.ID))
	return req, nil
}

// Respond records the receiver's decision. Accepting links the pair in the
// same atomic step.
func (s *FriendRequestService) Respond(ctx context.Context, caller model.Caller, requestID int64, decision model.FriendRequestStatus) (*model.FriendRequest, error) {
	if !decision.IsDecision() {
		return nil, model.NewValidationError("status", "must be accepted or rejected")
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.ReceiverID != caller.UserID {
		return nil, model.ErrNotRequestReceiver
	}

	updated, err := s.requestRepo.Resolve(ctx, requestID, decision)
	if err != nil {
		return nil, err
	}

	s.logger.Info("friend request answered",
		zap.Int64("request", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.Int64("sender", updated.SenderID),
		zap.Int64("receiver", updated.ReceiverID),
	)

	publish(ctx, s.publisher, s.logger, queue.NewFriendRequestAnsweredEvent(
		updated.ID, updated.ReceiverID, updated.SenderID, decision == model.RequestAccepted))
	return updated, nil
}

// ListForUser returns every request the user is party to, newest first,
// optionally narrowed to one status. Each entry carries the other party.
func (s *FriendRequestService) ListForUser(ctx context.Context, caller model.Caller, status model.FriendRequestStatus) ([]model.FriendRequestView, error) {
	if status != "" && !status.Valid() {
		return nil, model.NewValidationError("status", "must be pending, accepted or rejected")
	}

	requests, err := s.requestRepo.ListByUser(ctx, caller.UserID, status)
	if err != nil {
		return nil, err
	}

	otherIDs := make([]int64, 0, len(requests))
	for i := range requests {
		otherIDs = append(otherIDs, requests[i].OtherParty(caller.UserID))
	}
	users, err := s.userRepo.GetByIDs(ctx, otherIDs)
	if err != nil {
		return nil, err
	}

	views := make([]model.FriendRequestView, 0, len(requests))
	for i := range requests {
		req := &requests[i]
		view := model.FriendRequestView{
			ID:        req.ID,
			Status:    req.Status,
			CreatedAt: req.CreatedAt,
			IsSender:  req.SenderID == caller.UserID,
		}
		if other, ok := users[req.OtherParty(caller.UserID)]; ok {
			summary := other.Summary()
			view.User = &summary
		}
		views = append(views, view)
	}
	return views, nil
}
