package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/hub"
	"github.com/Mizu-20/statify/internal/queue"
)

// FriendProvider lists a user's friends for fan-out. Workers never touch
// storage directly.
type FriendProvider interface {
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
}

// FriendIDsFunc adapts a plain function to FriendProvider.
type FriendIDsFunc func(ctx context.Context, userID int64) ([]int64, error)

func (f FriendIDsFunc) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	return f(ctx, userID)
}

// Notifier pushes an event to every live connection of a user and returns
// how many received it.
type Notifier interface {
	Notify(userID int64, event hub.Event) int
}

// Handler turns social events into live notifications.
type Handler struct {
	notifier Notifier
	friends  FriendProvider
	logger   *zap.Logger
}

func NewHandler(notifier Notifier, friends FriendProvider, logger *zap.Logger) *Handler {
	return &Handler{
		notifier: notifier,
		friends:  friends,
		logger:   logger.With(zap.String("component", "worker")),
	}
}

// livePayload is what clients receive. It carries ids only; clients refetch.
type livePayload struct {
	ActorID   int64 `json:"actorId"`
	RequestID int64 `json:"requestId,omitempty"`
	PostID    int64 `json:"postId,omitempty"`
	Timestamp int64 `json:"timestamp"`
}

// HandleEvent routes an event to the users it concerns.
func (h *Handler) HandleEvent(ctx context.Context, event queue.SocialEvent) error {
	startTime := time.Now()

	var (
		recipients []int64
		err        error
	)
	switch event.Type {
	case queue.EventFriendRequestSent,
		queue.EventFriendRequestAccepted,
		queue.EventFriendRequestRejected,
		queue.EventFriendRemoved:
		recipients = []int64{event.TargetID}
	case queue.EventMoodPostCreated, queue.EventMoodPostDeleted:
		recipients, err = h.friends.FriendIDs(ctx, event.ActorID)
		if err != nil {
			err = fmt.Errorf("get friends: %w", err)
		}
	default:
		h.logger.Warn("unknown event type", zap.String("type", event.Type))
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
	if err != nil {
		h.logger.Error("handle event failed", zap.String("type", event.Type), zap.Error(err))
		return err
	}

	out := hub.Event{
		Type: event.Type,
		Payload: livePayload{
			ActorID:   event.ActorID,
			RequestID: event.RequestID,
			PostID:    event.PostID,
			Timestamp: event.Timestamp,
		},
	}

	var delivered int
	for _, userID := range recipients {
		if userID == 0 || userID == event.ActorID {
			continue
		}
		delivered += h.notifier.Notify(userID, out)
	}

	h.logger.Debug("event handled",
		zap.String("type", event.Type),
		zap.Int("recipients", len(recipients)),
		zap.Int("delivered", delivered),
		zap.Duration("duration", time.Since(startTime)),
	)
	return nil
}

// Dispatch adapts the handler for in-process publishing.
func (h *Handler) Dispatch() queue.DispatchFunc {
	return h.HandleEvent
}
