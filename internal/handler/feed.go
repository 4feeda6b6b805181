package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/httputil"
	"github.com/Mizu-20/statify/internal/service"
)

type FeedHandler struct {
	feedService *service.FeedService
	logger      *zap.Logger
}

func NewFeedHandler(feedService *service.FeedService, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		logger:      logger.With(zap.String("component", "feed_handler")),
	}
}

// GetFeed handles GET /api/friends/mood-posts.
// Returns every post by the caller's friends, newest first.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	feed, err := h.feedService.FriendsFeed(r.Context(), caller.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}
