package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/httputil"
	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/service"
)

// FriendHandler serves friend requests and the friend list.
type FriendHandler struct {
	requestService    *service.FriendRequestService
	friendshipService *service.FriendshipService
	logger            *zap.Logger
}

func NewFriendHandler(requestService *service.FriendRequestService, friendshipService *service.FriendshipService, logger *zap.Logger) *FriendHandler {
	return &FriendHandler{
		requestService:    requestService,
		friendshipService: friendshipService,
		logger:            logger.With(zap.String("component", "friend_handler")),
	}
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req model.SendFriendRequestRequest
	if err := httputil.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	created, err := h.requestService.Send(r.Context(), caller, req.ReceiverUniqueID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to send friend request")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, created)
}

// ListRequests returns the caller's requests, optionally filtered by ?status=.
func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	status := model.FriendRequestStatus(r.URL.Query().Get("status"))
	views, err := h.requestService.ListForUser(r.Context(), caller, status)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch friend requests")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, views)
}

func (h *FriendHandler) RespondRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	requestID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid request ID")
		return
	}

	var req model.RespondFriendRequestRequest
	if err := httputil.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	updated, err := h.requestService.Respond(r.Context(), caller, requestID, req.Status)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to answer friend request")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	friends, err := h.friendshipService.ListFriends(r.Context(), caller.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch friends")
		return
	}

	out := make([]model.Profile, 0, len(friends))
	for i := range friends {
		out = append(out, model.Profile{
			UserSummary:      friends[i].Summary(),
			Bio:              friends[i].Bio,
			FriendshipStatus: model.FriendshipFriends,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	friendID, err := strconv.ParseInt(chi.URLParam(r, "friendId"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid friend ID")
		return
	}

	if err := h.friendshipService.Unlink(r.Context(), caller, friendID); err != nil {
		writeServiceError(w, h.logger, err, "Failed to remove friend")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
