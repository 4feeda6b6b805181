package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/httputil"
	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/service"
)

type UserHandler struct {
	identityService *service.IdentityService
	moodPostService *service.MoodPostService
	logger          *zap.Logger
}

func NewUserHandler(identityService *service.IdentityService, moodPostService *service.MoodPostService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		identityService: identityService,
		moodPostService: moodPostService,
		logger:          logger.With(zap.String("component", "user_handler")),
	}
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	users, err := h.identityService.Search(r.Context(), caller, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to search users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, users)
}

// GetProfile returns a user by public id with their relation to the caller.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	profile, err := h.identityService.GetProfile(r.Context(), caller, chi.URLParam(r, "uniqueId"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) GetMoodPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.moodPostService.ListByAuthorUniqueID(r.Context(), chi.URLParam(r, "uniqueId"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch mood posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, posts)
}

// UpdateProfile sets the caller's bio. The bio must be a JSON string.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if err := httputil.DecodeJSON(w, r, maxBodyBytes, &req); err != nil || req.Bio == nil {
		httputil.WriteValidationError(w, "bio", "Invalid bio format")
		return
	}

	user, err := h.identityService.UpdateBio(r.Context(), caller, *req.Bio)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.Profile{
		UserSummary: user.Summary(),
		Bio:         user.Bio,
	})
}
