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

type MoodPostHandler struct {
	moodPostService *service.MoodPostService
	logger          *zap.Logger
}

func NewMoodPostHandler(moodPostService *service.MoodPostService, logger *zap.Logger) *MoodPostHandler {
	return &MoodPostHandler{
		moodPostService: moodPostService,
		logger:          logger.With(zap.String("component", "mood_post_handler")),
	}
}

func (h *MoodPostHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req model.CreateMoodPostRequest
	if err := httputil.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.moodPostService.Create(r.Context(), caller, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create mood post")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

func (h *MoodPostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	postID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	if err := h.moodPostService.Delete(r.Context(), caller, postID); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete mood post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
