package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/httputil"
	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/transport/http/middleware"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// writeServiceError maps a service error onto the HTTP error taxonomy.
// Unclassified errors are logged and reported as 500 with fallback.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		httputil.WriteValidationError(w, ve.Field, ve.Error())

	case errors.Is(err, model.ErrUnauthenticated):
		httputil.WriteUnauthorized(w, "Not authenticated")

	case errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrRequestNotFound),
		errors.Is(err, model.ErrFriendshipNotFound),
		errors.Is(err, model.ErrMoodPostNotFound):
		httputil.WriteNotFound(w, err.Error())

	case errors.Is(err, model.ErrCannotFriendSelf),
		errors.Is(err, model.ErrAlreadyFriends),
		errors.Is(err, model.ErrRequestPending),
		errors.Is(err, model.ErrRequestNotPending):
		httputil.WriteConflict(w, err.Error())

	case errors.Is(err, model.ErrNotRequestReceiver),
		errors.Is(err, model.ErrNotPostAuthor):
		httputil.WriteForbidden(w, err.Error())

	case errors.Is(err, model.ErrUpstream):
		logger.Warn("upstream failure", zap.Error(err))
		httputil.WriteBadGateway(w, "Music service request failed")

	default:
		logger.Error(fallback, zap.Error(err))
		httputil.WriteInternalError(w, fallback)
	}
}

// requireCaller reads the caller set by the auth middleware.
func requireCaller(w http.ResponseWriter, r *http.Request) (model.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return model.Caller{}, false
	}
	return caller, true
}
