package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/hub"
	"github.com/Mizu-20/statify/internal/transport/http/middleware"
)

// LiveHandler upgrades GET /api/ws to a websocket carrying social events.
// A session cookie or bearer token authenticates at upgrade time; otherwise
// the peer may send {"type":"auth","token":...} afterwards.
type LiveHandler struct {
	hub      *hub.Hub
	resolver middleware.CallerResolver
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewLiveHandler(h *hub.Hub, resolver middleware.CallerResolver, allowedOrigin string, logger *zap.Logger) *LiveHandler {
	return &LiveHandler{
		hub:      h,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOriginOr(allowedOrigin),
		},
		logger:   logger.With(zap.String("component", "live_handler")),
	}
}

func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if caller, ok := middleware.CallerFromContext(r.Context()); ok {
		userID = caller.UserID
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	hub.NewClient(h.hub, ws, h.authenticate).Serve(r.Context(), userID)
}

// sameOriginOr accepts same-host origins and the configured frontend origin.
func sameOriginOr(allowed string) func(r *http.Request) bool {
	var allowedOrigin string
	if u, err := url.Parse(allowed); err == nil && u.Scheme != "" && u.Host != "" {
		allowedOrigin = u.Scheme + "://" + u.Host
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return allowedOrigin != "" && strings.EqualFold(origin, allowedOrigin)
	}
}

func (h *LiveHandler) authenticate(ctx context.Context, token string) (int64, error) {
	caller, err := h.resolver.Resolve(ctx, token)
	if err != nil {
		return 0, err
	}
	return caller.UserID, nil
}
