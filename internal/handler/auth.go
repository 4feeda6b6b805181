package handler

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/httputil"
	"github.com/Mizu-20/statify/internal/service"
	"github.com/Mizu-20/statify/internal/transport/http/middleware"
)

const (
	stateCookie = "oauth_state"
	stateMaxAge = 600
)

// CookieConfig controls the cookies set by the login flow.
type CookieConfig struct {
	Secure      bool
	MaxAge      int // seconds
	FrontendURL string
}

// AuthHandler serves the provider login flow and the session endpoints.
type AuthHandler struct {
	authService *service.AuthService
	cookies     CookieConfig
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, cookies CookieConfig, logger *zap.Logger) *AuthHandler {
	if cookies.FrontendURL == "" {
		cookies.FrontendURL = "/"
	}
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
		logger:      logger.With(zap.String("component", "auth_handler")),
	}
}

// Login returns the provider consent URL and remembers the state in a cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	h.setCookie(w, stateCookie, state, stateMaxAge)

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"url": h.authService.LoginURL(state),
	})
}

// Callback completes the login and redirects back to the frontend.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.setCookie(w, stateCookie, "", -1)

	if e := q.Get("error"); e != "" {
		h.logger.Info("login declined", zap.String("error", e))
		h.redirectFailure(w, r)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		h.logger.Warn("login state mismatch")
		h.redirectFailure(w, r)
		return
	}

	token, _, err := h.authService.Callback(r.Context(), q.Get("code"))
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		h.redirectFailure(w, r)
		return
	}

	h.setCookie(w, middleware.SessionCookie, token, h.cookies.MaxAge)
	http.Redirect(w, r, h.cookies.FrontendURL, http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "No active session"})
		return
	}

	if err := h.authService.Logout(r.Context(), token); err != nil {
		writeServiceError(w, h.logger, err, "Failed to log out")
		return
	}

	h.setCookie(w, middleware.SessionCookie, "", -1)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully"})
}

// Me reports the caller behind the session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          caller.User,
	})
}

func (h *AuthHandler) redirectFailure(w http.ResponseWriter, r *http.Request) {
	target := h.cookies.FrontendURL
	if u, err := url.Parse(target); err == nil {
		q := u.Query()
		q.Set("error", "auth_failure")
		u.RawQuery = q.Encode()
		target = u.String()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
