package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/httputil"
	"github.com/Mizu-20/statify/internal/model"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session"

type contextKey string

const callerKey contextKey = "caller"

// CallerResolver maps a session token to the caller it belongs to.
type CallerResolver interface {
	Resolve(ctx context.Context, token string) (*model.Caller, error)
}

// TokenFromRequest reads the session token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireCaller rejects requests without a usable session with 401.
func RequireCaller(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := resolver.Resolve(r.Context(), TokenFromRequest(r))
			if err != nil {
				if errors.Is(err, model.ErrUnauthenticated) {
					httputil.WriteUnauthorized(w, "Not authenticated")
					return
				}
				zap.L().Error("session lookup failed", zap.Error(err))
				httputil.WriteInternalError(w, "Failed to resolve session")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// OptionalCaller attaches the caller when the request carries a usable
// session and passes it through untouched otherwise.
func OptionalCaller(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token != "" {
				if caller, err := resolver.Resolve(r.Context(), token); err == nil {
					r = r.WithContext(WithCaller(r.Context(), caller))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithCaller(ctx context.Context, caller *model.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the caller attached by RequireCaller or OptionalCaller.
func CallerFromContext(ctx context.Context) (model.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(*model.Caller)
	if !ok || caller == nil {
		return model.Caller{}, false
	}
	return *caller, true
}
