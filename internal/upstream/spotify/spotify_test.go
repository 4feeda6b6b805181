package spotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Mizu-20/statify/internal/model"
)

func TestClient_Get(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		switch r.URL.Path {
		case "/me/top/artists":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"items":[{"name":"Artist"}]}`))
		case "/me/player/currently-playing":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	t.Run("passes body through", func(t *testing.T) {
		body, err := c.Get(ctx, "tok", "/me/top/artists", url.Values{"limit": {"5"}})
		require.NoError(t, err)
		assert.JSONEq(t, `{"items":[{"name":"Artist"}]}`, string(body))
		assert.Equal(t, "Bearer tok", gotAuth)
		assert.Equal(t, "limit=5", gotQuery)
	})

	t.Run("no content", func(t *testing.T) {
		body, err := c.Get(ctx, "tok", "/me/player/currently-playing", nil)
		require.NoError(t, err)
		assert.Nil(t, body)
	})

	t.Run("upstream error", func(t *testing.T) {
		_, err := c.Get(ctx, "tok", "/me/unknown", nil)
		assert.ErrorIs(t, err, model.ErrUpstream)
	})
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewClient(base, time.Second).Get(context.Background(), "tok", "/me", nil)
	assert.ErrorIs(t, err, model.ErrUpstream)
}

func newAccountsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "spotify-user",
			"display_name": "Listener",
			"email": "listener@example.com",
			"images": [{"url": "https://img.example/1.jpg"}],
			"followers": {"total": 12}
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAuthenticator(srv *httptest.Server) *Authenticator {
	return NewAuthenticator(OAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/auth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/authorize",
			TokenURL: srv.URL + "/api/token",
		},
	}, NewClient(srv.URL+"/v1", 5*time.Second))
}

func TestAuthenticator_AuthCodeURL(t *testing.T) {
	srv := newAccountsServer(t)
	a := newTestAuthenticator(srv)

	u, err := url.Parse(a.AuthCodeURL("state-123"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, strings.Join(Scopes, " "), q.Get("scope"))
}

func TestAuthenticator_Exchange(t *testing.T) {
	srv := newAccountsServer(t)
	a := newTestAuthenticator(srv)

	pi, err := a.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "spotify-user", pi.ExternalID)
	assert.Equal(t, "Listener", pi.DisplayName)
	require.NotNil(t, pi.Email)
	assert.Equal(t, "listener@example.com", *pi.Email)
	require.NotNil(t, pi.ProfileImage)
	assert.Equal(t, "https://img.example/1.jpg", *pi.ProfileImage)
	assert.Equal(t, 12, pi.Followers)
	assert.Equal(t, "access-1", pi.AccessToken)
	assert.Equal(t, "refresh-1", pi.RefreshToken)
	assert.InDelta(t, 3600, pi.ExpiresIn, 5)
}

func TestAuthenticator_ExchangeRejected(t *testing.T) {
	srv := newAccountsServer(t)
	a := newTestAuthenticator(srv)

	_, err := a.Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, model.ErrUpstream)
}
