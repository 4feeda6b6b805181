package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/handler"
	"github.com/Mizu-20/statify/internal/hub"
	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/queue"
	"github.com/Mizu-20/statify/internal/repository/memory"
	"github.com/Mizu-20/statify/internal/service"
	"github.com/Mizu-20/statify/internal/worker"
)

// fakeProvider logs in whoever the code names: code "alice" yields the
// external account "ext-alice".
type fakeProvider struct{}

func (fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example/authorize?state=" + url.QueryEscape(state)
}

func (fakeProvider) Exchange(ctx context.Context, code string) (*model.ProviderIdentity, error) {
	if code == "broken" {
		return nil, fmt.Errorf("%w: exchange refused", model.ErrUpstream)
	}
	return &model.ProviderIdentity{
		ExternalID:   "ext-" + code,
		DisplayName:  strings.ToUpper(code[:1]) + code[1:],
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		ExpiresIn:    3600,
	}, nil
}

type fakeCatalog struct {
	bodies map[string]json.RawMessage
	err    error
}

func (f *fakeCatalog) Get(ctx context.Context, accessToken, path string, query url.Values) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bodies[path], nil
}

type testApp struct {
	server  *httptest.Server
	catalog *fakeCatalog
	hub     *hub.Hub
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := zap.NewNop()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	requests := memory.NewFriendRequestRepository(store)
	friendships := memory.NewFriendshipRepository(store)
	posts := memory.NewMoodPostRepository(store)

	liveHub := hub.New(log)
	publisher := queue.NewInProcessPublisher(
		worker.NewHandler(liveHub, worker.FriendIDsFunc(friendships.ListFriendIDs), log).Dispatch())

	identity := service.NewIdentityService(users, friendships, requests, log)
	gate := service.NewSessionGate(memory.NewSessionRepository(store), users, "test-secret", time.Hour, log)
	moodPosts := service.NewMoodPostService(posts, users, publisher, log)
	catalog := &fakeCatalog{bodies: map[string]json.RawMessage{
		"/me/top/artists": json.RawMessage(`{"items":[{"name":"Artist"}]}`),
	}}

	router := NewRouter(RouterConfig{
		AuthHandler: handler.NewAuthHandler(
			service.NewAuthService(fakeProvider{}, identity, gate, log),
			handler.CookieConfig{MaxAge: 3600, FrontendURL: "/"}, log),
		UserHandler:     handler.NewUserHandler(identity, moodPosts, log),
		FriendHandler:   handler.NewFriendHandler(service.NewFriendRequestService(requests, users, publisher, log), service.NewFriendshipService(friendships, users, publisher, log), log),
		MoodPostHandler: handler.NewMoodPostHandler(moodPosts, log),
		FeedHandler:     handler.NewFeedHandler(service.NewFeedService(friendships, posts, users, log), log),
		CatalogHandler:  handler.NewCatalogHandler(service.NewCatalogService(catalog, log), log),
		LiveHandler:     handler.NewLiveHandler(liveHub, gate, "/", log),
		Resolver:        gate,
		Logger:          log,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testApp{server: srv, catalog: catalog, hub: liveHub}
}

type session struct {
	token string
	user  model.User
}

// login runs the OAuth round trip and returns the session token.
func (a *testApp) login(t *testing.T, code string) session {
	t.Helper()
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	resp, err := client.Get(a.server.URL + "/api/auth/login")
	require.NoError(t, err)
	var body struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()

	u, err := url.Parse(body.URL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	var stateCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "oauth_state" {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie)

	req, _ := http.NewRequest(http.MethodGet, a.server.URL+"/api/auth/callback?code="+code+"&state="+state, nil)
	req.AddCookie(stateCookie)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	var token string
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	var me struct {
		Authenticated bool       `json:"authenticated"`
		User          model.User `json:"user"`
	}
	status := a.do(t, token, http.MethodGet, "/api/auth/me", nil, &me)
	require.Equal(t, http.StatusOK, status)
	require.True(t, me.Authenticated)
	return session{token: token, user: me.User}
}

func (a *testApp) do(t *testing.T, token, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, r)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, app.do(t, "", http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/auth/me", "/api/friends", "/api/friends/mood-posts", "/api/users/search?q=ab", "/api/me/top/artists"} {
		var e errorBody
		status := app.do(t, "", http.MethodGet, path, nil, &e)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, "UNAUTHORIZED", e.Error.Code, path)
	}

	var e errorBody
	assert.Equal(t, http.StatusUnauthorized, app.do(t, "forged", http.MethodGet, "/api/friends", nil, &e))
}

func TestCallbackRejectsBadState(t *testing.T) {
	app := newTestApp(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	resp, err := client.Get(app.server.URL + "/api/auth/callback?code=alice&state=forged")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/?error=auth_failure", resp.Header.Get("Location"))
	for _, c := range resp.Cookies() {
		assert.NotEqual(t, "session", c.Name)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	app := newTestApp(t)
	alice := app.login(t, "alice")

	assert.Equal(t, http.StatusOK, app.do(t, alice.token, http.MethodPost, "/api/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, app.do(t, alice.token, http.MethodGet, "/api/auth/me", nil, nil))
}

func TestFriendshipFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)
	alice := app.login(t, "alice")
	bob := app.login(t, "bob")

	// search finds bob by display name and never returns the caller
	var found []model.UserSummary
	require.Equal(t, http.StatusOK, app.do(t, alice.token, http.MethodGet, "/api/users/search?q=bo", nil, &found))
	require.Len(t, found, 1)
	assert.Equal(t, bob.user.UniqueID, found[0].UniqueID)

	var e errorBody
	assert.Equal(t, http.StatusBadRequest, app.do(t, alice.token, http.MethodGet, "/api/users/search?q=b", nil, &e))

	// send
	var created model.FriendRequest
	status := app.do(t, alice.token, http.MethodPost, "/api/friends/requests",
		map[string]string{"receiverUniqueId": bob.user.UniqueID}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, model.RequestPending, created.Status)

	assert.Equal(t, http.StatusConflict, app.do(t, bob.token, http.MethodPost, "/api/friends/requests",
		map[string]string{"receiverUniqueId": alice.user.UniqueID}, &e))
	assert.Equal(t, http.StatusConflict, app.do(t, alice.token, http.MethodPost, "/api/friends/requests",
		map[string]string{"receiverUniqueId": alice.user.UniqueID}, &e))
	assert.Equal(t, http.StatusNotFound, app.do(t, alice.token, http.MethodPost, "/api/friends/requests",
		map[string]string{"receiverUniqueId": "ZZZZZZZZ"}, &e))

	// profile reflects the pending request
	var profile model.Profile
	require.Equal(t, http.StatusOK, app.do(t, alice.token, http.MethodGet, "/api/users/"+bob.user.UniqueID, nil, &profile))
	assert.Equal(t, model.FriendshipPending, profile.FriendshipStatus)

	// bob sees it as received
	var views []model.FriendRequestView
	require.Equal(t, http.StatusOK, app.do(t, bob.token, http.MethodGet, "/api/friends/requests?status=pending", nil, &views))
	require.Len(t, views, 1)
	assert.False(t, views[0].IsSender)
	assert.Equal(t, alice.user.UniqueID, views[0].User.UniqueID)

	path := fmt.Sprintf("/api/friends/requests/%d", created.ID)
	assert.Equal(t, http.StatusForbidden, app.do(t, alice.token, http.MethodPatch, path, map[string]string{"status": "accepted"}, &e))
	assert.Equal(t, http.StatusBadRequest, app.do(t, bob.token, http.MethodPatch, path, map[string]string{"status": "maybe"}, &e))
	require.Equal(t, http.StatusOK, app.do(t, bob.token, http.MethodPatch, path, map[string]string{"status": "accepted"}, nil))
	assert.Equal(t, http.StatusConflict, app.do(t, bob.token, http.MethodPatch, path, map[string]string{"status": "rejected"}, &e))

	var friends []model.Profile
	require.Equal(t, http.StatusOK, app.do(t, alice.token, http.MethodGet, "/api/friends", nil, &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, bob.user.ID, friends[0].ID)

	// bob posts; alice sees it in her feed
	var post model.MoodPost
	require.Equal(t, http.StatusCreated, app.do(t, bob.token, http.MethodPost, "/api/mood-posts", map[string]any{
		"trackId": "t1", "trackName": "Song", "artistName": "Band", "note": "on repeat",
	}, &post))

	var feed []model.FeedPost
	require.Equal(t, http.StatusOK, app.do(t, alice.token, http.MethodGet, "/api/friends/mood-posts", nil, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, post.ID, feed[0].ID)
	assert.Equal(t, bob.user.UniqueID, feed[0].User.UniqueID)

	var timeline []model.MoodPost
	require.Equal(t, http.StatusOK, app.do(t, alice.token, http.MethodGet, "/api/users/"+bob.user.UniqueID+"/mood-posts", nil, &timeline))
	assert.Len(t, timeline, 1)

	// only the author may delete
	postPath := fmt.Sprintf("/api/mood-posts/%d", post.ID)
	assert.Equal(t, http.StatusForbidden, app.do(t, alice.token, http.MethodDelete, postPath, nil, &e))

	// unfriend empties the feed; a second removal is 404
	friendPath := fmt.Sprintf("/api/friends/%d", bob.user.ID)
	require.Equal(t, http.StatusOK, app.do(t, alice.token, http.MethodDelete, friendPath, nil, nil))
	assert.Equal(t, http.StatusNotFound, app.do(t, alice.token, http.MethodDelete, friendPath, nil, &e))

	feed = nil
	require.Equal(t, http.StatusOK, app.do(t, alice.token, http.MethodGet, "/api/friends/mood-posts", nil, &feed))
	assert.Empty(t, feed)

	require.Equal(t, http.StatusOK, app.do(t, bob.token, http.MethodDelete, postPath, nil, nil))
	assert.Equal(t, http.StatusNotFound, app.do(t, bob.token, http.MethodDelete, postPath, nil, &e))
}

func TestUpdateProfileRequiresStringBio(t *testing.T) {
	app := newTestApp(t)
	alice := app.login(t, "alice")

	var e errorBody
	assert.Equal(t, http.StatusBadRequest, app.do(t, alice.token, http.MethodPatch, "/api/me/profile", map[string]any{"bio": 42}, &e))
	assert.Equal(t, http.StatusBadRequest, app.do(t, alice.token, http.MethodPatch, "/api/me/profile", map[string]any{}, &e))

	var profile model.Profile
	require.Equal(t, http.StatusOK, app.do(t, alice.token, http.MethodPatch, "/api/me/profile", map[string]any{"bio": "hello"}, &profile))
	assert.Equal(t, "hello", profile.Bio)
}

func TestCatalogPassThrough(t *testing.T) {
	app := newTestApp(t)
	alice := app.login(t, "alice")

	var top map[string]any
	require.Equal(t, http.StatusOK, app.do(t, alice.token, http.MethodGet, "/api/me/top/artists?time_range=short_term", nil, &top))
	assert.Contains(t, top, "items")

	var e errorBody
	assert.Equal(t, http.StatusBadRequest, app.do(t, alice.token, http.MethodGet, "/api/me/top/artists?limit=99", nil, &e))

	var playing any = "sentinel"
	require.Equal(t, http.StatusOK, app.do(t, alice.token, http.MethodGet, "/api/me/player/currently-playing", nil, &playing))
	assert.Nil(t, playing)

	app.catalog.err = fmt.Errorf("%w: 503", model.ErrUpstream)
	assert.Equal(t, http.StatusBadGateway, app.do(t, alice.token, http.MethodGet, "/api/me/top/tracks", nil, &e))
	assert.Equal(t, "UPSTREAM_ERROR", e.Error.Code)
}
