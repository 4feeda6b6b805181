package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/repository/memory"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type social struct {
	clock       *testClock
	identity    *IdentityService
	requests    *FriendRequestService
	friendships *FriendshipService
	posts       *MoodPostService
	feed        *FeedService
	publisher   *recordingPublisher
}

func newSocial(t *testing.T) *social {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithClock(clock.Now))
	users := memory.NewUserRepository(store)
	requests := memory.NewFriendRequestRepository(store)
	friendships := memory.NewFriendshipRepository(store)
	posts := memory.NewMoodPostRepository(store)
	pub := &recordingPublisher{}
	log := zap.NewNop()

	return &social{
		clock:       clock,
		identity:    NewIdentityService(users, friendships, requests, log),
		requests:    NewFriendRequestService(requests, users, pub, log),
		friendships: NewFriendshipService(friendships, users, pub, log),
		posts:       NewMoodPostService(posts, users, pub, log),
		feed:        NewFeedService(friendships, posts, users, log),
		publisher:   pub,
	}
}

func (s *social) user(t *testing.T, name string) model.Caller {
	t.Helper()
	u, err := s.identity.Create(context.Background(), &model.NewUser{ExternalID: "ext-" + name, DisplayName: name})
	require.NoError(t, err)
	return model.Caller{UserID: u.ID, User: u}
}

func (s *social) befriend(t *testing.T, a, b model.Caller) {
	t.Helper()
	ctx := context.Background()
	req, err := s.requests.Send(ctx, a, b.User.UniqueID)
	require.NoError(t, err)
	_, err = s.requests.Respond(ctx, b, req.ID, model.RequestAccepted)
	require.NoError(t, err)
}

func (s *social) post(t *testing.T, author model.Caller, track string) *model.MoodPost {
	t.Helper()
	p, err := s.posts.Create(context.Background(), author, &model.CreateMoodPostRequest{
		TrackID: track, TrackName: "Track " + track, ArtistName: "Artist",
	})
	require.NoError(t, err)
	return p
}

func friendIDs(t *testing.T, s *social, userID int64) []int64 {
	t.Helper()
	friends, err := s.friendships.ListFriends(context.Background(), userID)
	require.NoError(t, err)
	ids := []int64{}
	for _, f := range friends {
		ids = append(ids, f.ID)
	}
	return ids
}

func feedTracks(t *testing.T, s *social, userID int64) []string {
	t.Helper()
	feed, err := s.feed.FriendsFeed(context.Background(), userID)
	require.NoError(t, err)
	tracks := []string{}
	for _, p := range feed {
		tracks = append(tracks, p.TrackID)
	}
	return tracks
}

// =============================================================================
// END TO END
// =============================================================================

func TestScenario_RequestAcceptPostUnlink(t *testing.T) {
	s := newSocial(t)
	ctx := context.Background()
	a := s.user(t, "A")
	b := s.user(t, "B")

	req, err := s.requests.Send(ctx, a, b.User.UniqueID)
	require.NoError(t, err)

	pending, err := s.requests.ListForUser(ctx, b, model.RequestPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.False(t, pending[0].IsSender)
	assert.Equal(t, a.UserID, pending[0].User.ID)

	_, err = s.requests.Respond(ctx, b, req.ID, model.RequestAccepted)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.UserID}, friendIDs(t, s, a.UserID))
	assert.Equal(t, []int64{a.UserID}, friendIDs(t, s, b.UserID))

	s.post(t, b, "t1")
	feed, err := s.feed.FriendsFeed(ctx, a.UserID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "t1", feed[0].TrackID)
	assert.Equal(t, b.UserID, feed[0].User.ID)

	require.NoError(t, s.friendships.Unlink(ctx, a, b.UserID))
	assert.Empty(t, feedTracks(t, s, a.UserID))
	assert.Empty(t, friendIDs(t, s, a.UserID))
	assert.Empty(t, friendIDs(t, s, b.UserID))

	err = s.friendships.Unlink(ctx, a, b.UserID)
	assert.ErrorIs(t, err, model.ErrFriendshipNotFound)
}

func TestScenario_SendRules(t *testing.T) {
	s := newSocial(t)
	ctx := context.Background()
	a := s.user(t, "A")
	b := s.user(t, "B")

	_, err := s.requests.Send(ctx, a, a.User.UniqueID)
	assert.ErrorIs(t, err, model.ErrCannotFriendSelf)

	req, err := s.requests.Send(ctx, a, b.User.UniqueID)
	require.NoError(t, err)

	_, err = s.requests.Send(ctx, b, a.User.UniqueID)
	assert.ErrorIs(t, err, model.ErrRequestPending, "reverse direction is also pending")

	_, err = s.requests.Respond(ctx, a, req.ID, model.RequestAccepted)
	assert.ErrorIs(t, err, model.ErrNotRequestReceiver)

	_, err = s.requests.Respond(ctx, b, req.ID, model.RequestRejected)
	require.NoError(t, err)

	_, err = s.requests.Respond(ctx, b, req.ID, model.RequestAccepted)
	assert.ErrorIs(t, err, model.ErrRequestNotPending)

	// rejection does not block a new request
	again, err := s.requests.Send(ctx, a, b.User.UniqueID)
	require.NoError(t, err)
	_, err = s.requests.Respond(ctx, b, again.ID, model.RequestAccepted)
	require.NoError(t, err)

	_, err = s.requests.Send(ctx, b, a.User.UniqueID)
	assert.ErrorIs(t, err, model.ErrAlreadyFriends)

	// the accepted request still blocks the pair after removal
	require.NoError(t, s.friendships.Unlink(ctx, b, a.UserID))
	_, err = s.requests.Send(ctx, b, a.User.UniqueID)
	assert.ErrorIs(t, err, model.ErrAlreadyFriends)
	_, err = s.requests.Send(ctx, a, b.User.UniqueID)
	assert.ErrorIs(t, err, model.ErrAlreadyFriends)

	accepted, err := s.requests.ListForUser(ctx, a, model.RequestAccepted)
	require.NoError(t, err)
	assert.Len(t, accepted, 1)
}

func TestScenario_ConcurrentSendsCreateOnePending(t *testing.T) {
	s := newSocial(t)
	ctx := context.Background()
	a := s.user(t, "A")
	b := s.user(t, "B")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := a, b
			if i%2 == 0 {
				from, to = b, a
			}
			_, err := s.requests.Send(ctx, from, to.User.UniqueID)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, model.ErrRequestPending) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)

	pending, err := s.requests.ListForUser(ctx, a, model.RequestPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

// =============================================================================
// FEED
// =============================================================================

func TestFeed_ScopedToFriendsAndOrdered(t *testing.T) {
	s := newSocial(t)
	ctx := context.Background()
	x := s.user(t, "X")
	y := s.user(t, "Y")
	z := s.user(t, "Z")
	w := s.user(t, "W")
	s.befriend(t, y, x)
	s.befriend(t, y, w)

	s.post(t, x, "x1")
	s.clock.Advance(time.Minute)
	s.post(t, w, "w1")
	s.clock.Advance(time.Minute)
	s.post(t, x, "x2")
	s.post(t, y, "own") // never in the author's own feed

	assert.Equal(t, []string{"x2", "w1", "x1"}, feedTracks(t, s, y.UserID))
	assert.Equal(t, []string{"own"}, feedTracks(t, s, x.UserID))
	assert.Empty(t, feedTracks(t, s, z.UserID))

	feed, err := s.feed.FriendsFeed(ctx, z.UserID)
	require.NoError(t, err)
	assert.NotNil(t, feed, "zero friends gives an empty list, not nil")
}

func TestFeed_ReflectsProfileEdits(t *testing.T) {
	s := newSocial(t)
	ctx := context.Background()
	a := s.user(t, "A")
	b := s.user(t, "B")
	s.befriend(t, a, b)
	s.post(t, b, "t1")

	_, err := s.identity.UpsertFromProvider(ctx, &model.ProviderIdentity{
		ExternalID:  "ext-B",
		DisplayName: "B renamed",
		ExpiresIn:   3600,
	}, time.Now())
	require.NoError(t, err)

	feed, err := s.feed.FriendsFeed(ctx, a.UserID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "B renamed", feed[0].User.DisplayName)
}

// =============================================================================
// MOOD POSTS
// =============================================================================

func TestMoodPost_Validation(t *testing.T) {
	s := newSocial(t)
	a := s.user(t, "A")
	negative := int64(-1)

	tests := []struct {
		name  string
		req   model.CreateMoodPostRequest
		field string
	}{
		{"missing track id", model.CreateMoodPostRequest{TrackName: "n", ArtistName: "a"}, "trackId"},
		{"missing track name", model.CreateMoodPostRequest{TrackID: "t", ArtistName: "a"}, "trackName"},
		{"missing artist", model.CreateMoodPostRequest{TrackID: "t", TrackName: "n"}, "artistName"},
		{"negative offset", model.CreateMoodPostRequest{TrackID: "t", TrackName: "n", ArtistName: "a", StartTimeMs: &negative}, "startTimeMs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.posts.Create(context.Background(), a, &tt.req)
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestMoodPost_DefaultsAndServerTimestamp(t *testing.T) {
	s := newSocial(t)
	a := s.user(t, "A")

	p := s.post(t, a, "t1")
	assert.Equal(t, int64(0), p.StartTimeMs)
	assert.Equal(t, s.clock.Now(), p.CreatedAt)
	assert.Equal(t, a.UserID, p.UserID)
}

func TestMoodPost_DeleteOwnership(t *testing.T) {
	s := newSocial(t)
	ctx := context.Background()
	a := s.user(t, "A")
	b := s.user(t, "B")
	p := s.post(t, a, "t1")

	err := s.posts.Delete(ctx, b, p.ID)
	assert.ErrorIs(t, err, model.ErrNotPostAuthor)

	_, err = s.posts.GetByID(ctx, p.ID)
	assert.NoError(t, err, "post survives a forbidden delete")

	require.NoError(t, s.posts.Delete(ctx, a, p.ID))
	assert.ErrorIs(t, s.posts.Delete(ctx, a, p.ID), model.ErrMoodPostNotFound)
}

func TestMoodPost_ListByAuthorUniqueID(t *testing.T) {
	s := newSocial(t)
	ctx := context.Background()
	a := s.user(t, "A")
	s.post(t, a, "t1")
	s.clock.Advance(time.Second)
	s.post(t, a, "t2")

	posts, err := s.posts.ListByAuthorUniqueID(ctx, a.User.UniqueID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "t2", posts[0].TrackID)

	_, err = s.posts.ListByAuthorUniqueID(ctx, "NOPE0000")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

// =============================================================================
// PROFILE
// =============================================================================

func TestProfile_FriendshipStatus(t *testing.T) {
	s := newSocial(t)
	ctx := context.Background()
	a := s.user(t, "A")
	b := s.user(t, "B")

	status := func() model.FriendshipStatus {
		p, err := s.identity.GetProfile(ctx, a, b.User.UniqueID)
		require.NoError(t, err)
		return p.FriendshipStatus
	}

	assert.Equal(t, model.FriendshipNone, status())

	req, err := s.requests.Send(ctx, b, a.User.UniqueID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipPending, status())

	_, err = s.requests.Respond(ctx, a, req.ID, model.RequestAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipFriends, status())

	require.NoError(t, s.friendships.Unlink(ctx, a, b.UserID))
	assert.Equal(t, model.FriendshipAccepted, status())

	_, err = s.identity.GetProfile(ctx, a, "NOPE0000")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
