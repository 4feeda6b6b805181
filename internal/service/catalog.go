package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/model"
)

// CatalogClient calls the music catalog with the caller's bearer credential.
// A nil result with a nil error means the upstream had no content.
type CatalogClient interface {
	Get(ctx context.Context, accessToken, path string, query url.Values) (json.RawMessage, error)
}

const (
	defaultTimeRange = "medium_term"
	defaultLimit     = 20
	maxLimit         = 50
)

var validTimeRanges = map[string]bool{
	"short_term":  true,
	"medium_term": true,
	"long_term":   true,
}

// CatalogService forwards catalog reads. Responses are passed through untouched.
type CatalogService struct {
	client CatalogClient
	logger *zap.Logger
}

func NewCatalogService(client CatalogClient, logger *zap.Logger) *CatalogService {
	return &CatalogService{client: client, logger: logger.With(zap.String("component", "catalog"))}
}

func (s *CatalogService) TopArtists(ctx context.Context, caller model.Caller, timeRange, limit string) (json.RawMessage, error) {
	return s.top(ctx, caller, "/me/top/artists", timeRange, limit)
}

func (s *CatalogService) TopTracks(ctx context.Context, caller model.Caller, timeRange, limit string) (json.RawMessage, error) {
	return s.top(ctx, caller, "/me/top/tracks", timeRange, limit)
}

func (s *CatalogService) RecentlyPlayed(ctx context.Context, caller model.Caller, limit string) (json.RawMessage, error) {
	n, err := parseLimit(limit)
	if err != nil {
		return nil, err
	}
	q := url.Values{"limit": {strconv.Itoa(n)}}
	return s.get(ctx, caller, "/me/player/recently-played", q)
}

// CurrentlyPlaying returns nil when nothing is playing.
func (s *CatalogService) CurrentlyPlaying(ctx context.Context, caller model.Caller) (json.RawMessage, error) {
	return s.get(ctx, caller, "/me/player/currently-playing", nil)
}

func (s *CatalogService) top(ctx context.Context, caller model.Caller, path, timeRange, limit string) (json.RawMessage, error) {
	if timeRange == "" {
		timeRange = defaultTimeRange
	}
	if !validTimeRanges[timeRange] {
		return nil, model.NewValidationError("time_range", "must be short_term, medium_term or long_term")
	}
	n, err := parseLimit(limit)
	if err != nil {
		return nil, err
	}

	q := url.Values{
		"time_range": {timeRange},
		"limit":      {strconv.Itoa(n)},
	}
	return s.get(ctx, caller, path, q)
}

func (s *CatalogService) get(ctx context.Context, caller model.Caller, path string, q url.Values) (json.RawMessage, error) {
	if caller.User == nil {
		return nil, model.ErrUnauthenticated
	}

	body, err := s.client.Get(ctx, caller.User.AccessToken, path, q)
	if err != nil {
		s.logger.Warn("catalog request failed", zap.String("path", path), zap.Int64("user", caller.UserID), zap.Error(err))
		return nil, err
	}
	return body, nil
}

func parseLimit(limit string) (int, error) {
	if limit == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(limit)
	if err != nil || n < 1 || n > maxLimit {
		return 0, model.NewValidationError("limit", "must be between 1 and 50")
	}
	return n, nil
}
