// Package spotify talks to the Spotify Web API: the authorization-code login
// flow and bearer-authenticated catalog reads.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/metrics"
	"github.com/Mizu-20/statify/internal/model"
)

const DefaultAPIBase = "https://api.spotify.com/v1"

// maxBodySize caps how much of an upstream response is buffered.
const maxBodySize = 4 << 20

// Client performs catalog reads on behalf of a user.
type Client struct {
	base       string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(base string, timeout time.Duration) *Client {
	if base == "" {
		base = DefaultAPIBase
	}
	return &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.L().With(zap.String("component", "spotify")),
	}
}

// Get issues GET base+path with the caller's access token. A 204 yields a nil
// body. Non-2xx answers and transport failures wrap model.ErrUpstream.
func (c *Client) Get(ctx context.Context, accessToken, path string, query url.Values) (json.RawMessage, error) {
	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(path, "error").Inc()
		return nil, fmt.Errorf("%w: %s: %v", model.ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		metrics.UpstreamRequests.WithLabelValues(path, "empty").Inc()
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(path, "error").Inc()
		return nil, fmt.Errorf("%w: read %s: %v", model.ErrUpstream, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.UpstreamRequests.WithLabelValues(path, "rejected").Inc()
		c.logger.Warn("upstream rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body[:min(len(body), 256)]),
		)
		return nil, fmt.Errorf("%w: %s returned %d", model.ErrUpstream, path, resp.StatusCode)
	}

	metrics.UpstreamRequests.WithLabelValues(path, "ok").Inc()
	if len(body) == 0 {
		return nil, nil
	}
	return json.RawMessage(body), nil
}
