package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// requestConns is the pool headroom left for session lookups once every
// stream worker holds a connection in a blocking XREADGROUP.
const requestConns = 10

// Client is the connection pool behind the session store and the social
// event stream.
type Client struct {
	*redis.Client
}

// Connect parses redisURL (redis://[:password@]host:port[/db]), sizes the
// pool for streamWorkers blocking readers plus request traffic and pings the
// server before returning.
func Connect(ctx context.Context, redisURL string, streamWorkers int) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.ClientName = "statify"
	if floor := streamWorkers + requestConns; opts.PoolSize < floor {
		opts.PoolSize = floor
	}

	c := &Client{Client: redis.NewClient(opts)}
	if err := c.Client.Ping(ctx).Err(); err != nil {
		c.Client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	zap.L().Info("redis connected",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.Int("pool_size", opts.PoolSize),
	)
	return c, nil
}
