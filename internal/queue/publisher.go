package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Publisher interface {
	// Publish adds an event to the stream and returns its message id.
	Publish(ctx context.Context, stream string, event SocialEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

func NewPublisher(client *redis.Client, logger *zap.Logger) Publisher {
	return &RedisPublisher{client: client, logger: logger.With(zap.String("component", "publisher"))}
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, event SocialEvent) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		p.logger.Warn("publish failed", zap.String("stream", stream), zap.String("type", event.Type), zap.Error(err))
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.logger.Debug("published",
		zap.String("stream", stream),
		zap.String("type", event.Type),
		zap.String("msg_id", messageID),
		zap.Int64("actor", event.ActorID),
		zap.Duration("duration", time.Since(startTime)),
	)
	return messageID, nil
}

// DispatchFunc handles one event in-process.
type DispatchFunc func(ctx context.Context, event SocialEvent) error

// InProcessPublisher delivers events straight to a handler. It is used when
// no Redis is configured.
type InProcessPublisher struct {
	dispatch DispatchFunc
	seq      atomic.Uint64
}

func NewInProcessPublisher(dispatch DispatchFunc) *InProcessPublisher {
	return &InProcessPublisher{dispatch: dispatch}
}

func (p *InProcessPublisher) Publish(ctx context.Context, stream string, event SocialEvent) (string, error) {
	id := fmt.Sprintf("%d-%d", time.Now().UnixMilli(), p.seq.Add(1))

	if err := p.dispatch(ctx, event); err != nil {
		return "", fmt.Errorf("dispatch %s: %w", event.Type, err)
	}
	return id, nil
}
