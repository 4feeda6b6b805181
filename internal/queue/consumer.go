package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message is one delivered stream entry.
type Message struct {
	ID    string
	Event SocialEvent
}

type Consumer interface {
	// EnsureGroup creates the consumer group (and stream) if missing.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read returns new messages for consumer, blocking up to block.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns messages delivered to consumer but never acknowledged.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)

	Ack(ctx context.Context, stream, group string, messageIDs ...string) error
}

// RedisConsumer implements Consumer using Redis Streams consumer groups.
type RedisConsumer struct {
	client *redis.Client
	logger *zap.Logger
}

func NewConsumer(client *redis.Client, logger *zap.Logger) Consumer {
	return &RedisConsumer{client: client, logger: logger.With(zap.String("component", "consumer"))}
}

// EnsureGroup starts new groups at "$": live notifications about events from
// before the process started are of no use to anyone.
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return nil
		}
		return fmt.Errorf("create consumer group: %w", err)
	}

	c.logger.Info("consumer group created", zap.String("stream", stream), zap.String("group", group))
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	messages, _, err := c.read(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	})
	return messages, err
}

// ReadPending walks the pending list from its head and returns the first
// batch that holds at least one well-formed entry. An empty result means
// nothing usable is left pending.
func (c *RedisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	cursor := "0"
	for {
		messages, lastID, err := c.read(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, cursor},
			Count:    count,
		})
		if err != nil || len(messages) > 0 || lastID == "" {
			return messages, err
		}
		cursor = lastID
	}
}

// read returns the parsed messages and the id of the last raw entry
// delivered, which is empty when the reply held none.
func (c *RedisConsumer) read(ctx context.Context, args *redis.XReadGroupArgs) ([]Message, string, error) {
	streams, err := c.client.XReadGroup(ctx, args).Result()
	if errors.Is(err, redis.Nil) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("xreadgroup: %w", err)
	}

	var messages []Message
	var lastID string
	for _, s := range streams {
		var malformed []string
		for _, msg := range s.Messages {
			lastID = msg.ID
			event, err := ParseSocialEvent(msg.Values)
			if err != nil {
				c.logger.Warn("dropping malformed message", zap.String("msg_id", msg.ID), zap.Error(err))
				malformed = append(malformed, msg.ID)
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}

		// Malformed entries can never be handled; left pending they would
		// sit at the head of the pending list forever.
		if len(malformed) > 0 {
			if err := c.Ack(ctx, s.Stream, args.Group, malformed...); err != nil {
				c.logger.Warn("ack malformed messages failed", zap.Strings("msg_ids", malformed), zap.Error(err))
			}
		}
	}
	return messages, lastID, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}
