package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/metrics"
	"github.com/Mizu-20/statify/internal/queue"
)

// publish sends a live-update event after the state change has been stored.
// A failed publish is logged and never fails the operation.
func publish(ctx context.Context, p queue.Publisher, logger *zap.Logger, event queue.SocialEvent) {
	if p == nil {
		return
	}

	msgID, err := p.Publish(ctx, queue.StreamSocial, event)
	if err != nil {
		metrics.SocialEvents.WithLabelValues(event.Type, "error").Inc()
		logger.Warn("failed to publish event",
			zap.String("type", event.Type),
			zap.Int64("actor", event.ActorID),
			zap.Error(err),
		)
		return
	}

	metrics.SocialEvents.WithLabelValues(event.Type, "ok").Inc()
	logger.Debug("published event", zap.String("type", event.Type), zap.String("msg_id", msgID))
}
