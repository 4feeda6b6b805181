package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/queue"
)

const (
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second
)

// Manager runs worker goroutines that consume the social stream.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	logger      *zap.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration // XREADGROUP block time
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig, logger *zap.Logger) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		logger:      logger.With(zap.String("component", "worker_manager")),
	}
}

// Start launches the workers. Call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamSocial, queue.ConsumerGroupLive); err != nil {
		m.cancel()
		return err
	}

	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		m.wg.Add(1)
		go m.runWorker(workerID, consumerNameForWorker(workerID))
	}

	m.logger.Info("workers started",
		zap.Int("count", m.workerCount),
		zap.String("stream", queue.StreamSocial),
		zap.String("group", queue.ConsumerGroupLive),
	)
	return nil
}

// Stop blocks until every worker has returned.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	m.logger.Info("workers stopped")
}

func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()
	log := m.logger.With(zap.Int("worker", workerID))

	// Messages delivered to this consumer before a crash come first.
	m.processPending(log, consumerName)

	for {
		select {
		case <-m.ctx.Done():
			log.Debug("worker shutting down")
			return
		default:
			m.processMessages(log, consumerName)
		}
	}
}

// processPending replays this consumer's unacknowledged entries. Every batch
// is acked, so each pass advances the pending list.
func (m *Manager) processPending(log *zap.Logger, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamSocial, queue.ConsumerGroupLive, consumerName, m.batchSize)
		if err != nil {
			log.Warn("read pending failed", zap.Error(err))
			return
		}
		if len(messages) == 0 {
			return
		}

		log.Info("replaying pending messages", zap.Int("count", len(messages)))
		m.handleMessages(log, messages)
	}
}

func (m *Manager) processMessages(log *zap.Logger, consumerName string) {
	messages, err := m.consumer.Read(
		m.ctx,
		queue.StreamSocial,
		queue.ConsumerGroupLive,
		consumerName,
		m.batchSize,
		m.blockTime,
	)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.Warn("read failed", zap.Error(err))
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}

	if len(messages) > 0 {
		m.handleMessages(log, messages)
	}
}

// handleMessages acks every message, including ones the handler failed on:
// live notifications are best-effort and must not loop.
func (m *Manager) handleMessages(log *zap.Logger, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			log.Warn("handler error", zap.String("msg_id", msg.ID), zap.Error(err))
		}

		if err := m.consumer.Ack(m.ctx, queue.StreamSocial, queue.ConsumerGroupLive, msg.ID); err != nil {
			log.Warn("ack failed", zap.String("msg_id", msg.ID), zap.Error(err))
		}
	}
}

func consumerNameForWorker(workerID int) string {
	return "worker-" + strconv.Itoa(workerID)
}
