package history

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// SummaryWriter persists a summary durably. Implemented by SummaryStore.
type SummaryWriter interface {
	PutSummary(ctx context.Context, summary Summary) error
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

type workerConfig struct {
	workers          int
	receiveBatchSize int
	receiveWaitSecs  int
	persistAttempts  int
	persistBaseDelay time.Duration
}

// WithWorkerCount sets the number of polling goroutines.
func WithWorkerCount(n int) WorkerOption {
	return func(c *workerConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithPersistRetry bounds the retry loop around each store write.
func WithPersistRetry(attempts int, baseDelay time.Duration) WorkerOption {
	return func(c *workerConfig) {
		if attempts > 0 {
			c.persistAttempts = attempts
		}
		if baseDelay > 0 {
			c.persistBaseDelay = baseDelay
		}
	}
}

// Worker drains the summary queue and persists each record. A message is
// deleted only once its summary is stored or proven undecodable, so a
// crash mid-write leads to redelivery rather than loss.
type Worker struct {
	queue  queueClient
	store  SummaryWriter
	logger *logging.Logger
	cfg    workerConfig
	wg     sync.WaitGroup
}

// NewWorker builds a worker over the given queue and store.
func NewWorker(queue queueClient, store SummaryWriter, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("history: queue cannot be nil")
	}
	if store == nil {
		panic("history: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := workerConfig{
		workers:          1,
		receiveBatchSize: 10,
		receiveWaitSecs:  10,
		persistAttempts:  3,
		persistBaseDelay: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{queue: queue, store: store, logger: logger, cfg: cfg}
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("history worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("history worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive summaries", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var summary Summary
	if err := json.Unmarshal([]byte(msg.Body), &summary); err != nil {
		w.logger.Error("failed to decode summary message", "error", err, "msg_id", msg.ID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	if err := w.persist(ctx, summary); err != nil {
		w.logger.Error("failed to persist summary, leaving for redelivery",
			"error", err,
			"summary_id", summary.ID,
			"user_id", summary.UserID,
		)
		return
	}

	w.logger.Info("summary persisted", "summary_id", summary.ID, "user_id", summary.UserID)
	w.deleteMessage(context.Background(), msg.ReceiptHandle)
}

func (w *Worker) persist(ctx context.Context, summary Summary) error {
	var lastErr error
	for attempt := 0; attempt < w.cfg.persistAttempts; attempt++ {
		if attempt > 0 {
			delay := w.cfg.persistBaseDelay << (attempt - 1)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := w.store.PutSummary(ctx, summary); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Warn("failed to delete summary message", "error", err)
	}
}
