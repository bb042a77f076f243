package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// Recorder accepts completed-session summaries for persistence.
type Recorder interface {
	Record(ctx context.Context, summary Summary) error
}

// Publisher enqueues summaries for the history worker.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

var _ Recorder = (*Publisher)(nil)

// NewPublisher creates a publisher over the given queue.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("history: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// Record enqueues the summary, assigning an ID and timestamp when missing.
func (p *Publisher) Record(ctx context.Context, summary Summary) error {
	if summary.ID == "" {
		summary.ID = uuid.NewString()
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("history: encode summary: %w", err)
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		return err
	}
	p.logger.Debug("summary enqueued", "summary_id", summary.ID, "user_id", summary.UserID)
	return nil
}
