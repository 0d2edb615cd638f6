package outbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/outbox"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/kafka"
)

const defaultBatchSize = 50

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Dispatcher relays pending outbox events to the broker.
type Dispatcher struct {
	repo      outbox.Repository
	publisher Publisher
	batchSize int
	logger    *slog.Logger
}

func NewDispatcher(repo outbox.Repository, publisher Publisher, batchSize int, logger *slog.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Dispatcher{
		repo:      repo,
		publisher: publisher,
		batchSize: batchSize,
		logger:    logger,
	}
}

// DispatchPending publishes one batch and returns how many events were sent. A failed
// publish is recorded on the event and does not stop the batch.
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	events, err := d.repo.ListPending(ctx, d.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending outbox events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	d.logger.InfoContext(ctx, "processing pending outbox events", "count", len(events))

	sent := 0
	for _, event := range events {
		err := d.publisher.Publish(ctx, kafka.Message{
			Topic: event.Topic,
			Key:   event.AggregateID,
			Value: event.Payload,
			Headers: map[string]string{
				"event_type":     event.EventType,
				"aggregate_type": event.AggregateType,
				"request_id":     event.RequestID,
			},
		})
		if err != nil {
			d.logger.ErrorContext(ctx, "publish outbox event failed",
				"outbox_id", event.ID,
				"event_type", event.EventType,
				"topic", event.Topic,
				"retry_count", event.RetryCount,
				"error", err,
			)
			if markErr := d.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				d.logger.ErrorContext(ctx, "mark outbox failed failed", "outbox_id", event.ID, "error", markErr)
			}
			continue
		}

		if err := d.repo.MarkSent(ctx, event.ID); err != nil {
			d.logger.ErrorContext(ctx, "mark outbox sent failed", "outbox_id", event.ID, "error", err)
			continue
		}
		sent++

		d.logger.InfoContext(ctx, "outbox event sent",
			"outbox_id", event.ID,
			"event_type", event.EventType,
			"topic", event.Topic,
		)
	}
	return sent, nil
}
