package outbox

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Sink is where drained events go. Satisfied by mq.Publisher.
type Sink interface {
	Publish(routingKey string, payload any) error
}

// Dispatcher drains pending outbox rows to the sink on a fixed interval.
type Dispatcher struct {
	repo       *Repository
	sink       Sink
	logger     *zap.Logger
	maxRetries int
	interval   time.Duration
	batchSize  int
}

func NewDispatcher(repo *Repository, sink Sink, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		repo:       repo,
		sink:       sink,
		logger:     logger,
		maxRetries: 5,
		interval:   time.Second,
		batchSize:  100,
	}
}

func (d *Dispatcher) WithMaxRetries(maxRetries int) *Dispatcher {
	d.maxRetries = maxRetries
	return d
}

func (d *Dispatcher) WithInterval(interval time.Duration) *Dispatcher {
	d.interval = interval
	return d
}

func (d *Dispatcher) WithBatchSize(batchSize int) *Dispatcher {
	d.batchSize = batchSize
	return d
}

// Start blocks until ctx is cancelled. Run it in its own goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting outbox dispatcher",
		zap.Int("max_retries", d.maxRetries),
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	events, err := d.repo.PendingEvents(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to get pending events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := d.publishEvent(event); err != nil {
			d.logger.Error("Failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.String("routing_key", event.RoutingKey),
				zap.Error(err),
			)
			if err := d.repo.MarkFailed(ctx, event.ID, d.maxRetries); err != nil {
				d.logger.Error("Failed to record publish failure",
					zap.Int64("event_id", event.ID),
					zap.Error(err),
				)
			}
			continue
		}
		if err := d.repo.MarkSent(ctx, event.ID); err != nil {
			d.logger.Error("Failed to mark event as sent",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
		}
	}
}

func (d *Dispatcher) publishEvent(event *Event) error {
	// Re-decode so the sink marshals the payload itself, not a
	// double-encoded string.
	var payload any
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}
	return d.sink.Publish(event.RoutingKey, payload)
}
