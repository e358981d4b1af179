package outbox

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
}

// EventSource supplies undelivered events and records their delivery. The
// Postgres repository and the in-memory store both implement it.
type EventSource interface {
	// FetchEvents claims up to limit undelivered events.
	FetchEvents(ctx context.Context, limit int) ([]Event, error)
	// MarkDelivered marks the given event ids as published.
	MarkDelivered(ctx context.Context, ids []int64) error
}

// Dispatcher drains the notification outbox and publishes events to Kafka.
// Failed batches stay unpublished and are retried on the next tick.
type Dispatcher struct {
	source       EventSource
	producer     messageWriter
	pollInterval time.Duration
	batchSize    int
	logger       *log.Logger
	done         chan struct{}
}

// DispatcherOption configures optional behaviour for the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger overrides the logger.
func WithDispatcherLogger(logger *log.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(source EventSource, producer messageWriter, pollInterval time.Duration, batchSize int, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		source:       source,
		producer:     producer,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       log.New(log.Writer(), "[outbox] ", log.LstdFlags),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the polling loop. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		close(d.done)
	}()

	for {
		if err := d.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Printf("dispatch error: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until the dispatcher loop has exited.
func (d *Dispatcher) Wait() {
	<-d.done
}

// ProcessBatch fetches one batch, delivers it, and marks it published.
func (d *Dispatcher) ProcessBatch(ctx context.Context) error {
	start := time.Now()

	events, err := d.source.FetchEvents(ctx, d.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	defer batchDuration.Observe(time.Since(start).Seconds())

	messages := make([]kafka.Message, 0, len(events))
	ids := make([]int64, 0, len(events))
	for _, event := range events {
		messages = append(messages, kafka.Message{
			// Key by user so a consumer sees one user's events in order.
			Key:   []byte(event.UserID),
			Value: event.Payload,
			Time:  time.Now().UTC(),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
				{Key: "user_id", Value: []byte(event.UserID)},
				{Key: "notification_id", Value: []byte(event.NotificationID)},
				{Key: "event_id", Value: []byte(strconv.FormatInt(event.ID, 10))},
			},
		})
		ids = append(ids, event.ID)
	}

	if err := d.producer.WriteMessages(ctx, messages...); err != nil {
		failedCounter.Add(float64(len(messages)))
		return err
	}

	deliveredCounter.Add(float64(len(messages)))
	return d.source.MarkDelivered(ctx, ids)
}
