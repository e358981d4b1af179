package outbox

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// NotificationPublisher writes notification events to the notification_events
// topic. The writer is synchronous and waits for acks from all replicas, so a
// nil return from WriteMessages is safe to treat as delivered when marking
// outbox rows published.
type NotificationPublisher struct {
	writer *kafka.Writer
}

// NewNotificationPublisher creates a publisher pinned to Topic.
func NewNotificationPublisher(brokers []string) *NotificationPublisher {
	return &NotificationPublisher{
		writer: &kafka.Writer{
			Addr:  kafka.TCP(brokers...),
			Topic: Topic,
			// Messages are keyed by user id; hashing keeps one user's
			// notifications on one partition, in order.
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		},
	}
}

// WriteMessages publishes a batch of notification events.
func (p *NotificationPublisher) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return p.writer.WriteMessages(ctx, msgs...)
}

// Close flushes and releases the underlying writer.
func (p *NotificationPublisher) Close() error {
	return p.writer.Close()
}
