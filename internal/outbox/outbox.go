// Package outbox delivers notification events to Kafka for out-of-process
// delivery consumers (push, email). Record creation stays authoritative in
// Postgres; this package only drains the queue.
package outbox

import (
	"encoding/json"
	"time"
)

// Topic carries every notification event.
const Topic = "notification_events"

// EventTypeNotificationCreated is emitted once per stored notification.
const EventTypeNotificationCreated = "notification.created"

// Event is one undelivered row from the notification outbox.
type Event struct {
	ID             int64
	UserID         string
	NotificationID string
	EventType      string
	Payload        json.RawMessage
	CreatedAt      time.Time
}
