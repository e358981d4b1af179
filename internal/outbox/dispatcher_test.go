package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu        sync.Mutex
	events    []Event
	fetchErr  error
	delivered []int64
	markErr   error
}

func (s *stubSource) FetchEvents(_ context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if len(s.events) > limit {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func (s *stubSource) MarkDelivered(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.delivered = append(s.delivered, ids...)
	remaining := s.events[:0]
	for _, e := range s.events {
		kept := true
		for _, id := range ids {
			if e.ID == id {
				kept = false
				break
			}
		}
		if kept {
			remaining = append(remaining, e)
		}
	}
	s.events = remaining
	return nil
}

func (s *stubSource) deliveredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

type stubWriter struct {
	written []kafka.Message
	err     error
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func testEvent(id int64, userID string) Event {
	payload, _ := json.Marshal(map[string]string{"user_id": userID})
	return Event{
		ID:             id,
		UserID:         userID,
		NotificationID: "notif-" + userID,
		EventType:      EventTypeNotificationCreated,
		Payload:        payload,
		CreatedAt:      time.Now().UTC(),
	}
}

func testLogger(t *testing.T) *log.Logger {
	return log.New(testWriter{t}, "", 0)
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}

func TestProcessBatchDeliversAndMarks(t *testing.T) {
	source := &stubSource{events: []Event{testEvent(1, "user-1"), testEvent(2, "user-2")}}
	writer := &stubWriter{}

	d := NewDispatcher(source, writer, time.Second, 10, WithDispatcherLogger(testLogger(t)))
	require.NoError(t, d.ProcessBatch(context.Background()))

	require.Len(t, writer.written, 2)
	require.Equal(t, []byte("user-1"), writer.written[0].Key)

	var eventType string
	for _, h := range writer.written[0].Headers {
		if h.Key == "event_type" {
			eventType = string(h.Value)
		}
	}
	require.Equal(t, EventTypeNotificationCreated, eventType)

	require.Equal(t, []int64{1, 2}, source.delivered)
	require.Empty(t, source.events)
}

func TestProcessBatchEmptyQueueIsNoop(t *testing.T) {
	writer := &stubWriter{}
	d := NewDispatcher(&stubSource{}, writer, time.Second, 10, WithDispatcherLogger(testLogger(t)))

	require.NoError(t, d.ProcessBatch(context.Background()))
	require.Empty(t, writer.written)
}

func TestProcessBatchLeavesEventsOnWriteFailure(t *testing.T) {
	source := &stubSource{events: []Event{testEvent(1, "user-1")}}
	writer := &stubWriter{err: errors.New("broker unavailable")}

	d := NewDispatcher(source, writer, time.Second, 10, WithDispatcherLogger(testLogger(t)))
	err := d.ProcessBatch(context.Background())

	require.Error(t, err)
	require.Empty(t, source.delivered)
	require.Len(t, source.events, 1)
}

func TestDispatcherStartStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	source := &stubSource{events: []Event{testEvent(1, "user-1")}}
	writer := &stubWriter{}
	d := NewDispatcher(source, writer, 5*time.Millisecond, 10, WithDispatcherLogger(testLogger(t)))

	go d.Start(ctx)

	deadline := time.After(5 * time.Second)
	for {
		if source.deliveredCount() > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("dispatcher never delivered")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	d.Wait()
}
