// Package memory provides an in-memory implementation of the domain stores
// for local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamzah927/fitrek-backend/internal/domain"
	"github.com/hamzah927/fitrek-backend/internal/outbox"
)

// Store keeps all records in process memory behind one mutex.
type Store struct {
	mu            sync.RWMutex
	users         map[string]domain.User
	workoutLogs   map[string][]domain.WorkoutLog
	notifications map[string][]domain.Notification
	goals         map[string]domain.Goal
	events        []outbox.Event
	nextEventID   int64
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		users:         make(map[string]domain.User),
		workoutLogs:   make(map[string][]domain.WorkoutLog),
		notifications: make(map[string][]domain.Notification),
		goals:         make(map[string]domain.Goal),
		nextEventID:   1,
	}
}

// PutUser inserts or replaces a user row. Signup is out of scope, so tests and
// local seeding use this directly.
func (s *Store) PutUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// GetUser implements domain.UserStore.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return &user, nil
}

// ListAll implements domain.UserStore.
func (s *Store) ListAll(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateFlags implements domain.UserStore.
func (s *Store) UpdateFlags(ctx context.Context, userID string, flags domain.StatusFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	user.StatusFlags = flags
	s.users[userID] = user
	return nil
}

// SetLastWorkoutDate implements domain.UserStore.
func (s *Store) SetLastWorkoutDate(ctx context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	at = at.UTC()
	user.LastWorkoutDate = &at
	s.users[userID] = user
	return nil
}

// CreateWorkoutLog implements domain.WorkoutLogStore.
func (s *Store) CreateWorkoutLog(ctx context.Context, log domain.WorkoutLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workoutLogs[log.UserID] = append(s.workoutLogs[log.UserID], log)
	return nil
}

// ListSince implements domain.WorkoutLogStore.
func (s *Store) ListSince(ctx context.Context, userID string, since time.Time) ([]domain.WorkoutLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.WorkoutLog
	for _, log := range s.workoutLogs[userID] {
		if !log.Date.Before(since) {
			out = append(out, log)
		}
	}
	return out, nil
}

// CreateNotification implements domain.NotificationStore. The stored record
// and its outbox event are appended together under the lock, mirroring the
// single-transaction write of the Postgres repository.
func (s *Store) CreateNotification(ctx context.Context, userID string, draft domain.NotificationDraft) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notification := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      draft.Type,
		Message:   draft.Message,
		Details:   draft.Details,
		CreatedAt: time.Now().UTC(),
	}
	s.notifications[userID] = append(s.notifications[userID], notification)

	payload, err := json.Marshal(notification)
	if err != nil {
		return nil, err
	}
	s.events = append(s.events, outbox.Event{
		ID:             s.nextEventID,
		UserID:         userID,
		NotificationID: notification.ID,
		EventType:      outbox.EventTypeNotificationCreated,
		Payload:        payload,
		CreatedAt:      notification.CreatedAt,
	})
	s.nextEventID++

	return &notification, nil
}

// ListByUser implements domain.NotificationStore, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Notification, len(s.notifications[userID]))
	copy(out, s.notifications[userID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkRead implements domain.NotificationStore.
func (s *Store) MarkRead(ctx context.Context, userID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.notifications[userID]
	for i := range list {
		if list[i].ID == notificationID {
			list[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("%w: notification %s", domain.ErrNotFound, notificationID)
}

// CreateGoal implements domain.GoalStore.
func (s *Store) CreateGoal(ctx context.Context, goal domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[goal.ID] = goal
	return nil
}

// ListGoals implements domain.GoalStore, newest first.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Goal
	for _, goal := range s.goals {
		if goal.UserID == userID {
			out = append(out, goal)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateGoal implements domain.GoalStore.
func (s *Store) UpdateGoal(ctx context.Context, userID, goalID string, update domain.GoalUpdate) (*domain.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal, ok := s.goals[goalID]
	if !ok || goal.UserID != userID {
		return nil, fmt.Errorf("%w: goal %s", domain.ErrNotFound, goalID)
	}
	update.Apply(&goal)
	goal.UpdatedAt = time.Now().UTC()
	s.goals[goalID] = goal
	return &goal, nil
}

// DeleteGoal implements domain.GoalStore.
func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal, ok := s.goals[goalID]
	if !ok || goal.UserID != userID {
		return fmt.Errorf("%w: goal %s", domain.ErrNotFound, goalID)
	}
	delete(s.goals, goalID)
	return nil
}

// FetchEvents implements outbox.EventSource.
func (s *Store) FetchEvents(ctx context.Context, limit int) ([]outbox.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) <= limit {
		out := make([]outbox.Event, len(s.events))
		copy(out, s.events)
		return out, nil
	}
	out := make([]outbox.Event, limit)
	copy(out, s.events[:limit])
	return out, nil
}

// MarkDelivered implements outbox.EventSource.
func (s *Store) MarkDelivered(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		marked[id] = struct{}{}
	}
	remaining := s.events[:0]
	for _, event := range s.events {
		if _, ok := marked[event.ID]; !ok {
			remaining = append(remaining, event)
		}
	}
	s.events = remaining
	return nil
}
