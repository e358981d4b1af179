package jobs

import (
	"context"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hamzah927/fitrek-backend/internal/domain"
	"github.com/hamzah927/fitrek-backend/internal/retry"
)

// stubUserStore is an in-test UserStore with per-user error injection.
type stubUserStore struct {
	mu          sync.Mutex
	users       []domain.User
	listErr     error
	updateErrs  map[string]error
	flagWrites  []flagWrite
	flagsByUser map[string]domain.StatusFlags
}

type flagWrite struct {
	userID string
	flags  domain.StatusFlags
}

func newStubUserStore(users ...domain.User) *stubUserStore {
	s := &stubUserStore{
		users:       users,
		updateErrs:  make(map[string]error),
		flagsByUser: make(map[string]domain.StatusFlags),
	}
	for _, u := range users {
		s.flagsByUser[u.ID] = u.StatusFlags
	}
	return s
}

func (s *stubUserStore) ListAll(context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.User, len(s.users))
	for i, u := range s.users {
		u.StatusFlags = s.flagsByUser[u.ID]
		out[i] = u
	}
	return out, nil
}

func (s *stubUserStore) GetUser(_ context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			u.StatusFlags = s.flagsByUser[u.ID]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubUserStore) UpdateFlags(_ context.Context, userID string, flags domain.StatusFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateErrs[userID]; err != nil {
		return err
	}
	s.flagWrites = append(s.flagWrites, flagWrite{userID: userID, flags: flags})
	s.flagsByUser[userID] = flags
	return nil
}

func (s *stubUserStore) SetLastWorkoutDate(context.Context, string, time.Time) error {
	return nil
}

// stubNotificationStore records created notifications and supports per-user
// error injection.
type stubNotificationStore struct {
	mu         sync.Mutex
	created    []domain.Notification
	createErrs map[string]error
}

func newStubNotificationStore() *stubNotificationStore {
	return &stubNotificationStore{createErrs: make(map[string]error)}
}

func (s *stubNotificationStore) CreateNotification(_ context.Context, userID string, draft domain.NotificationDraft) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.createErrs[userID]; err != nil {
		return nil, err
	}
	notification := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      draft.Type,
		Message:   draft.Message,
		Details:   draft.Details,
		CreatedAt: time.Now().UTC(),
	}
	s.created = append(s.created, notification)
	return &notification, nil
}

func (s *stubNotificationStore) ListByUser(_ context.Context, userID string) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Notification
	for _, n := range s.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *stubNotificationStore) MarkRead(context.Context, string, string) error {
	return nil
}

func (s *stubNotificationStore) forUser(userID string) []domain.Notification {
	out, _ := s.ListByUser(context.Background(), userID)
	return out
}

// stubWorkoutStore serves canned logs per user.
type stubWorkoutStore struct {
	logs      map[string][]domain.WorkoutLog
	listErrs  map[string]error
	lastSince time.Time
}

func newStubWorkoutStore() *stubWorkoutStore {
	return &stubWorkoutStore{
		logs:     make(map[string][]domain.WorkoutLog),
		listErrs: make(map[string]error),
	}
}

func (s *stubWorkoutStore) CreateWorkoutLog(context.Context, domain.WorkoutLog) error { return nil }

func (s *stubWorkoutStore) ListSince(_ context.Context, userID string, since time.Time) ([]domain.WorkoutLog, error) {
	s.lastSince = since
	if err := s.listErrs[userID]; err != nil {
		return nil, err
	}
	var out []domain.WorkoutLog
	for _, l := range s.logs[userID] {
		if !l.Date.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
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

func noRetry() retry.Config {
	return retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}
