package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hamzah927/fitrek-backend/internal/domain"
	"github.com/hamzah927/fitrek-backend/internal/observability"
	"github.com/hamzah927/fitrek-backend/internal/retry"
)

// trailingWindow is the aggregation window for the weekly summary.
const trailingWindow = 7 * 24 * time.Hour

// WeeklySummary aggregates each user's trailing 7 days of workout logs and
// creates one weekly_summary notification per user. There is no guard flag, so
// a re-run duplicates summaries.
type WeeklySummary struct {
	users         domain.UserStore
	workouts      domain.WorkoutLogStore
	notifications domain.NotificationStore
	logger        *log.Logger
	retry         retry.Config
	now           func() time.Time
}

// WeeklyOption configures optional behaviour for WeeklySummary.
type WeeklyOption func(*WeeklySummary)

// WithWeeklyLogger overrides the logger.
func WithWeeklyLogger(logger *log.Logger) WeeklyOption {
	return func(j *WeeklySummary) {
		j.logger = logger
	}
}

// WithWeeklyClock overrides the wall clock, for tests.
func WithWeeklyClock(now func() time.Time) WeeklyOption {
	return func(j *WeeklySummary) {
		j.now = now
	}
}

// WithWeeklyRetry overrides the store-call retry policy.
func WithWeeklyRetry(cfg retry.Config) WeeklyOption {
	return func(j *WeeklySummary) {
		j.retry = cfg
	}
}

// NewWeeklySummary constructs the weekly job.
func NewWeeklySummary(users domain.UserStore, workouts domain.WorkoutLogStore, notifications domain.NotificationStore, opts ...WeeklyOption) *WeeklySummary {
	j := &WeeklySummary{
		users:         users,
		workouts:      workouts,
		notifications: notifications,
		logger:        log.New(log.Writer(), "[weekly-summary] ", log.LstdFlags),
		retry:         retry.DefaultConfig(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Name implements Job.
func (j *WeeklySummary) Name() string { return "weekly_summary" }

// Run summarises the trailing window for every user. Users with no logs still
// get an all-zero summary. Per-user failures are logged and skipped.
func (j *WeeklySummary) Run(ctx context.Context) error {
	var users []domain.User
	err := retry.Do(ctx, j.retry, func(ctx context.Context) error {
		var listErr error
		users, listErr = j.users.ListAll(ctx)
		return listErr
	})
	if err != nil {
		return fmt.Errorf("%w: list users: %v", domain.ErrStoreRead, err)
	}

	since := j.now().UTC().Add(-trailingWindow)
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.processUser(ctx, user.ID, since); err != nil {
			j.logger.Printf("user %s: %v", user.ID, err)
			recordUserFailure(j.Name())
		}
	}
	return nil
}

func (j *WeeklySummary) processUser(ctx context.Context, userID string, since time.Time) error {
	var logs []domain.WorkoutLog
	err := retry.Do(ctx, j.retry, func(ctx context.Context) error {
		var listErr error
		logs, listErr = j.workouts.ListSince(ctx, userID, since)
		return listErr
	})
	if err != nil {
		return fmt.Errorf("%w: list workout logs: %v", domain.ErrStoreRead, err)
	}

	summary := domain.Summarize(logs)
	draft := domain.NewWeeklySummaryDraft(summary)

	var created *domain.Notification
	err = retry.Do(ctx, j.retry, func(ctx context.Context) error {
		var createErr error
		created, createErr = j.notifications.CreateNotification(ctx, userID, draft)
		return createErr
	})
	if err != nil {
		return fmt.Errorf("%w: create weekly summary notification: %v", domain.ErrStoreWrite, err)
	}
	recordNotificationCreated(string(draft.Type))
	observability.RecordNotificationCreated(created.CreatedAt)
	j.logger.Printf("user %s: weekly summary created (workouts=%d, volume=%.2f, exercises=%d)",
		userID, summary.TotalWorkouts, summary.TotalVolume, summary.UniqueExercises)
	return nil
}
