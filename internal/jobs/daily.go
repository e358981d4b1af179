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

// DailyEngagement evaluates the engagement state machine for every user and
// emits at most one motivational notification per user per run. Re-sending is
// guarded by the user's status flags, so overlapping or repeated runs are safe.
type DailyEngagement struct {
	users         domain.UserStore
	notifications domain.NotificationStore
	logger        *log.Logger
	retry         retry.Config
	now           func() time.Time
}

// DailyOption configures optional behaviour for DailyEngagement.
type DailyOption func(*DailyEngagement)

// WithDailyLogger overrides the logger.
func WithDailyLogger(logger *log.Logger) DailyOption {
	return func(j *DailyEngagement) {
		j.logger = logger
	}
}

// WithDailyClock overrides the wall clock, for tests.
func WithDailyClock(now func() time.Time) DailyOption {
	return func(j *DailyEngagement) {
		j.now = now
	}
}

// WithDailyRetry overrides the store-call retry policy.
func WithDailyRetry(cfg retry.Config) DailyOption {
	return func(j *DailyEngagement) {
		j.retry = cfg
	}
}

// NewDailyEngagement constructs the daily job.
func NewDailyEngagement(users domain.UserStore, notifications domain.NotificationStore, opts ...DailyOption) *DailyEngagement {
	j := &DailyEngagement{
		users:         users,
		notifications: notifications,
		logger:        log.New(log.Writer(), "[daily-engagement] ", log.LstdFlags),
		retry:         retry.DefaultConfig(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Name implements Job.
func (j *DailyEngagement) Name() string { return "daily_engagement" }

// Run loads all users and applies the state machine to each. A failure listing
// users aborts the run; per-user failures are logged and skipped.
func (j *DailyEngagement) Run(ctx context.Context) error {
	var users []domain.User
	err := retry.Do(ctx, j.retry, func(ctx context.Context) error {
		var listErr error
		users, listErr = j.users.ListAll(ctx)
		return listErr
	})
	if err != nil {
		return fmt.Errorf("%w: list users: %v", domain.ErrStoreRead, err)
	}

	now := j.now().UTC()
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.processUser(ctx, user, now); err != nil {
			j.logger.Printf("user %s: %v", user.ID, err)
			recordUserFailure(j.Name())
		}
	}
	return nil
}

func (j *DailyEngagement) processUser(ctx context.Context, user domain.User, now time.Time) error {
	decision := domain.EvaluateEngagement(user.LastWorkoutDate, user.StatusFlags, now)

	// The notification is written before the guard flags so a crash in
	// between can only cause a duplicate next run, never a silently
	// suppressed notification.
	if draft := decision.Notification; draft != nil {
		var created *domain.Notification
		err := retry.Do(ctx, j.retry, func(ctx context.Context) error {
			var createErr error
			created, createErr = j.notifications.CreateNotification(ctx, user.ID, *draft)
			return createErr
		})
		if err != nil {
			return fmt.Errorf("%w: create %s notification: %v", domain.ErrStoreWrite, draft.Type, err)
		}
		recordNotificationCreated(string(draft.Type))
		observability.RecordNotificationCreated(created.CreatedAt)
		j.logger.Printf("user %s: %s notification created (state=%s, days_since=%d)",
			user.ID, draft.Type, decision.State, decision.DaysSince)
	}

	if decision.FlagsChanged {
		err := retry.Do(ctx, j.retry, func(ctx context.Context) error {
			return j.users.UpdateFlags(ctx, user.ID, decision.Flags)
		})
		if err != nil {
			return fmt.Errorf("%w: update status flags: %v", domain.ErrStoreWrite, err)
		}
	}
	return nil
}
