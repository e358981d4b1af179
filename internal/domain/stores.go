package domain

import (
	"context"
	"time"
)

// UserStore captures the user-table operations the engine needs.
type UserStore interface {
	ListAll(ctx context.Context) ([]User, error)
	// GetUser returns one user's row, or ErrNotFound.
	GetUser(ctx context.Context, userID string) (*User, error)
	UpdateFlags(ctx context.Context, userID string, flags StatusFlags) error
	SetLastWorkoutDate(ctx context.Context, userID string, at time.Time) error
}

// WorkoutLogStore persists and queries workout logs.
type WorkoutLogStore interface {
	CreateWorkoutLog(ctx context.Context, log WorkoutLog) error
	// ListSince returns the user's logs with date >= since (inclusive).
	ListSince(ctx context.Context, userID string, since time.Time) ([]WorkoutLog, error)
}

// NotificationStore persists notification records.
type NotificationStore interface {
	CreateNotification(ctx context.Context, userID string, draft NotificationDraft) (*Notification, error)
	ListByUser(ctx context.Context, userID string) ([]Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// GoalStore persists user goals.
type GoalStore interface {
	CreateGoal(ctx context.Context, goal Goal) error
	ListGoals(ctx context.Context, userID string) ([]Goal, error)
	UpdateGoal(ctx context.Context, userID, goalID string, update GoalUpdate) (*Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID string) error
}
