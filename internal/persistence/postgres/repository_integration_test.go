//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/hamzah927/fitrek-backend/internal/domain"
	"github.com/hamzah927/fitrek-backend/internal/outbox"
)

func TestRepositoryEngagementRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, pool := startRepository(t, ctx)

	userID := uuid.NewString()
	seedUser(t, ctx, pool, userID)

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, userID, users[0].ID)
	require.Nil(t, users[0].LastWorkoutDate)
	require.False(t, users[0].StatusFlags.InitialMotivationSent)

	flags := domain.StatusFlags{InitialMotivationSent: true}
	require.NoError(t, repo.UpdateFlags(ctx, userID, flags))

	workoutAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.SetLastWorkoutDate(ctx, userID, workoutAt))

	users, err = repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.True(t, users[0].StatusFlags.InitialMotivationSent)
	require.NotNil(t, users[0].LastWorkoutDate)
	require.True(t, users[0].LastWorkoutDate.Equal(workoutAt))

	one, err := repo.GetUser(ctx, userID)
	require.NoError(t, err)
	require.True(t, one.StatusFlags.InitialMotivationSent)
	require.True(t, one.LastWorkoutDate.Equal(workoutAt))

	_, err = repo.GetUser(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.ErrorIs(t, repo.UpdateFlags(ctx, uuid.NewString(), flags), domain.ErrNotFound)
}

func TestRepositoryWorkoutLogWindow(t *testing.T) {
	ctx := context.Background()
	repo, pool := startRepository(t, ctx)

	userID := uuid.NewString()
	seedUser(t, ctx, pool, userID)

	now := time.Now().UTC().Truncate(time.Second)
	inside := domain.WorkoutLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		WorkoutID: uuid.NewString(),
		Date:      now.Add(-48 * time.Hour),
		Exercises: domain.ExerciseList{
			{ExerciseID: "bench-press", Sets: []domain.SetEntry{{Weight: 50, Reps: 10}}},
		},
	}
	outside := inside
	outside.ID = uuid.NewString()
	outside.Date = now.Add(-10 * 24 * time.Hour)

	require.NoError(t, repo.CreateWorkoutLog(ctx, inside))
	require.NoError(t, repo.CreateWorkoutLog(ctx, outside))

	logs, err := repo.ListSince(ctx, userID, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, inside.ID, logs[0].ID)
	require.Len(t, logs[0].Exercises, 1)
	require.Equal(t, domain.ExerciseID("bench-press"), logs[0].Exercises[0].ExerciseID)
}

func TestRepositoryNotificationOutbox(t *testing.T) {
	ctx := context.Background()
	repo, pool := startRepository(t, ctx)

	userID := uuid.NewString()
	seedUser(t, ctx, pool, userID)

	created, err := repo.CreateNotification(ctx, userID, domain.NotificationDraft{
		Type:    domain.NotificationMotivation,
		Message: domain.MessageInitialMotivation,
		Details: domain.MotivationDetails{Reason: "no_workout_logged"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	listed, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.False(t, listed[0].IsRead)

	require.NoError(t, repo.MarkRead(ctx, userID, created.ID))
	listed, err = repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.True(t, listed[0].IsRead)

	events, err := repo.FetchEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, outbox.EventTypeNotificationCreated, events[0].EventType)
	require.Equal(t, created.ID, events[0].NotificationID)

	// The batch is claimed but unpublished; a second fetch within the claim
	// window must not hand it out again.
	claimed, err := repo.FetchEvents(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, claimed)

	require.NoError(t, repo.MarkDelivered(ctx, []int64{events[0].ID}))

	events, err = repo.FetchEvents(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestRepositoryGoalLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, pool := startRepository(t, ctx)

	userID := uuid.NewString()
	seedUser(t, ctx, pool, userID)

	now := time.Now().UTC().Truncate(time.Second)
	goal := domain.Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        domain.GoalTypeStrength,
		Name:        "Bench 100kg",
		TargetValue: 100,
		Unit:        "kg",
		StartDate:   now,
		Status:      domain.GoalStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.CreateGoal(ctx, goal))

	progress := 60.0
	updated, err := repo.UpdateGoal(ctx, userID, goal.ID, domain.GoalUpdate{CurrentValue: &progress})
	require.NoError(t, err)
	require.Equal(t, progress, updated.CurrentValue)

	goals, err := repo.ListGoals(ctx, userID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	require.Equal(t, progress, goals[0].CurrentValue)

	require.NoError(t, repo.DeleteGoal(ctx, userID, goal.ID))
	require.ErrorIs(t, repo.DeleteGoal(ctx, userID, goal.ID), domain.ErrNotFound)
}

func startRepository(t *testing.T, ctx context.Context) (*Repository, *pgxpool.Pool) {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("fitrek"),
		postgrescontainer.WithUsername("fitrek"),
		postgrescontainer.WithPassword("fitrek"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, EnsureSchema(ctx, pool))
	return NewRepository(pool), pool
}

func seedUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userID string) {
	t.Helper()
	_, err := pool.Exec(ctx, `INSERT INTO users (id) VALUES ($1)`, userID)
	require.NoError(t, err)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
