// Package postgres provides pgx-backed persistence for users, workout logs,
// notifications, goals, and the notification outbox.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hamzah927/fitrek-backend/internal/domain"
	"github.com/hamzah927/fitrek-backend/internal/outbox"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}

// Repository implements the domain stores and the outbox event source.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListAll returns every user with their engagement flags. A row whose flag
// payload does not decode aborts the listing with ErrMalformedRecord so flag
// vocabulary drift is caught instead of silently skipped.
func (r *Repository) ListAll(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT id, last_workout_date, user_status_flags FROM users ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var (
			user     domain.User
			rawFlags []byte
		)
		if err := rows.Scan(&user.ID, &user.LastWorkoutDate, &rawFlags); err != nil {
			return nil, err
		}
		if len(rawFlags) > 0 {
			if err := json.Unmarshal(rawFlags, &user.StatusFlags); err != nil {
				return nil, fmt.Errorf("user %s: %w", user.ID, err)
			}
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetUser returns one user's row, or ErrNotFound.
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	const query = `SELECT id, last_workout_date, user_status_flags FROM users WHERE id = $1`

	var (
		user     domain.User
		rawFlags []byte
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(&user.ID, &user.LastWorkoutDate, &rawFlags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
		}
		return nil, err
	}
	if len(rawFlags) > 0 {
		if err := json.Unmarshal(rawFlags, &user.StatusFlags); err != nil {
			return nil, fmt.Errorf("user %s: %w", userID, err)
		}
	}
	return &user, nil
}

// UpdateFlags persists the user's engagement flags.
func (r *Repository) UpdateFlags(ctx context.Context, userID string, flags domain.StatusFlags) error {
	body, err := json.Marshal(flags)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `UPDATE users SET user_status_flags = $2 WHERE id = $1`, userID, body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return nil
}

// SetLastWorkoutDate bumps the user's last workout timestamp.
func (r *Repository) SetLastWorkoutDate(ctx context.Context, userID string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET last_workout_date = $2 WHERE id = $1`, userID, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return nil
}

// CreateWorkoutLog persists an immutable workout log.
func (r *Repository) CreateWorkoutLog(ctx context.Context, log domain.WorkoutLog) error {
	exercises, err := json.Marshal(log.Exercises)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO workout_logs (id, user_id, workout_id, date, exercises)
        VALUES ($1, $2, $3, $4, $5)`
	_, err = r.pool.Exec(ctx, stmt, log.ID, log.UserID, log.WorkoutID, log.Date.UTC(), exercises)
	return err
}

// ListSince returns the user's logs with date >= since, oldest first.
func (r *Repository) ListSince(ctx context.Context, userID string, since time.Time) ([]domain.WorkoutLog, error) {
	const query = `SELECT id, user_id, workout_id, date, exercises
        FROM workout_logs WHERE user_id = $1 AND date >= $2 ORDER BY date`

	rows, err := r.pool.Query(ctx, query, userID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.WorkoutLog
	for rows.Next() {
		var (
			log          domain.WorkoutLog
			rawExercises []byte
		)
		if err := rows.Scan(&log.ID, &log.UserID, &log.WorkoutID, &log.Date, &rawExercises); err != nil {
			return nil, err
		}
		// ExerciseList decoding drops unusable entries itself; an error here
		// means the column holds invalid JSON outright, which JSONB normally
		// prevents. Skip the row rather than fail the whole window.
		if err := json.Unmarshal(rawExercises, &log.Exercises); err != nil {
			continue
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// CreateNotification stores the notification and its outbox event in a single
// transaction, so an event exists exactly when the record does.
func (r *Repository) CreateNotification(ctx context.Context, userID string, draft domain.NotificationDraft) (*domain.Notification, error) {
	details, err := json.Marshal(draft.Details)
	if err != nil {
		return nil, err
	}

	notification := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      draft.Type,
		Message:   draft.Message,
		Details:   json.RawMessage(details),
		CreatedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertNotification = `INSERT INTO notifications (id, user_id, type, message, details, created_at, is_read)
        VALUES ($1, $2, $3, $4, $5, $6, FALSE)`
	if _, err = tx.Exec(ctx, insertNotification,
		notification.ID, notification.UserID, string(notification.Type), notification.Message, details, notification.CreatedAt,
	); err != nil {
		return nil, err
	}

	const insertEvent = `INSERT INTO notification_outbox (user_id, notification_id, event_type, payload)
        VALUES ($1, $2, $3, $4)`
	if _, err = tx.Exec(ctx, insertEvent,
		notification.UserID, notification.ID, outbox.EventTypeNotificationCreated, payload,
	); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &notification, nil
}

// ListByUser returns the user's notifications, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	const query = `SELECT id, user_id, type, message, details, created_at, is_read
        FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var (
			notification domain.Notification
			details      []byte
		)
		if err := rows.Scan(&notification.ID, &notification.UserID, &notification.Type,
			&notification.Message, &details, &notification.CreatedAt, &notification.IsRead); err != nil {
			return nil, err
		}
		notification.Details = json.RawMessage(details)
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

// MarkRead marks one of the user's notifications as read.
func (r *Repository) MarkRead(ctx context.Context, userID, notificationID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		notificationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification %s", domain.ErrNotFound, notificationID)
	}
	return nil
}

// CreateGoal persists a goal.
func (r *Repository) CreateGoal(ctx context.Context, goal domain.Goal) error {
	const stmt = `INSERT INTO goals (id, user_id, type, name, target_value, current_value, unit,
            start_date, end_date, status, exercise_id, description, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := r.pool.Exec(ctx, stmt,
		goal.ID, goal.UserID, string(goal.Type), goal.Name, goal.TargetValue, goal.CurrentValue,
		goal.Unit, goal.StartDate.UTC(), goal.EndDate, string(goal.Status), goal.ExerciseID,
		goal.Description, goal.CreatedAt, goal.UpdatedAt,
	)
	return err
}

// ListGoals returns the user's goals, newest first.
func (r *Repository) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	const query = `SELECT id, user_id, type, name, target_value, current_value, unit,
            start_date, end_date, status, exercise_id, description, created_at, updated_at
        FROM goals WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

// UpdateGoal applies a partial update inside a transaction.
func (r *Repository) UpdateGoal(ctx context.Context, userID, goalID string, update domain.GoalUpdate) (*domain.Goal, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const query = `SELECT id, user_id, type, name, target_value, current_value, unit,
            start_date, end_date, status, exercise_id, description, created_at, updated_at
        FROM goals WHERE id = $1 AND user_id = $2 FOR UPDATE`

	goal, err := scanGoal(tx.QueryRow(ctx, query, goalID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("%w: goal %s", domain.ErrNotFound, goalID)
		}
		return nil, err
	}

	update.Apply(&goal)
	goal.UpdatedAt = time.Now().UTC()

	const stmt = `UPDATE goals SET type=$2, name=$3, target_value=$4, current_value=$5, unit=$6,
            start_date=$7, end_date=$8, status=$9, exercise_id=$10, description=$11, updated_at=$12
        WHERE id = $1`
	if _, err = tx.Exec(ctx, stmt,
		goal.ID, string(goal.Type), goal.Name, goal.TargetValue, goal.CurrentValue, goal.Unit,
		goal.StartDate, goal.EndDate, string(goal.Status), goal.ExerciseID, goal.Description, goal.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &goal, nil
}

// DeleteGoal removes one of the user's goals.
func (r *Repository) DeleteGoal(ctx context.Context, userID, goalID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: goal %s", domain.ErrNotFound, goalID)
	}
	return nil
}

// claimTTL is how long a fetched-but-unpublished claim is honored. A claim
// older than this is assumed to belong to a crashed dispatcher and the events
// become fetchable again.
const claimTTL = time.Minute

// FetchEvents claims up to limit undelivered outbox events. Rows claimed by a
// live dispatcher within claimTTL are skipped, so two dispatchers do not
// publish the same batch.
func (r *Repository) FetchEvents(ctx context.Context, limit int) ([]outbox.Event, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const query = `SELECT event_id, user_id, notification_id, event_type, payload, created_at
        FROM notification_outbox
        WHERE published_at IS NULL AND (claimed_at IS NULL OR claimed_at < $2)
        ORDER BY event_id
        LIMIT $1
        FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, limit, time.Now().UTC().Add(-claimTTL))
	if err != nil {
		return nil, err
	}

	var (
		events []outbox.Event
		ids    []int64
	)
	for rows.Next() {
		var event outbox.Event
		if err = rows.Scan(&event.ID, &event.UserID, &event.NotificationID, &event.EventType, &event.Payload, &event.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, event)
		ids = append(ids, event.ID)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		tx.Rollback(ctx)
		return nil, nil
	}

	if _, err = tx.Exec(ctx, `UPDATE notification_outbox SET claimed_at = NOW() WHERE event_id = ANY($1)`, ids); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

// MarkDelivered stamps the events as published.
func (r *Repository) MarkDelivered(ctx context.Context, ids []int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE notification_outbox SET published_at = NOW() WHERE event_id = ANY($1)`, ids)
	return err
}

func scanGoal(row pgx.Row) (domain.Goal, error) {
	var (
		goal       domain.Goal
		goalType   string
		goalStatus string
	)
	err := row.Scan(&goal.ID, &goal.UserID, &goalType, &goal.Name, &goal.TargetValue,
		&goal.CurrentValue, &goal.Unit, &goal.StartDate, &goal.EndDate, &goalStatus,
		&goal.ExerciseID, &goal.Description, &goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return domain.Goal{}, err
	}
	goal.Type = domain.GoalType(goalType)
	goal.Status = domain.GoalStatus(goalStatus)
	return goal, nil
}
