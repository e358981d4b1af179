// Package api exposes the HTTP surface of the fitness backend.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hamzah927/fitrek-backend/internal/auth"
	"github.com/hamzah927/fitrek-backend/internal/domain"
	"github.com/hamzah927/fitrek-backend/internal/observability"
)

// Handler coordinates HTTP requests with the domain stores.
type Handler struct {
	users         domain.UserStore
	workouts      domain.WorkoutLogStore
	notifications domain.NotificationStore
	goals         domain.GoalStore
	now           func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(users domain.UserStore, workouts domain.WorkoutLogStore, notifications domain.NotificationStore, goals domain.GoalStore) *Handler {
	return &Handler{
		users:         users,
		workouts:      workouts,
		notifications: notifications,
		goals:         goals,
		now:           time.Now,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/workout-logs", h.workoutLogs)
	mux.HandleFunc("/v1/notifications", h.listNotifications)
	mux.HandleFunc("/v1/notifications/", h.notificationByID)
	mux.HandleFunc("/v1/goals", h.goalCollection)
	mux.HandleFunc("/v1/goals/", h.goalByID)
	mux.HandleFunc("/v1/users/status", h.userStatus)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) workoutLogs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createWorkoutLog(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createWorkoutLog(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req CreateWorkoutLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	log := domain.WorkoutLog{
		ID:        uuid.NewString(),
		UserID:    claims.Subject,
		WorkoutID: req.WorkoutID,
		Date:      req.Date.UTC(),
		Exercises: req.Exercises,
	}

	if err := h.workouts.CreateWorkoutLog(r.Context(), log); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	observability.RecordWorkoutLogged(log.Date)

	// Logging a workout is what moves the engagement clock. The log row is the
	// source of truth, so a failure updating the pointer is reported but does
	// not roll the log back.
	if err := h.users.SetLastWorkoutDate(r.Context(), claims.Subject, log.Date); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toWorkoutLogView(log))
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	notifications, err := h.notifications.ListByUser(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	items := make([]domain.Notification, 0, len(notifications))
	for _, n := range notifications {
		if unreadOnly && n.IsRead {
			continue
		}
		items = append(items, n)
	}

	writeJSON(w, http.StatusOK, ListNotificationsResponse{Items: items})
}

func (h *Handler) notificationByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/notifications/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing notification id")
		return
	}

	if r.Method != http.MethodPatch || action != "read" {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	if err := h.notifications.MarkRead(r.Context(), claims.Subject, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "notification not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) goalCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createGoal(w, r)
	case http.MethodGet:
		h.listGoals(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createGoal(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	now := h.now().UTC()
	startDate := now
	if req.StartDate != nil {
		startDate = req.StartDate.UTC()
	}
	goal := domain.Goal{
		ID:          uuid.NewString(),
		UserID:      claims.Subject,
		Type:        req.Type,
		Name:        req.Name,
		TargetValue: req.TargetValue,
		Unit:        req.Unit,
		StartDate:   startDate,
		EndDate:     req.EndDate,
		Status:      domain.GoalStatusActive,
		ExerciseID:  req.ExerciseID,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.goals.CreateGoal(r.Context(), goal); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *Handler) listGoals(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	goals, err := h.goals.ListGoals(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	writeJSON(w, http.StatusOK, ListGoalsResponse{Items: goals})
}

func (h *Handler) goalByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/goals/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing goal id")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodPatch:
		h.updateGoal(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		h.deleteGoal(w, r, id)
	case action == "progress" && r.Method == http.MethodPatch:
		h.updateGoalProgress(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) updateGoal(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req UpdateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	update := req.toUpdate()
	if update.Empty() {
		writeError(w, http.StatusBadRequest, "validation_failed", "no fields to update")
		return
	}
	if err := update.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	goal, err := h.goals.UpdateGoal(r.Context(), claims.Subject, id, update)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "goal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *Handler) updateGoalProgress(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req UpdateGoalProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if req.CurrentValue == nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "current_value is required")
		return
	}

	goal, err := h.goals.UpdateGoal(r.Context(), claims.Subject, id, domain.GoalUpdate{CurrentValue: req.CurrentValue})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "goal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *Handler) deleteGoal(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	if err := h.goals.DeleteGoal(r.Context(), claims.Subject, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "goal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userStatus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getUserStatus(w, r)
	case http.MethodPut:
		h.putUserStatus(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) getUserStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	user, err := h.users.GetUser(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	state, daysSince := domain.ClassifyEngagement(user.LastWorkoutDate, h.now().UTC())
	writeJSON(w, http.StatusOK, UserStatusView{
		UserID:          user.ID,
		LastWorkoutDate: user.LastWorkoutDate,
		Flags:           user.StatusFlags,
		EngagementState: state.String(),
		DaysSince:       daysSince,
	})
}

func (h *Handler) putUserStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	// StatusFlags rejects unknown keys, so a drifted client payload fails here
	// instead of corrupting the flag vocabulary.
	var flags domain.StatusFlags
	if err := json.NewDecoder(r.Body).Decode(&flags); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse status flags")
		return
	}

	if err := h.users.UpdateFlags(r.Context(), claims.Subject, flags); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, flags)
}

// CreateWorkoutLogRequest is the payload for POST /v1/workout-logs.
type CreateWorkoutLogRequest struct {
	WorkoutID string              `json:"workout_id"`
	Date      time.Time           `json:"date"`
	Exercises domain.ExerciseList `json:"exercises"`
}

// Validate ensures request correctness.
func (r CreateWorkoutLogRequest) Validate() error {
	if strings.TrimSpace(r.WorkoutID) == "" {
		return errors.New("workout_id is required")
	}
	if r.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

// WorkoutLogView is the response body for a created workout log.
type WorkoutLogView struct {
	ID        string              `json:"id"`
	WorkoutID string              `json:"workout_id"`
	Date      time.Time           `json:"date"`
	Exercises domain.ExerciseList `json:"exercises"`
}

func toWorkoutLogView(log domain.WorkoutLog) WorkoutLogView {
	return WorkoutLogView{
		ID:        log.ID,
		WorkoutID: log.WorkoutID,
		Date:      log.Date,
		Exercises: log.Exercises,
	}
}

// ListNotificationsResponse packages notification list results.
type ListNotificationsResponse struct {
	Items []domain.Notification `json:"items"`
}

// CreateGoalRequest is the payload for POST /v1/goals.
type CreateGoalRequest struct {
	Type        domain.GoalType `json:"type"`
	Name        string          `json:"name"`
	TargetValue float64         `json:"target_value"`
	Unit        string          `json:"unit"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	ExerciseID  *string         `json:"exercise_id,omitempty"`
	Description *string         `json:"description,omitempty"`
}

// Validate ensures request correctness.
func (r CreateGoalRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("type must be one of strength, weight_loss, consistency, endurance, custom")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.TargetValue <= 0 {
		return errors.New("target_value must be > 0")
	}
	if strings.TrimSpace(r.Unit) == "" {
		return errors.New("unit is required")
	}
	return nil
}

// ListGoalsResponse packages goal list results.
type ListGoalsResponse struct {
	Items []domain.Goal `json:"items"`
}

// UpdateGoalRequest is the payload for PATCH /v1/goals/{id}.
type UpdateGoalRequest struct {
	Type         *domain.GoalType   `json:"type,omitempty"`
	Name         *string            `json:"name,omitempty"`
	TargetValue  *float64           `json:"target_value,omitempty"`
	CurrentValue *float64           `json:"current_value,omitempty"`
	Unit         *string            `json:"unit,omitempty"`
	StartDate    *time.Time         `json:"start_date,omitempty"`
	EndDate      *time.Time         `json:"end_date,omitempty"`
	Status       *domain.GoalStatus `json:"status,omitempty"`
	ExerciseID   *string            `json:"exercise_id,omitempty"`
	Description  *string            `json:"description,omitempty"`
}

func (r UpdateGoalRequest) toUpdate() domain.GoalUpdate {
	return domain.GoalUpdate{
		Type:         r.Type,
		Name:         r.Name,
		TargetValue:  r.TargetValue,
		CurrentValue: r.CurrentValue,
		Unit:         r.Unit,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		Status:       r.Status,
		ExerciseID:   r.ExerciseID,
		Description:  r.Description,
	}
}

// UpdateGoalProgressRequest is the payload for PATCH /v1/goals/{id}/progress.
type UpdateGoalProgressRequest struct {
	CurrentValue *float64 `json:"current_value"`
}

// UserStatusView is the response body for GET /v1/users/status.
type UserStatusView struct {
	UserID          string             `json:"user_id"`
	LastWorkoutDate *time.Time         `json:"last_workout_date,omitempty"`
	Flags           domain.StatusFlags `json:"flags"`
	EngagementState string             `json:"engagement_state"`
	DaysSince       int                `json:"days_since_last_workout"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
