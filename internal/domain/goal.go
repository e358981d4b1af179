package domain

import (
	"fmt"
	"time"
)

// GoalType classifies what a goal tracks.
type GoalType string

const (
	GoalTypeStrength    GoalType = "strength"
	GoalTypeWeightLoss  GoalType = "weight_loss"
	GoalTypeConsistency GoalType = "consistency"
	GoalTypeEndurance   GoalType = "endurance"
	GoalTypeCustom      GoalType = "custom"
)

// Valid reports whether the type is one of the known values.
func (t GoalType) Valid() bool {
	switch t {
	case GoalTypeStrength, GoalTypeWeightLoss, GoalTypeConsistency, GoalTypeEndurance, GoalTypeCustom:
		return true
	}
	return false
}

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusFailed    GoalStatus = "failed"
	GoalStatusArchived  GoalStatus = "archived"
)

// Valid reports whether the status is one of the known values.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusFailed, GoalStatusArchived:
		return true
	}
	return false
}

// Goal is a user-defined fitness target.
type Goal struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Type         GoalType   `json:"type"`
	Name         string     `json:"name"`
	TargetValue  float64    `json:"target_value"`
	CurrentValue float64    `json:"current_value"`
	Unit         string     `json:"unit"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Status       GoalStatus `json:"status"`
	ExerciseID   *string    `json:"exercise_id,omitempty"`
	Description  *string    `json:"description,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// GoalUpdate carries the optional fields of a partial goal update; nil fields
// are left untouched.
type GoalUpdate struct {
	Type         *GoalType
	Name         *string
	TargetValue  *float64
	CurrentValue *float64
	Unit         *string
	StartDate    *time.Time
	EndDate      *time.Time
	Status       *GoalStatus
	ExerciseID   *string
	Description  *string
}

// Empty reports whether the update touches nothing.
func (u GoalUpdate) Empty() bool {
	return u.Type == nil && u.Name == nil && u.TargetValue == nil && u.CurrentValue == nil &&
		u.Unit == nil && u.StartDate == nil && u.EndDate == nil && u.Status == nil &&
		u.ExerciseID == nil && u.Description == nil
}

// Validate checks enum fields of the update.
func (u GoalUpdate) Validate() error {
	if u.Type != nil && !u.Type.Valid() {
		return fmt.Errorf("invalid goal type %q", *u.Type)
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("invalid goal status %q", *u.Status)
	}
	return nil
}

// Apply merges the update into the goal.
func (u GoalUpdate) Apply(goal *Goal) {
	if u.Type != nil {
		goal.Type = *u.Type
	}
	if u.Name != nil {
		goal.Name = *u.Name
	}
	if u.TargetValue != nil {
		goal.TargetValue = *u.TargetValue
	}
	if u.CurrentValue != nil {
		goal.CurrentValue = *u.CurrentValue
	}
	if u.Unit != nil {
		goal.Unit = *u.Unit
	}
	if u.StartDate != nil {
		goal.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		goal.EndDate = u.EndDate
	}
	if u.Status != nil {
		goal.Status = *u.Status
	}
	if u.ExerciseID != nil {
		goal.ExerciseID = u.ExerciseID
	}
	if u.Description != nil {
		goal.Description = u.Description
	}
}
