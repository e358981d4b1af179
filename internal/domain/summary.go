package domain

import "math"

// WeeklySummary aggregates a user's workouts over the trailing 7-day window.
// It doubles as the weekly_summary notification payload.
type WeeklySummary struct {
	TotalWorkouts   int     `json:"total_workouts"`
	TotalVolume     float64 `json:"total_volume"`
	UniqueExercises int     `json:"unique_exercises"`
}

// Summarize computes workout count, total volume (sum of weight x reps over
// every set, rounded to 2 decimals) and the number of distinct exercise ids.
// Entries without an exercise id still contribute volume; entries without sets
// still contribute their id.
func Summarize(logs []WorkoutLog) WeeklySummary {
	summary := WeeklySummary{TotalWorkouts: len(logs)}
	seen := make(map[ExerciseID]struct{})

	for _, log := range logs {
		for _, entry := range log.Exercises {
			for _, set := range entry.Sets {
				summary.TotalVolume += set.Weight * set.Reps
			}
			if entry.ExerciseID != "" {
				seen[entry.ExerciseID] = struct{}{}
			}
		}
	}

	summary.TotalVolume = math.Round(summary.TotalVolume*100) / 100
	summary.UniqueExercises = len(seen)
	return summary
}

// NewWeeklySummaryDraft wraps a summary in its notification draft.
func NewWeeklySummaryDraft(summary WeeklySummary) NotificationDraft {
	return NotificationDraft{
		Type:    NotificationWeeklySummary,
		Message: MessageWeeklySummary,
		Details: summary,
	}
}
