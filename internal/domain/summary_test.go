package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSummarizeComputesVolumeAndUniqueExercises(t *testing.T) {
	logs := []WorkoutLog{
		{Exercises: ExerciseList{{ExerciseID: "1", Sets: []SetEntry{{Weight: 10, Reps: 5}}}}},
		{Exercises: ExerciseList{{ExerciseID: "2", Sets: []SetEntry{{Weight: 20, Reps: 3}}}}},
	}

	summary := Summarize(logs)
	require.Equal(t, 2, summary.TotalWorkouts)
	require.Equal(t, 110.0, summary.TotalVolume)
	require.Equal(t, 2, summary.UniqueExercises)
}

func TestSummarizeEmptyWindow(t *testing.T) {
	summary := Summarize(nil)
	require.Equal(t, WeeklySummary{}, summary)
}

func TestSummarizeDeduplicatesExercisesAcrossLogs(t *testing.T) {
	logs := []WorkoutLog{
		{Exercises: ExerciseList{
			{ExerciseID: "squat", Sets: []SetEntry{{Weight: 100, Reps: 5}}},
			{ExerciseID: "bench", Sets: []SetEntry{{Weight: 60, Reps: 8}}},
		}},
		{Exercises: ExerciseList{
			{ExerciseID: "squat", Sets: []SetEntry{{Weight: 102.5, Reps: 5}}},
		}},
	}

	summary := Summarize(logs)
	require.Equal(t, 2, summary.TotalWorkouts)
	require.Equal(t, 2, summary.UniqueExercises)
	require.Equal(t, 100*5+60*8+102.5*5, summary.TotalVolume)
}

func TestSummarizeRoundsVolume(t *testing.T) {
	logs := []WorkoutLog{
		{Exercises: ExerciseList{{ExerciseID: "1", Sets: []SetEntry{{Weight: 33.333, Reps: 3}}}}},
	}
	require.Equal(t, 100.0, Summarize(logs).TotalVolume)
}

func TestSummarizeEntryWithoutSetsStillCountsExercise(t *testing.T) {
	logs := []WorkoutLog{
		{Exercises: ExerciseList{
			{ExerciseID: "row"},
			{ExerciseID: "curl", Sets: []SetEntry{{Weight: 12, Reps: 10}}},
		}},
	}

	summary := Summarize(logs)
	require.Equal(t, 120.0, summary.TotalVolume)
	require.Equal(t, 2, summary.UniqueExercises)
}

func TestExerciseListSkipsMalformedEntries(t *testing.T) {
	raw := []byte(`[
		{"exerciseId": 7, "sets": [{"weight": 10, "reps": 5}]},
		{"exerciseId": "8", "sets": "not-a-list"},
		{"exerciseId": "9", "sets": [{"reps": 4}, {"weight": 5}]}
	]`)

	var list ExerciseList
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 2)
	require.Equal(t, ExerciseID("7"), list[0].ExerciseID)
	require.Equal(t, ExerciseID("9"), list[1].ExerciseID)

	// Missing weight/reps default to zero volume.
	summary := Summarize([]WorkoutLog{{Exercises: list}})
	require.Equal(t, 50.0, summary.TotalVolume)
	require.Equal(t, 2, summary.UniqueExercises)
}

func TestExerciseListToleratesNonArrayPayload(t *testing.T) {
	var list ExerciseList
	require.NoError(t, json.Unmarshal([]byte(`{"oops": true}`), &list))
	require.Empty(t, list)
}

func TestWorkoutLogDecodesClientPayload(t *testing.T) {
	raw := []byte(`{
		"id": "log-1",
		"user_id": "user-1",
		"workout_id": "push-day",
		"date": "2025-11-02T18:30:00Z",
		"exercises": [{"exerciseId": 1, "sets": [{"weight": 40, "reps": 12, "rpe": 8}]}]
	}`)

	var log WorkoutLog
	require.NoError(t, json.Unmarshal(raw, &log))
	require.Equal(t, "push-day", log.WorkoutID)
	require.Equal(t, time.Date(2025, time.November, 2, 18, 30, 0, 0, time.UTC), log.Date)
	require.Len(t, log.Exercises, 1)
	require.Equal(t, []SetEntry{{Weight: 40, Reps: 12}}, log.Exercises[0].Sets)
}

func TestStatusFlagsRejectUnknownKeys(t *testing.T) {
	var flags StatusFlags
	err := json.Unmarshal([]byte(`{"initial_motivation_sent": true, "mystery_flag": true}`), &flags)
	require.ErrorIs(t, err, ErrMalformedRecord)

	require.NoError(t, json.Unmarshal([]byte(`{"low_motivation_sent": true}`), &flags))
	require.True(t, flags.LowMotivationSent)
	require.False(t, flags.InitialMotivationSent)
}
