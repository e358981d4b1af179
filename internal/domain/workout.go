package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// WorkoutLog is an immutable record of one logged workout. Exercises arrive as
// free-form JSON from clients and older rows, so decoding is lenient: entries
// that cannot be decoded are dropped rather than failing the whole log.
type WorkoutLog struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	WorkoutID string       `json:"workout_id"`
	Date      time.Time    `json:"date"`
	Exercises ExerciseList `json:"exercises"`
}

// ExerciseList decodes a JSON array of exercise entries, skipping entries with
// an unusable shape (e.g. sets that are not a list).
type ExerciseList []ExerciseEntry

// UnmarshalJSON implements per-entry tolerant decoding. A payload that is not
// an array at all decodes to an empty list.
func (l *ExerciseList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}
	entries := make(ExerciseList, 0, len(raw))
	for _, item := range raw {
		var entry ExerciseEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	*l = entries
	return nil
}

// ExerciseEntry is one exercise within a workout log.
type ExerciseEntry struct {
	ExerciseID ExerciseID `json:"exerciseId"`
	Sets       []SetEntry `json:"sets"`
}

// ExerciseID normalises the mixed numeric/string identifiers clients send.
type ExerciseID string

// UnmarshalJSON accepts both string and numeric exercise identifiers.
func (id *ExerciseID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ExerciseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ExerciseID(n.String())
		return nil
	}
	return fmt.Errorf("%w: exerciseId is neither string nor number", ErrMalformedRecord)
}

// SetEntry is one set within an exercise entry. Missing weight or reps decode
// to zero and contribute no volume.
type SetEntry struct {
	Weight float64 `json:"weight"`
	Reps   float64 `json:"reps"`
}
