package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// User is the slice of the user record the notification engine reads and writes.
// Rows are created by signup, outside this service.
type User struct {
	ID              string
	LastWorkoutDate *time.Time
	StatusFlags     StatusFlags
}

// StatusFlags guards at-most-once emission of each motivational category.
// LowMotivationSent and WelcomeBackSent are mutually exclusive after any
// engagement transition.
type StatusFlags struct {
	InitialMotivationSent bool `json:"initial_motivation_sent"`
	LowMotivationSent     bool `json:"low_motivation_sent"`
	WelcomeBackSent       bool `json:"welcome_back_sent"`
}

// UnmarshalJSON rejects unknown keys so that a drifting flag vocabulary in the
// users table fails loudly instead of being silently dropped.
func (f *StatusFlags) UnmarshalJSON(data []byte) error {
	type plain StatusFlags
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var p plain
	if err := dec.Decode(&p); err != nil {
		return fmt.Errorf("%w: user status flags: %v", ErrMalformedRecord, err)
	}
	*f = StatusFlags(p)
	return nil
}
