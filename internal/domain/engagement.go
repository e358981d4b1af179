package domain

import "time"

// EngagementState buckets a user by how long ago they last logged a workout.
type EngagementState int

const (
	// EngagementNever means no workout has ever been logged.
	EngagementNever EngagementState = iota
	// EngagementActive means the last workout was fewer than 3 days ago.
	EngagementActive
	// EngagementFading means the last workout was 3 to 6 days ago.
	EngagementFading
	// EngagementLapsed means the last workout was 7 or more days ago.
	EngagementLapsed
)

func (s EngagementState) String() string {
	switch s {
	case EngagementNever:
		return "never"
	case EngagementActive:
		return "active"
	case EngagementFading:
		return "fading"
	case EngagementLapsed:
		return "lapsed"
	default:
		return "unknown"
	}
}

// ClassifyEngagement derives the engagement state and the whole-day gap since
// the last workout. The gap is a calendar-date difference: both instants are
// truncated to midnight UTC before subtracting, so a workout late on Monday is
// one day old any time on Tuesday. DaysSince is 0 when no workout exists.
func ClassifyEngagement(lastWorkout *time.Time, now time.Time) (EngagementState, int) {
	if lastWorkout == nil {
		return EngagementNever, 0
	}
	days := daysBetween(*lastWorkout, now)
	switch {
	case days < 3:
		return EngagementActive, days
	case days <= 6:
		return EngagementFading, days
	default:
		return EngagementLapsed, days
	}
}

func daysBetween(from, to time.Time) int {
	// UTC has no DST transitions, so dividing by 24h is exact.
	return int(truncateToDateUTC(to).Sub(truncateToDateUTC(from)).Hours() / 24)
}

func truncateToDateUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EngagementDecision is the outcome of one daily evaluation for one user:
// at most one notification draft plus the flag set to persist.
type EngagementDecision struct {
	State        EngagementState
	DaysSince    int
	Notification *NotificationDraft
	Flags        StatusFlags
	FlagsChanged bool
}

// EvaluateEngagement is the total transition function of the engagement state
// machine. Exactly zero or one notification is drafted per call, and the
// returned flags never have LowMotivationSent and WelcomeBackSent both set.
func EvaluateEngagement(lastWorkout *time.Time, flags StatusFlags, now time.Time) EngagementDecision {
	state, days := ClassifyEngagement(lastWorkout, now)
	decision := EngagementDecision{State: state, DaysSince: days, Flags: flags}

	switch state {
	case EngagementNever:
		if !flags.InitialMotivationSent {
			decision.Notification = &NotificationDraft{
				Type:    NotificationMotivation,
				Message: MessageInitialMotivation,
				Details: MotivationDetails{Reason: "No workouts logged yet."},
			}
			decision.Flags.InitialMotivationSent = true
			decision.FlagsChanged = true
		}

	case EngagementFading:
		if !flags.LowMotivationSent {
			decision.Notification = &NotificationDraft{
				Type:    NotificationLowMotivation,
				Message: MessageLowMotivation,
				Details: EngagementDetails{DaysSinceLastWorkout: days},
			}
			decision.Flags.LowMotivationSent = true
			decision.Flags.WelcomeBackSent = false
			decision.FlagsChanged = true
		}

	case EngagementLapsed:
		if !flags.WelcomeBackSent {
			decision.Notification = &NotificationDraft{
				Type:    NotificationWelcomeBack,
				Message: MessageWelcomeBack,
				Details: EngagementDetails{DaysSinceLastWorkout: days},
			}
			decision.Flags.WelcomeBackSent = true
			decision.Flags.LowMotivationSent = false
			decision.FlagsChanged = true
		}

	case EngagementActive:
		if flags.LowMotivationSent || flags.WelcomeBackSent {
			decision.Flags = StatusFlags{}
			decision.FlagsChanged = true
		}
	}

	return decision
}
