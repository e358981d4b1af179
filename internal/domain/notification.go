package domain

import "time"

// NotificationType enumerates the categories the engine emits.
type NotificationType string

const (
	NotificationMotivation    NotificationType = "motivation"
	NotificationLowMotivation NotificationType = "low_motivation_alert"
	NotificationWelcomeBack   NotificationType = "welcome_back"
	NotificationWeeklySummary NotificationType = "weekly_summary"
)

// Display strings shown to the user for each category.
const (
	MessageInitialMotivation = "⚡ Stay consistent! Log your first workout to start tracking your progress."
	MessageLowMotivation     = "💡 You've been away a few days. Let's get back to it!"
	MessageWelcomeBack       = "👋 Welcome back! Let's restart your journey strong!"
	MessageWeeklySummary     = "📊 Your weekly summary is here!"
)

// Notification is a stored notification record. Rows are created by the jobs
// and only ever mutated by the mark-read endpoint.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Details   any              `json:"details"`
	CreatedAt time.Time        `json:"created_at"`
	IsRead    bool             `json:"is_read"`
}

// NotificationDraft is a notification decided by core logic but not yet
// persisted; the store assigns id and created_at.
type NotificationDraft struct {
	Type    NotificationType
	Message string
	Details any
}

// MotivationDetails is the payload for initial motivation notifications.
type MotivationDetails struct {
	Reason string `json:"reason"`
}

// EngagementDetails is the payload for low-motivation and welcome-back
// notifications.
type EngagementDetails struct {
	DaysSinceLastWorkout int `json:"days_since_last_workout"`
}
