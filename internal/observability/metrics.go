package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	workoutPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitrek",
		Subsystem: "persistence",
		Name:      "last_workout_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout log persisted.",
	})
	notificationGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitrek",
		Subsystem: "persistence",
		Name:      "last_notification_created_timestamp_seconds",
		Help:      "Unix timestamp of the most recent notification persisted.",
	})
)

func init() {
	prometheus.MustRegister(workoutPersistGauge, notificationGauge)
}

// RecordWorkoutLogged updates the workout persistence watermark gauge.
func RecordWorkoutLogged(ts time.Time) {
	if ts.IsZero() {
		return
	}
	workoutPersistGauge.Set(float64(ts.Unix()))
}

// RecordNotificationCreated updates the notification watermark gauge.
func RecordNotificationCreated(ts time.Time) {
	if ts.IsZero() {
		return
	}
	notificationGauge.Set(float64(ts.Unix()))
}
