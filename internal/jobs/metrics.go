package jobs

import "github.com/prometheus/client_golang/prometheus"

var (
	notificationsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitrek",
		Subsystem: "jobs",
		Name:      "notifications_created_total",
		Help:      "Number of notification records created by background jobs, labeled by type.",
	}, []string{"type"})

	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitrek",
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Number of job runs, labeled by job name and outcome.",
	}, []string{"job", "status"})

	userFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitrek",
		Subsystem: "jobs",
		Name:      "user_failures_total",
		Help:      "Number of users skipped due to per-user processing errors, labeled by job.",
	}, []string{"job"})

	lastRunGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fitrek",
		Subsystem: "jobs",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed run, labeled by job.",
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(notificationsCreated, jobRuns, userFailures, lastRunGauge)
}

func recordNotificationCreated(notificationType string) {
	notificationsCreated.WithLabelValues(notificationType).Inc()
}

func recordUserFailure(job string) {
	userFailures.WithLabelValues(job).Inc()
}

func recordJobRun(job, status string, finishedAtUnix float64) {
	jobRuns.WithLabelValues(job, status).Inc()
	lastRunGauge.WithLabelValues(job).Set(finishedAtUnix)
}
