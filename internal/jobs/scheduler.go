// Package jobs contains the scheduled notification-generation jobs.
package jobs

import (
	"context"
	"errors"
	"log"
	"time"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Schedule yields the next wall-clock firing time strictly after a given
// instant. All schedules are expressed in UTC.
type Schedule interface {
	Next(after time.Time) time.Time
}

type dailySchedule struct {
	hour, minute int
}

// DailyAtUTC fires once per day at the given UTC time.
func DailyAtUTC(hour, minute int) Schedule {
	return dailySchedule{hour: hour, minute: minute}
}

func (s dailySchedule) Next(after time.Time) time.Time {
	after = after.UTC()
	next := time.Date(after.Year(), after.Month(), after.Day(), s.hour, s.minute, 0, 0, time.UTC)
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

type weeklySchedule struct {
	weekday      time.Weekday
	hour, minute int
}

// WeeklyAtUTC fires once per week on the given weekday at the given UTC time.
func WeeklyAtUTC(weekday time.Weekday, hour, minute int) Schedule {
	return weeklySchedule{weekday: weekday, hour: hour, minute: minute}
}

func (s weeklySchedule) Next(after time.Time) time.Time {
	after = after.UTC()
	next := time.Date(after.Year(), after.Month(), after.Day(), s.hour, s.minute, 0, 0, time.UTC)
	for next.Weekday() != s.weekday || !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Scheduler runs one job on its schedule until the context is cancelled.
// Schedulers are independent; the daily and weekly jobs each get their own.
type Scheduler struct {
	schedule Schedule
	job      Job
	logger   *log.Logger
	now      func() time.Time
	done     chan struct{}
}

// SchedulerOption configures optional behaviour for the Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger overrides the logger used to report run outcomes.
func WithSchedulerLogger(logger *log.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithSchedulerClock overrides the wall clock, for tests.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// NewScheduler constructs a Scheduler.
func NewScheduler(schedule Schedule, job Job, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		schedule: schedule,
		job:      job,
		logger:   log.New(log.Writer(), "[scheduler] ", log.LstdFlags),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start blocks until the context is cancelled. It should be called in a
// goroutine; pair with Wait during shutdown.
func (s *Scheduler) Start(ctx context.Context) {
	defer close(s.done)

	for {
		next := s.schedule.Next(s.now().UTC())
		timer := time.NewTimer(next.Sub(s.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.logger.Printf("%s: run starting (scheduled for %s)", s.job.Name(), next.Format(time.RFC3339))
		if err := s.job.Run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Printf("%s: run failed: %v", s.job.Name(), err)
			recordJobRun(s.job.Name(), "error", float64(s.now().Unix()))
			continue
		}
		recordJobRun(s.job.Name(), "ok", float64(s.now().Unix()))
	}
}

// Wait blocks until the scheduler loop has exited.
func (s *Scheduler) Wait() {
	<-s.done
}
