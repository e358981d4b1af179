// Command jobs runs a single notification job to completion, for cron-style
// deployments and manual backfills.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hamzah927/fitrek-backend/internal/config"
	"github.com/hamzah927/fitrek-backend/internal/jobs"
	persistence "github.com/hamzah927/fitrek-backend/internal/persistence/postgres"
	"github.com/hamzah927/fitrek-backend/internal/retry"
)

func main() {
	jobName := flag.String("job", "", "job to run: daily or weekly")
	timeout := flag.Duration("timeout", 10*time.Minute, "maximum run duration")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Println("received shutdown signal")
		cancel()
	}()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := persistence.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	repo := persistence.NewRepository(pool)
	retryCfg := retry.Config{
		MaxAttempts:  cfg.RetryMaxAttempts,
		InitialDelay: cfg.RetryInitialDelay,
		MaxDelay:     cfg.RetryMaxDelay,
		Multiplier:   2,
	}

	var job jobs.Job
	switch *jobName {
	case "daily":
		job = jobs.NewDailyEngagement(repo, repo, jobs.WithDailyRetry(retryCfg))
	case "weekly":
		job = jobs.NewWeeklySummary(repo, repo, repo, jobs.WithWeeklyRetry(retryCfg))
	default:
		log.Fatalf("unknown job %q (expected daily or weekly)", *jobName)
	}

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		log.Fatalf("%s failed after %s: %v", job.Name(), time.Since(start).Round(time.Millisecond), err)
	}
	log.Printf("%s completed in %s", job.Name(), time.Since(start).Round(time.Millisecond))
}
