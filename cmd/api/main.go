package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamzah927/fitrek-backend/internal/api"
	"github.com/hamzah927/fitrek-backend/internal/auth"
	"github.com/hamzah927/fitrek-backend/internal/config"
	"github.com/hamzah927/fitrek-backend/internal/jobs"
	"github.com/hamzah927/fitrek-backend/internal/outbox"
	persistence "github.com/hamzah927/fitrek-backend/internal/persistence/postgres"
	"github.com/hamzah927/fitrek-backend/internal/retry"
	httptransport "github.com/hamzah927/fitrek-backend/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := persistence.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	repo := persistence.NewRepository(pool)
	publisher := outbox.NewNotificationPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	dispatcher := outbox.NewDispatcher(repo, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	go dispatcher.Start(ctx)

	retryCfg := retry.Config{
		MaxAttempts:  cfg.RetryMaxAttempts,
		InitialDelay: cfg.RetryInitialDelay,
		MaxDelay:     cfg.RetryMaxDelay,
		Multiplier:   2,
	}

	daily := jobs.NewDailyEngagement(repo, repo, jobs.WithDailyRetry(retryCfg))
	weekly := jobs.NewWeeklySummary(repo, repo, repo, jobs.WithWeeklyRetry(retryCfg))

	dailyScheduler := jobs.NewScheduler(jobs.DailyAtUTC(cfg.DailyHourUTC, cfg.DailyMinuteUTC), daily)
	weeklyScheduler := jobs.NewScheduler(jobs.WeeklyAtUTC(cfg.WeeklyWeekday, cfg.WeeklyHourUTC, cfg.WeeklyMinuteUTC), weekly)
	go dailyScheduler.Start(ctx)
	go weeklyScheduler.Start(ctx)

	handler := api.NewHandler(repo, repo, repo, repo)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Simple CORS middleware for local dev
	cors := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(
		auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		func(r *http.Request) bool {
			return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
		},
	)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address: cfg.HTTPAddress,
	}, authMiddleware.Wrap(logger(cors(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("fitrek-backend listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	dispatcher.Wait()
	dailyScheduler.Wait()
	weeklyScheduler.Wait()
}
