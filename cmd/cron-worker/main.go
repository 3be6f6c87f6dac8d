package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesubash/library-management-system-sub000/internal/borrow"
	"github.com/mesubash/library-management-system-sub000/internal/cron"
	"github.com/mesubash/library-management-system-sub000/internal/stats"
	"github.com/mesubash/library-management-system-sub000/pkg/config"
	"github.com/mesubash/library-management-system-sub000/pkg/db"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
	"github.com/mesubash/library-management-system-sub000/pkg/metrics"
	"github.com/mesubash/library-management-system-sub000/pkg/migrate"
	"github.com/mesubash/library-management-system-sub000/pkg/redis"
)

// Lock TTL outlives one scan by a wide margin so a crashed worker
// cannot wedge the schedule.
const lockTTL = 30 * time.Minute

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	policy, err := borrow.PolicyFromConfig(cfg.Borrow)
	if err != nil {
		logg.Error(context.Background(), "invalid lending policy", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(stats.NewRepository(dbClient), policy.FinePerDay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stats service", err)
		os.Exit(1)
	}

	overdueJob, err := cron.NewOverdueJob(statsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create overdue job", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	lock := cron.NewRedisLock(redisClient, lockTTL)

	runner, err := cron.NewRunner(lock, cfg.Worker.OverdueScanInterval, logg, jobMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create job runner", err)
		os.Exit(1)
	}
	runner.Register(overdueJob)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Worker.OverdueScanInterval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	runner.Start(ctx)

	logg.Info(ctx, "cron worker shutting down gracefully")
}
