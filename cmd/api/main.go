package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/mesubash/library-management-system-sub000/api/routes"
	authsvc "github.com/mesubash/library-management-system-sub000/internal/auth"
	"github.com/mesubash/library-management-system-sub000/internal/borrow"
	"github.com/mesubash/library-management-system-sub000/internal/catalog"
	"github.com/mesubash/library-management-system-sub000/internal/categories"
	"github.com/mesubash/library-management-system-sub000/internal/stats"
	"github.com/mesubash/library-management-system-sub000/internal/users"
	"github.com/mesubash/library-management-system-sub000/pkg/auth/session"
	"github.com/mesubash/library-management-system-sub000/pkg/config"
	"github.com/mesubash/library-management-system-sub000/pkg/db"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
	"github.com/mesubash/library-management-system-sub000/pkg/migrate"
	"github.com/mesubash/library-management-system-sub000/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(
		users.NewRepository(dbClient),
		sessionManager,
		cfg.JWT,
		cfg.Password,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	policy, err := borrow.PolicyFromConfig(cfg.Borrow)
	if err != nil {
		logg.Error(context.Background(), "invalid lending policy", err)
		os.Exit(1)
	}

	borrowService, err := borrow.NewService(dbClient, borrow.NewRepository(dbClient), policy, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create borrow service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(dbClient, catalog.NewRepository(dbClient), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	categoriesService, err := categories.NewService(dbClient, categories.NewRepository(dbClient), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create categories service", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(stats.NewRepository(dbClient), policy.FinePerDay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stats service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
			Auth:       authService,
			Borrow:     borrowService,
			Catalog:    catalogService,
			Categories: categoriesService,
			Stats:      statsService,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "forced shutdown", err)
			os.Exit(1)
		}
	}
}
