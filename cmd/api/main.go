package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/fitdesk/gymportal-backend/api/routes"
	"github.com/fitdesk/gymportal-backend/internal/addons"
	"github.com/fitdesk/gymportal-backend/internal/fees"
	"github.com/fitdesk/gymportal-backend/internal/memberships"
	"github.com/fitdesk/gymportal-backend/internal/notifications"
	"github.com/fitdesk/gymportal-backend/internal/payments"
	"github.com/fitdesk/gymportal-backend/internal/trainers"
	"github.com/fitdesk/gymportal-backend/pkg/config"
	"github.com/fitdesk/gymportal-backend/pkg/db"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
	"github.com/fitdesk/gymportal-backend/pkg/migrate"
	"github.com/fitdesk/gymportal-backend/pkg/redis"
)

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

	membershipsRepo := memberships.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	addonsRepo := addons.NewRepository(dbClient.DB())
	trainersRepo := trainers.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	feesRepo := fees.NewRepository(dbClient.DB())

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	feesService, err := fees.NewService(fees.ServiceParams{
		Repo:   feesRepo,
		Tx:     dbClient,
		Config: cfg.Fees,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create fees service", err)
		os.Exit(1)
	}

	membershipsService, err := memberships.NewService(memberships.ServiceParams{
		Repo:        membershipsRepo,
		Payments:    paymentsRepo,
		Addons:      addonsRepo,
		Assignments: trainersRepo,
		Notifier:    notificationsService,
		Lifecycle:   cfg.Lifecycle,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create memberships service", err)
		os.Exit(1)
	}

	submissionLock, err := payments.NewRedisSubmissionLock(redisClient, cfg.Lifecycle.SubmissionLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create submission lock", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:        paymentsRepo,
		Memberships: membershipsService,
		Guard:       membershipsRepo,
		Addons:      addonsRepo,
		Assignments: trainersRepo,
		Fees:        feesService,
		Locker:      submissionLock,
		Notifier:    notificationsService,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Memberships:   membershipsService,
			Payments:      paymentsService,
			Fees:          feesService,
			Trainers:      trainersRepo,
			Notifications: notificationsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
