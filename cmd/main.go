package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"kino-alert-matching-service/internal/config"
	"kino-alert-matching-service/internal/database"
	"kino-alert-matching-service/internal/handler"
	"kino-alert-matching-service/internal/matching"
	"kino-alert-matching-service/internal/messaging"
	"kino-alert-matching-service/internal/middleware"
	"kino-alert-matching-service/internal/notify"
	"kino-alert-matching-service/internal/repository"
	"kino-alert-matching-service/internal/service"
	"kino-alert-matching-service/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	db, err := database.NewPostgres(cfg.DB)
	if err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without cache and rate limiting", "error", err)
	} else {
		defer rdb.Close()
	}

	// Repositories
	prefRepo := repository.NewPreferenceRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	userRepo := repository.NewUserRepository(db)

	prefSvc := service.NewPreferenceService(prefRepo, rdb)

	// Matching
	finder := matching.NewFinder(prefSvc, catalogRepo, cfg.Matching.MinScore, cfg.Matching.CallTimeout)
	persister := matching.NewPersister(matchRepo, cfg.Matching.CallTimeout)
	runner := matching.NewRunner(prefSvc, finder, persister, cfg.Matching.Concurrency, cfg.Matching.CallTimeout)

	// Notification channels
	var mailer notify.MailSender = notify.LogSender{}
	if cfg.SMTP.Host != "" {
		mailer = &notify.SMTPSender{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Timeout:  cfg.Notify.CallTimeout,
		}
	} else {
		slog.Warn("SMTP not configured, email alerts are logged only")
	}
	email := notify.NewEmailChannel(
		userRepo,
		notify.WithMailBreaker(mailer, notify.DefaultBreakerConfig()),
		cfg.Notify.EmailPerSecond,
	)

	var (
		push   notify.Channel
		broker handler.BrokerStatus
	)
	if cfg.NATS.URL != "" {
		nc, err := messaging.NewClient(messaging.DefaultConfig(cfg.NATS.URL, cfg.NATS.Name))
		if err != nil {
			slog.Warn("NATS unavailable, push alerts disabled", "error", err)
		} else {
			defer nc.Close()
			push = notify.NewPushChannel(notify.WithPushBreaker(nc, notify.DefaultBreakerConfig()))
			broker = nc
		}
	}

	dispatcher := notify.NewDispatcher(matchRepo, alertRepo, prefSvc, email, push, cfg.Notify.CallTimeout)
	matchSvc := service.NewMatchService(runner, finder, dispatcher, matchRepo, alertRepo)

	app := fiber.New(fiber.Config{
		AppName:      "Kino Alert Matching Service",
		ServerHeader: "Kino-Alert-Matching",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(handler.ErrorResponse{Error: err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	swaggerYAML, err := os.ReadFile("docs/swagger.yaml")
	if err != nil {
		slog.Warn("swagger.yaml not found", "error", err)
	} else {
		handler.RegisterSwagger(app, swaggerYAML)
	}

	routes := handler.Routes{
		Health:      handler.NewHealthHandler(db, broker),
		Preferences: handler.NewPreferenceHandler(prefSvc),
		Matches:     handler.NewMatchHandler(matchSvc),
		Admin:       middleware.AdminAuth(cfg.AdminToken),
	}
	if rdb != nil {
		routes.RateLimit = middleware.NewRateLimiter(rdb, cfg.RateLimitMax, cfg.RateLimitWindowSeconds).Handler()
	}
	handler.Register(app, routes)

	if cfg.AdminToken == "" {
		slog.Warn("ADMIN_TOKEN not set, operator endpoints are disabled")
	}

	tree := supervisor.NewTree(log, supervisor.DefaultTreeConfig())
	addr := ":" + cfg.Port
	tree.AddAPIService(supervisor.NewFiberService(app, addr, 10*time.Second))

	if cfg.Scheduler.MatchInterval > 0 {
		tree.AddJob(supervisor.NewIntervalJob("matching", cfg.Scheduler.MatchInterval, func(ctx context.Context) error {
			_, err := runner.RunForAllUsers(ctx)
			return err
		}))
	}
	if cfg.Scheduler.NotifyInterval > 0 {
		tree.AddJob(supervisor.NewIntervalJob("notifications", cfg.Scheduler.NotifyInterval, func(ctx context.Context) error {
			_, err := dispatcher.DispatchPending(ctx)
			return err
		}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting matching service", "addr", addr)
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("supervisor stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("matching service stopped")
}
