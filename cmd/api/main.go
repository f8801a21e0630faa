package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/grant-service/internal/api/http"
	"github.com/spec-kit/grant-service/internal/api/http/handlers"
	"github.com/spec-kit/grant-service/internal/auth"
	"github.com/spec-kit/grant-service/internal/config"
	"github.com/spec-kit/grant-service/internal/events"
	"github.com/spec-kit/grant-service/internal/lock"
	"github.com/spec-kit/grant-service/internal/observability"
	"github.com/spec-kit/grant-service/internal/persistence"
	"github.com/spec-kit/grant-service/internal/repository"
	"github.com/spec-kit/grant-service/internal/service"
	"github.com/spec-kit/grant-service/internal/worker"
)

const notificationQueueSize = 256

type stores struct {
	users        repository.UserRepository
	applications repository.ApplicationRepository
	history      repository.ApplicationHistoryRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := newStores(pg)

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Lock.Backend == config.LockBackendRedis && redis.Enabled() {
		locker = lock.NewRedisLocker(redis.Client, lock.RedisOptions{
			Prefix: "grant:lock:",
			TTL:    cfg.Lock.TTL(),
			Retry:  cfg.Lock.RetryInterval(),
		}, logger)
	}

	var revocations auth.RevocationStore = auth.NewMemoryRevocationStore()
	if redis.Enabled() {
		revocations = auth.NewRedisRevocationStore(redis.Client, "grant:session:revoked:")
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(logger, cfg.Notification)
	notifier := worker.StartNotificationWorker(ctx, dispatcher, notifications, notificationQueueSize, logger)
	defer notifier.Stop()

	if cfg.App.SeedDemo {
		seedStores := service.DemoStores{Users: repos.users, Applications: repos.applications, History: repos.history}
		if err := service.SeedDemo(ctx, seedStores, time.Now(), logger); err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	applicationService := service.NewApplicationService(service.ApplicationDependencies{
		ApplicationRepo: repos.applications,
		UserRepo:        repos.users,
		HistoryRepo:     repos.history,
		Locker:          locker,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
		Policy:          cfg.Workflow.Policy(),
		LockTimeout:     cfg.Lock.WaitTimeout(),
	})
	userService := service.NewUserService(repos.users, dispatcher, logger)
	sessionService := service.NewSessionService(service.SessionDependencies{
		UserRepo:   repos.users,
		Tokens:     tokens,
		Revocation: revocations,
		Locker:     locker,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Applications:   handlers.NewApplicationsHandler(applicationService),
		Users:          handlers.NewUsersHandler(userService),
		Sessions:       handlers.NewSessionHandler(sessionService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.users, revocations),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func newStores(pg *persistence.Postgres) stores {
	if pg.Enabled() {
		return stores{
			users:        repository.NewUserRepository(pg.Pool),
			applications: repository.NewApplicationRepository(pg.Pool),
			history:      repository.NewApplicationHistoryRepository(pg.Pool),
		}
	}
	return stores{
		users:        repository.NewMemoryUserRepository(),
		applications: repository.NewMemoryApplicationRepository(),
		history:      repository.NewMemoryApplicationHistoryRepository(),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
