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

	httptransport "github.com/connecta/citizen-service/internal/api/http"
	"github.com/connecta/citizen-service/internal/api/http/handlers"
	"github.com/connecta/citizen-service/internal/auth"
	"github.com/connecta/citizen-service/internal/cache"
	"github.com/connecta/citizen-service/internal/config"
	"github.com/connecta/citizen-service/internal/events"
	"github.com/connecta/citizen-service/internal/observability"
	"github.com/connecta/citizen-service/internal/persistence"
	"github.com/connecta/citizen-service/internal/repository"
	"github.com/connecta/citizen-service/internal/service"
	"github.com/connecta/citizen-service/internal/transport"
	"github.com/connecta/citizen-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	txManager := persistence.NewTxManager(pool)
	clock := service.SystemClock{}
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	categoryRepo := repository.NewCategoryRepository(pool)
	serviceRepo := repository.NewCatalogServiceRepository(pool)
	protocolRepo := repository.NewProtocolRepository(pool)
	dataRepo := repository.NewProtocolDataRepository(pool)
	historyRepo := repository.NewProtocolHistoryRepository(pool)
	commentRepo := repository.NewProtocolCommentRepository(pool)
	commRepo := repository.NewCommunicationRepository(pool)
	recipientRepo := repository.NewRecipientRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	catalogCache := cache.NewCatalogCache(redis.Client, logger, 5*time.Minute)

	catalogService := service.NewCatalogService(service.CatalogDependencies{
		CategoryRepo: categoryRepo,
		ServiceRepo:  serviceRepo,
		Cache:        catalogCache,
		TxManager:    txManager,
	})
	protocolService := service.NewProtocolService(service.ProtocolDependencies{
		ProtocolRepo: protocolRepo,
		DataRepo:     dataRepo,
		HistoryRepo:  historyRepo,
		CommentRepo:  commentRepo,
		ServiceRepo:  serviceRepo,
		UserRepo:     userRepo,
		TxManager:    txManager,
		Clock:        clock,
		Dispatcher:   dispatcher,
	})

	registry := transport.NewRegistry(
		transport.NewBrevoEmailSender(cfg.Mail),
		transport.NewLoggingSMSSender(logger),
		transport.NewLoggingPushSender(logger),
	)
	dispatchService := service.NewDispatchService(service.DispatchDependencies{
		CommunicationRepo: commRepo,
		RecipientRepo:     recipientRepo,
		Resolver:          transport.NewStaticResolver(cfg.Dispatch),
		Registry:          registry,
		TxManager:         txManager,
		Clock:             clock,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})

	authService := service.NewAuthService(cfg.Auth, userRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	dispatchWorker := worker.NewDispatchWorker(dispatchService, logger, cfg.Dispatch.SweepInterval())
	dispatchWorker.Start(ctx)
	defer dispatchWorker.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Categories:     handlers.NewCategoriesHandler(catalogService),
		Services:       handlers.NewServicesHandler(catalogService),
		Protocols:      handlers.NewProtocolsHandler(protocolService, clock),
		Communications: handlers.NewCommunicationsHandler(dispatchService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
