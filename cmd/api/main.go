package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/felipe2640/garantias-service/internal/api/http"
	"github.com/felipe2640/garantias-service/internal/api/http/handlers"
	"github.com/felipe2640/garantias-service/internal/auth"
	"github.com/felipe2640/garantias-service/internal/config"
	"github.com/felipe2640/garantias-service/internal/dates"
	"github.com/felipe2640/garantias-service/internal/events"
	"github.com/felipe2640/garantias-service/internal/observability"
	"github.com/felipe2640/garantias-service/internal/persistence"
	"github.com/felipe2640/garantias-service/internal/repository"
	"github.com/felipe2640/garantias-service/internal/service"
	"github.com/felipe2640/garantias-service/internal/worker"
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

	loc := dates.LoadLocation(cfg.Workflow.TenantTimezone)

	pool := pg.PoolHandle()
	uow := repository.NewUnitOfWork(pool)
	staffRepo := repository.NewStaffRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	stageRepo := repository.NewStageHistoryRepository(pool)
	timelineRepo := repository.NewTimelineRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	supplierRepo := repository.NewCachedSupplierRepository(
		repository.NewSupplierRepository(pool), redis.Client, logger)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, staffRepo)
	staffService := service.NewStaffService(*cfg, staffRepo)
	supplierService := service.NewSupplierService(supplierRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		UnitOfWork:     uow,
		TicketRepo:     ticketRepo,
		StageRepo:      stageRepo,
		TimelineRepo:   timelineRepo,
		AuditRepo:      auditRepo,
		AttachmentRepo: attachmentRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		UnitOfWork:     uow,
		TicketRepo:     ticketRepo,
		SupplierRepo:   supplierRepo,
		AttachmentRepo: attachmentRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
		Timezone:       loc,
	})
	queryService := service.NewQueryService(service.QueryDependencies{
		TicketRepo: ticketRepo,
		UseIndexes: cfg.Query.UseIndexedQueries,
		Timezone:   loc,
	})
	summaryService := service.NewSummaryService(service.SummaryDependencies{
		TicketRepo:     ticketRepo,
		StageRepo:      stageRepo,
		TimelineRepo:   timelineRepo,
		AttachmentRepo: attachmentRepo,
	})
	reportService := service.NewReportService(queryService, loc)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), staffRepo)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Staff:          handlers.NewStaffHandler(authService, staffService),
		Suppliers:      handlers.NewSuppliersHandler(supplierService),
		Tickets:        handlers.NewTicketsHandler(ticketService, workflowService, queryService, summaryService),
		Reports:        handlers.NewReportsHandler(reportService),
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
