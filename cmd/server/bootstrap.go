package main

import (
	"context"

	"github.com/proofpay/backend/internal/config"
	"github.com/proofpay/backend/internal/handlers"
	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/internal/services"
	"github.com/proofpay/backend/internal/utils"
	"github.com/proofpay/backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// appServices holds all initialized services and handlers needed by the
// application.
type appServices struct {
	cfg             *config.Config
	taskQueue       services.TaskQueue
	worker          *services.Worker
	sweeper         *cron.Cron
	authHandler     *handlers.AuthHandler
	projectHandler  *handlers.ProjectHandler
	shareHandler    *handlers.ShareHandler
	paymentHandler  *handlers.PaymentHandler
	downloadHandler *handlers.DownloadHandler
}

// bootstrap initializes all application dependencies: database, services,
// queue, worker, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("failed to migrate database: %v", err)
	}

	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("failed to seed default data")
	}

	db := models.GetDB()

	// Notification pipeline: queue -> (worker or in-process) -> email.
	taskQueue := services.InitTaskQueue(cfg)
	emailService := services.NewEmailService(db)
	deliver := func(ctx context.Context, task *services.NotifyTask) error {
		return emailService.Deliver(task)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		worker.SetProcessor(deliver)
		if err := worker.Start(); err != nil {
			logger.Error().Err(err).Msg("failed to start notification worker")
		}
	} else if sq, ok := taskQueue.(*services.SyncQueue); ok {
		sq.SetProcessor(deliver)
	}

	notifier := services.NewNotificationService(db, taskQueue)

	// Workflow core.
	lifecycle := services.NewLifecycleService(db, notifier)
	downloads := services.NewDownloadService(db, cfg.Download.MaxDownloads, cfg.Download.ExpiryDays)
	payments := services.NewPaymentService(db, cfg.Payment.CommissionBps, lifecycle, downloads, notifier)

	// Background hygiene.
	services.StartLogCleanupScheduler(db)
	sweeper := services.StartDownloadSweeper(db, cfg.Download.MaxDownloads, cfg.Download.ExpiryDays)

	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("failed to create admin user")
	}

	return &appServices{
		cfg:             cfg,
		taskQueue:       taskQueue,
		worker:          worker,
		sweeper:         sweeper,
		authHandler:     authHandler,
		projectHandler:  handlers.NewProjectHandler(db, lifecycle, payments, downloads),
		shareHandler:    handlers.NewShareHandler(db, lifecycle, payments),
		paymentHandler:  handlers.NewPaymentHandler(payments),
		downloadHandler: handlers.NewDownloadHandler(downloads),
	}
}

// shutdown stops background components in reverse start order.
func (s *appServices) shutdown() {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
