package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duncan1987/askzeninsight-sub000/internal/config"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/cache"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/database"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/email"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/payment"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/queue"
	httpiface "github.com/duncan1987/askzeninsight-sub000/internal/interfaces/http"
	"github.com/duncan1987/askzeninsight-sub000/internal/interfaces/http/handlers"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	db, err := database.NewPostgresConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations("migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	subRepo := database.NewSubscriptionRepository(db.DB)
	usageRepo := database.NewUsageRepository(db.DB)
	convRepo := database.NewConversationRepository(db.DB)
	notifRepo := database.NewNotificationRepository(db.DB)
	shareRepo := database.NewShareRepository(db.DB)

	webhookLog := cache.NewWebhookLog(redisClient)
	exportQueue := queue.NewExportQueue(redisClient.Client)

	creemClient := payment.NewClient(cfg.Billing.CreemAPIKey, cfg.Billing.CreemBaseURL)
	resendClient := email.NewClient(cfg.Email.ResendAPIKey, cfg.Email.FromAddress)
	mailer := services.NewEmailService(resendClient)

	tokenService := services.NewTokenService(cfg.Auth.JWTSecret)
	tierService := services.NewTierService(subRepo, cfg.AI, logger)
	usageService := services.NewUsageService(usageRepo, tierService, cfg.Quota, logger)
	subService := services.NewSubscriptionService(subRepo, usageRepo, creemClient, mailer, cfg.Billing, cfg.Quota, cfg.Server.SiteURL, logger)
	webhookService := services.NewWebhookService(subRepo, cfg.Billing, logger)
	chatService := services.NewChatService(tierService, usageService, convRepo, cfg.AI, logger)
	convService := services.NewConversationService(convRepo, shareRepo)
	reminderService := services.NewReminderService(subRepo, mailer, logger)
	exportService := services.NewExportService(exportQueue, convRepo, logger)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go exportService.RunWorker(workerCtx)

	router := httpiface.NewRouter(httpiface.RouterDeps{
		Config:       cfg,
		Logger:       logger,
		Tokens:       tokenService,
		Chat:         handlers.NewChatHandler(chatService, usageService, tierService, logger),
		Subscription: handlers.NewSubscriptionHandler(subService, tierService),
		Webhook:      handlers.NewWebhookHandler(webhookService, webhookLog, cfg.Billing.WebhookSecret, logger),
		Admin:        handlers.NewAdminHandler(subService, webhookLog),
		Cron:         handlers.NewCronHandler(reminderService, cfg.Cron.ReminderDays),
		Conversation: handlers.NewConversationHandler(convService, notifRepo),
		Export:       handlers.NewExportHandler(exportService),
		HealthCheck: func() map[string]string {
			checks := map[string]string{"database": "ok", "redis": "ok"}
			if err := db.Health(); err != nil {
				checks["database"] = err.Error()
			}
			if err := redisClient.Health(); err != nil {
				checks["redis"] = err.Error()
			}
			return checks
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Server.Port, "env", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("server stopped")
}
