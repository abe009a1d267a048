package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/duncan1987/askzeninsight-sub000/internal/config"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/database"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/email"
)

// Standalone scheduler for deployments without an external cron caller.
// Runs the expiry reminder sweep on a fixed schedule.
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

	subRepo := database.NewSubscriptionRepository(db.DB)
	mailer := services.NewEmailService(email.NewClient(cfg.Email.ResendAPIKey, cfg.Email.FromAddress))
	reminders := services.NewReminderService(subRepo, mailer, logger)

	scheduler := cron.New(cron.WithSeconds())
	_, err = scheduler.AddFunc(cfg.Cron.ReminderSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		result, err := reminders.SendExpiryReminders(ctx, cfg.Cron.ReminderDays)
		if err != nil {
			logger.Error("reminder sweep failed", "error", err)
			return
		}
		logger.Info("reminder sweep complete",
			"checked", result.Checked,
			"sent", result.Sent,
			"failed", result.Failed,
		)
	})
	if err != nil {
		log.Fatalf("Invalid reminder schedule %q: %v", cfg.Cron.ReminderSpec, err)
	}

	scheduler.Start()
	logger.Info("scheduler started", "spec", cfg.Cron.ReminderSpec)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	<-scheduler.Stop().Done()
	logger.Info("scheduler stopped")
}
