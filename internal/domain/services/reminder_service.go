package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
)

type ReminderResult struct {
	Checked int `json:"checked"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// ReminderService sweeps subscriptions approaching their period end and
// sends one reminder email each. Invoked by the cron endpoint and by the
// standalone scheduler binary.
type ReminderService interface {
	SendExpiryReminders(ctx context.Context, withinDays int) (*ReminderResult, error)
}

type reminderService struct {
	subRepo repositories.SubscriptionRepository
	mailer  Mailer
	logger  *slog.Logger
	now     func() time.Time
}

func NewReminderService(subRepo repositories.SubscriptionRepository, mailer Mailer, logger *slog.Logger) ReminderService {
	return &reminderService{
		subRepo: subRepo,
		mailer:  mailer,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *reminderService) SendExpiryReminders(ctx context.Context, withinDays int) (*ReminderResult, error) {
	if withinDays < 1 {
		withinDays = 3
	}

	now := s.now()
	subs, err := s.subRepo.ListExpiring(ctx, now, time.Duration(withinDays)*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring subscriptions: %w", err)
	}

	result := &ReminderResult{Checked: len(subs)}
	for _, sub := range subs {
		if sub.UserEmail == "" || sub.CurrentPeriodEnd == nil {
			continue
		}

		if err := s.mailer.SendExpiryReminder(ctx, sub.UserEmail, *sub.CurrentPeriodEnd); err != nil {
			s.logger.Error("reminder email failed", "error", err, "subscription_id", sub.ID)
			result.Failed++
			continue
		}

		if err := s.subRepo.SetReminderSent(ctx, sub.ID, now); err != nil {
			s.logger.Error("failed to stamp reminder", "error", err, "subscription_id", sub.ID)
		}
		result.Sent++
	}

	return result, nil
}
