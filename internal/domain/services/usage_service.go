package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duncan1987/askzeninsight-sub000/internal/config"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
)

// usageWindow is the rolling period quotas are counted over. It slides with
// "now"; it is not aligned to any calendar day.
const usageWindow = 24 * time.Hour

type UsageService interface {
	// CheckUsageLimit gates one caller. Signed-in callers are keyed by
	// userID; anonymous callers by clientID, so each device has its own
	// window.
	CheckUsageLimit(ctx context.Context, userID, clientID string) (*models.UsageStatus, error)
	// RecordUsage appends a ledger row stamped with the tier resolved at
	// call time. Best-effort under concurrency: two simultaneous requests
	// may both pass the check before either records. Acceptable for a
	// fair-use policy, not for hard billing limits.
	RecordUsage(ctx context.Context, userID, clientID string, messageType models.MessageType) error
	// IsWithinPremiumQuota reports whether a pro user still has premium
	// model turns left in the window. Exhausted users are served the basic
	// model for the turn instead of being rejected.
	IsWithinPremiumQuota(ctx context.Context, userID string) bool
}

type usageService struct {
	usageRepo repositories.UsageRepository
	tiers     TierService
	quota     config.QuotaConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewUsageService(usageRepo repositories.UsageRepository, tiers TierService, quota config.QuotaConfig, logger *slog.Logger) UsageService {
	return &usageService{
		usageRepo: usageRepo,
		tiers:     tiers,
		quota:     quota,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *usageService) limitFor(tier models.Tier) int {
	if tier == models.TierPro {
		return s.quota.ProDailyLimit
	}
	return s.quota.FreeDailyLimit
}

func (s *usageService) CheckUsageLimit(ctx context.Context, userID, clientID string) (*models.UsageStatus, error) {
	ent := s.tiers.Resolve(ctx, userID)
	limit := s.limitFor(ent.Tier)
	since := s.now().Add(-usageWindow)

	used, err := s.usageRepo.CountSince(ctx, userID, clientID, ent.Tier, since)
	if err != nil {
		return nil, fmt.Errorf("failed to check usage limit: %w", err)
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &models.UsageStatus{
		CanProceed: used < limit,
		Tier:       ent.Tier,
		Limit:      limit,
		Used:       used,
		Remaining:  remaining,
	}, nil
}

func (s *usageService) RecordUsage(ctx context.Context, userID, clientID string, messageType models.MessageType) error {
	ent := s.tiers.Resolve(ctx, userID)

	rec := &models.UsageRecord{
		MessageType: messageType,
		UserTier:    ent.Tier,
	}
	if userID != "" {
		rec.UserID = &userID
	} else if clientID != "" {
		rec.ClientID = &clientID
	}

	if ent.Tier == models.TierPro {
		if sub, err := s.tiers.CurrentSubscription(ctx, userID); err == nil && sub != nil {
			rec.SubscriptionID = &sub.ID
		}
	}

	if err := s.usageRepo.Record(ctx, rec); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	return nil
}

func (s *usageService) IsWithinPremiumQuota(ctx context.Context, userID string) bool {
	since := s.now().Add(-usageWindow)
	used, err := s.usageRepo.CountSince(ctx, userID, "", models.TierPro, since)
	if err != nil {
		s.logError("premium quota check failed, allowing premium", err, "user_id", userID)
		return true
	}
	return used < s.quota.PremiumDailyQuota
}

func (s *usageService) logError(msg string, err error, args ...interface{}) {
	if s.logger != nil {
		allArgs := append([]interface{}{"error", err}, args...)
		s.logger.Error(msg, allArgs...)
	}
}
