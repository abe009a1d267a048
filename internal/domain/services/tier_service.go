package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/duncan1987/askzeninsight-sub000/internal/config"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
)

type TierService interface {
	// Resolve determines the entitlement for a request. Empty userID means
	// an anonymous caller. Resolve never returns an error: when the store
	// is unreachable it fails closed to the free tier so chat stays
	// available in degraded mode.
	Resolve(ctx context.Context, userID string) models.Entitlement
	// CurrentSubscription exposes the row Resolve would consider, for the
	// subscription status endpoint and admin views.
	CurrentSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

type tierService struct {
	subRepo repositories.SubscriptionRepository
	ai      config.AIConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewTierService(subRepo repositories.SubscriptionRepository, ai config.AIConfig, logger *slog.Logger) TierService {
	return &tierService{
		subRepo: subRepo,
		ai:      ai,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *tierService) Resolve(ctx context.Context, userID string) models.Entitlement {
	if userID == "" {
		return models.Entitlement{
			Tier:        models.TierAnonymous,
			Model:       s.ai.BasicModel,
			MaxTokens:   s.ai.BasicMaxTokens,
			SaveHistory: false,
		}
	}

	now := s.now()
	sub, err := s.subRepo.GetCurrent(ctx, userID, now)
	if err != nil {
		s.logError("tier resolution degraded to free", err, "user_id", userID)
		sub = nil
	}

	tier := models.DeriveEffectiveTier(sub, now)
	if tier != models.TierPro {
		return models.Entitlement{
			Tier:        models.TierFree,
			Model:       s.ai.BasicModel,
			MaxTokens:   s.ai.BasicMaxTokens,
			SaveHistory: false,
		}
	}

	plan := sub.Plan
	if plan == "" {
		plan = models.PlanPro
	}

	return models.Entitlement{
		Tier:        models.TierPro,
		Plan:        plan,
		Model:       s.ai.PremiumModel,
		MaxTokens:   s.ai.PremiumMaxTokens,
		SaveHistory: true,
	}
}

func (s *tierService) CurrentSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.subRepo.GetCurrent(ctx, userID, s.now())
}

func (s *tierService) logError(msg string, err error, args ...interface{}) {
	if s.logger != nil {
		allArgs := append([]interface{}{"error", err}, args...)
		s.logger.Error(msg, allArgs...)
	}
}
