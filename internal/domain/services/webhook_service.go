package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/duncan1987/askzeninsight-sub000/internal/config"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
)

// WebhookEvent is the envelope Creem posts to us. Only the fields the
// lifecycle needs are decoded; everything else is ignored.
type WebhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"eventType"`
	Object    struct {
		ID       string `json:"id"`
		Customer struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"customer"`
		Product struct {
			ID string `json:"id"`
		} `json:"product"`
		Subscription struct {
			ID string `json:"id"`
		} `json:"subscription"`
		Metadata map[string]string `json:"metadata"`
	} `json:"object"`
}

type WebhookService interface {
	// Process applies one verified provider event to the subscription
	// store. The caller has already checked the signature; malformed
	// payloads return an error without touching the database.
	Process(ctx context.Context, raw []byte) (*WebhookEvent, error)
}

type webhookService struct {
	subRepo repositories.SubscriptionRepository
	billing config.BillingConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewWebhookService(subRepo repositories.SubscriptionRepository, billing config.BillingConfig, logger *slog.Logger) WebhookService {
	return &webhookService{
		subRepo: subRepo,
		billing: billing,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *webhookService) Process(ctx context.Context, raw []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if event.EventType == "" {
		return nil, fmt.Errorf("webhook payload missing eventType")
	}

	switch event.EventType {
	case "checkout.completed", "payment.succeeded", "subscription.created", "subscription.active", "subscription.paid":
		return &event, s.activate(ctx, &event)
	case "subscription.canceled", "subscription.cancelled", "subscription.expired":
		return &event, s.setStatus(ctx, &event, models.StatusCancelled)
	case "payment.failed", "subscription.past_due":
		return &event, s.setStatus(ctx, &event, models.StatusPastDue)
	default:
		s.logger.Info("ignoring webhook event", "event_type", event.EventType, "event_id", event.ID)
		return &event, nil
	}
}

func (s *webhookService) subscriptionID(event *WebhookEvent) string {
	if event.Object.Subscription.ID != "" {
		return event.Object.Subscription.ID
	}
	return event.Object.ID
}

func (s *webhookService) activate(ctx context.Context, event *WebhookEvent) error {
	creemID := s.subscriptionID(event)
	if creemID == "" {
		return fmt.Errorf("webhook event %s has no subscription id", event.ID)
	}

	userID := event.Object.Metadata["user_id"]
	if userID == "" {
		return fmt.Errorf("webhook event %s has no user_id metadata", event.ID)
	}

	plan := models.PlanPro
	interval := models.IntervalMonth
	if event.Object.Product.ID != "" && event.Object.Product.ID == s.billing.AnnualProductID {
		plan = models.PlanAnnual
		interval = models.IntervalYear
	}

	// The provider payload carries no period end; stamp a synthetic 30-day
	// window and let the next renewal event move it forward.
	periodEnd := s.now().Add(30 * 24 * time.Hour)

	sub := &models.Subscription{
		UserID:              userID,
		UserEmail:           event.Object.Customer.Email,
		CreemSubscriptionID: &creemID,
		Status:              models.StatusActive,
		Plan:                plan,
		Interval:            interval,
		CurrentPeriodEnd:    &periodEnd,
		RefundStatus:        models.RefundNone,
	}
	if event.Object.Customer.ID != "" {
		sub.CreemCustomerID = &event.Object.Customer.ID
	}

	if err := s.subRepo.UpsertByCreemID(ctx, sub); err != nil {
		return fmt.Errorf("failed to upsert subscription from webhook: %w", err)
	}

	if err := s.subRepo.LinkSuperseded(ctx, userID, sub.ID); err != nil {
		s.logError("failed to link superseded subscriptions", err, "user_id", userID)
	}

	return nil
}

func (s *webhookService) setStatus(ctx context.Context, event *WebhookEvent, status models.SubscriptionStatus) error {
	creemID := s.subscriptionID(event)
	if creemID == "" {
		return fmt.Errorf("webhook event %s has no subscription id", event.ID)
	}

	sub, err := s.subRepo.GetByCreemID(ctx, creemID)
	if err != nil {
		return fmt.Errorf("failed to load subscription for webhook: %w", err)
	}
	if sub == nil {
		s.logger.Info("webhook for unknown subscription", "creem_subscription_id", creemID, "event_type", event.EventType)
		return nil
	}

	sub.Status = status
	if models.IsCancelledStatus(status) {
		sub.CancelAtPeriodEnd = true
	}

	if err := s.subRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription from webhook: %w", err)
	}

	return nil
}

func (s *webhookService) logError(msg string, err error, args ...interface{}) {
	if s.logger != nil {
		allArgs := append([]interface{}{"error", err}, args...)
		s.logger.Error(msg, allArgs...)
	}
}
