package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/duncan1987/askzeninsight-sub000/internal/config"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/payment"
)

// PaymentProvider is the slice of the Creem API the lifecycle needs.
type PaymentProvider interface {
	CreateCheckout(ctx context.Context, productID, userID, email, successURL string) (*payment.CheckoutSession, error)
	CancelSubscription(ctx context.Context, subscriptionID string, mode payment.CancelMode) error
	CustomerPortalLink(ctx context.Context, customerID string) (string, error)
	Configured() bool
}

// Mailer sends lifecycle email. Every send is best-effort: failures are
// logged by the caller and never fail the request.
type Mailer interface {
	SendCancellation(ctx context.Context, to string, refund models.RefundInfo) error
	SendRefundOutcome(ctx context.Context, to string, approved, pendingManual bool) error
	SendExpiryReminder(ctx context.Context, to string, endsAt time.Time) error
}

// refundReviewSLA is how long the admin team has to review a refund request;
// reported to the user as the estimated processing date.
const refundReviewSLA = 3 * 24 * time.Hour

type CancelResult struct {
	Subscription *models.Subscription `json:"subscription"`
	RefundInfo   models.RefundInfo    `json:"refundInfo"`
}

type ChangePlanResult struct {
	Purchasable bool        `json:"purchasable"`
	Plan        models.Plan `json:"plan"`
	ProductID   string      `json:"product_id"`
}

type RefundDecision string

const (
	RefundApprove RefundDecision = "approve"
	RefundReject  RefundDecision = "reject"
)

type SubscriptionService interface {
	Cancel(ctx context.Context, userID, reason string) (*CancelResult, error)
	ChangePlan(ctx context.Context, userID string, newPlan models.Plan) (*ChangePlanResult, error)
	ReviewRefund(ctx context.Context, subscriptionID uuid.UUID, decision RefundDecision, reviewer string) (*models.Subscription, error)
	ListRefundRequests(ctx context.Context) ([]*models.Subscription, error)
	CreateCheckout(ctx context.Context, userID, email string, plan models.Plan) (*payment.CheckoutSession, error)
	ConfirmCheckout(ctx context.Context, userID, email string, plan models.Plan, creemSubID string) (*models.Subscription, error)
	PortalLink(ctx context.Context, userID string) (string, error)
}

type subscriptionService struct {
	subRepo   repositories.SubscriptionRepository
	usageRepo repositories.UsageRepository
	provider  PaymentProvider
	mailer    Mailer
	billing   config.BillingConfig
	quota     config.QuotaConfig
	siteURL   string
	logger    *slog.Logger
	now       func() time.Time
}

func NewSubscriptionService(
	subRepo repositories.SubscriptionRepository,
	usageRepo repositories.UsageRepository,
	provider PaymentProvider,
	mailer Mailer,
	billing config.BillingConfig,
	quota config.QuotaConfig,
	siteURL string,
	logger *slog.Logger,
) SubscriptionService {
	return &subscriptionService{
		subRepo:   subRepo,
		usageRepo: usageRepo,
		provider:  provider,
		mailer:    mailer,
		billing:   billing,
		quota:     quota,
		siteURL:   siteURL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *subscriptionService) productIDFor(plan models.Plan) string {
	if plan == models.PlanAnnual {
		return s.billing.AnnualProductID
	}
	return s.billing.ProProductID
}

func (s *subscriptionService) planForProduct(productID string) models.Plan {
	if productID != "" && productID == s.billing.AnnualProductID {
		return models.PlanAnnual
	}
	return models.PlanPro
}

// computeRefund derives refund eligibility for a cancellation at "now".
// Eligible strictly within the refund window (inclusive at the boundary).
// Percentage prorates by days of quota consumed:
//
//	daysUsed = ceil(usageCount / dailyQuota)
//	percent  = (planDays - daysUsed) / planDays * 100
//
// with a floor of 100% while usage is at or under the full-refund allowance.
func (s *subscriptionService) computeRefund(sub *models.Subscription, usageCount int, now time.Time) models.RefundInfo {
	info := models.RefundInfo{UsageCount: usageCount}

	elapsed := now.Sub(sub.CreatedAt)
	if elapsed > time.Duration(s.billing.RefundWindowHours)*time.Hour {
		return info
	}
	info.Eligible = true

	if usageCount <= s.billing.FullRefundMaxUse {
		info.FullyRefundable = true
		info.Percentage = 100
	} else {
		planDays := models.PlanDays(sub.Interval)
		dailyQuota := s.quota.ProDailyLimit
		daysUsed := int(math.Ceil(float64(usageCount) / float64(dailyQuota)))
		pct := float64(planDays-daysUsed) / float64(planDays) * 100
		if pct < 0 {
			pct = 0
		}
		info.Percentage = pct
	}

	estimated := now.Add(refundReviewSLA)
	info.EstimatedAt = &estimated

	return info
}

func (s *subscriptionService) Cancel(ctx context.Context, userID, reason string) (*CancelResult, error) {
	now := s.now()

	sub, err := s.subRepo.GetCurrent(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}

	// Cancellation is only open for a limited time after purchase. At
	// exactly the boundary it is still allowed.
	if now.Sub(sub.CreatedAt) > time.Duration(s.billing.CancelWindowDays)*24*time.Hour {
		return nil, ErrCancellationExpired
	}

	usageCount, err := s.usageRepo.CountForSubscription(ctx, sub.ID, sub.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscription usage: %w", err)
	}

	refund := s.computeRefund(sub, usageCount, now)

	// Flag the refund request before anything else so entitlement
	// resolution reacts even if the provider call below is slow or fails.
	sub.RefundStatus = models.RefundRequested
	if refund.Eligible {
		pct := refund.Percentage
		sub.RefundPercentage = &pct
		sub.RefundEstimatedAt = refund.EstimatedAt
	}
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to flag refund request: %w", err)
	}

	// Upstream cancellation is not allowed to roll back the local state
	// change: local rows are the source of truth for entitlement.
	if sub.CreemSubscriptionID != nil && s.provider.Configured() {
		if err := s.provider.CancelSubscription(ctx, *sub.CreemSubscriptionID, payment.CancelImmediate); err != nil {
			s.logError("provider cancellation failed, continuing", err, "subscription_id", sub.ID)
		}
	}

	sub.Status = models.StatusCancelled
	sub.CancelAtPeriodEnd = true
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}

	if reason != "" {
		s.logger.Info("subscription cancelled", "subscription_id", sub.ID, "reason", reason)
	}

	if s.mailer != nil && sub.UserEmail != "" {
		if err := s.mailer.SendCancellation(ctx, sub.UserEmail, refund); err != nil {
			s.logError("cancellation email failed", err, "subscription_id", sub.ID)
		}
	}

	return &CancelResult{Subscription: sub, RefundInfo: refund}, nil
}

func (s *subscriptionService) ChangePlan(ctx context.Context, userID string, newPlan models.Plan) (*ChangePlanResult, error) {
	now := s.now()

	sub, err := s.subRepo.GetCurrent(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil || sub.Status != models.StatusActive || sub.CancelAtPeriodEnd {
		return nil, ErrNoActiveSubscription
	}
	if sub.Plan == newPlan {
		return nil, ErrSamePlan
	}

	// The old subscription runs out its paid period; the user purchases the
	// new plan separately.
	if sub.CreemSubscriptionID != nil && s.provider.Configured() {
		if err := s.provider.CancelSubscription(ctx, *sub.CreemSubscriptionID, payment.CancelScheduled); err != nil {
			s.logError("scheduled provider cancellation failed, continuing", err, "subscription_id", sub.ID)
		}
	}

	// Close rather than delete: the row stays for audit and is linked
	// forward via superseded_by once the replacement purchase lands.
	sub.Status = models.StatusCancelled
	sub.CancelAtPeriodEnd = true
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to close subscription: %w", err)
	}

	return &ChangePlanResult{
		Purchasable: true,
		Plan:        newPlan,
		ProductID:   s.productIDFor(newPlan),
	}, nil
}

func (s *subscriptionService) ReviewRefund(ctx context.Context, subscriptionID uuid.UUID, decision RefundDecision, reviewer string) (*models.Subscription, error) {
	sub, err := s.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	if sub.RefundStatus != models.RefundRequested {
		return nil, ErrRefundNotReviewable
	}

	now := s.now()
	sub.RefundReviewedAt = &now
	sub.RefundReviewedBy = &reviewer

	pendingManual := false
	switch decision {
	case RefundApprove:
		sub.RefundStatus = models.RefundApproved
		if sub.CreemSubscriptionID != nil && s.provider.Configured() {
			if err := s.provider.CancelSubscription(ctx, *sub.CreemSubscriptionID, payment.CancelImmediate); err != nil {
				s.logError("provider cancellation failed on refund approval", err, "subscription_id", sub.ID)
				pendingManual = true
			}
		} else {
			pendingManual = true
		}
		sub.Status = models.StatusCancelled
		sub.CancelAtPeriodEnd = true
	case RefundReject:
		sub.RefundStatus = models.RefundRejected
	default:
		return nil, fmt.Errorf("unknown refund decision: %s", decision)
	}

	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to record refund review: %w", err)
	}

	if s.mailer != nil && sub.UserEmail != "" {
		if err := s.mailer.SendRefundOutcome(ctx, sub.UserEmail, decision == RefundApprove, pendingManual); err != nil {
			s.logError("refund outcome email failed", err, "subscription_id", sub.ID)
		}
	}

	return sub, nil
}

func (s *subscriptionService) ListRefundRequests(ctx context.Context) ([]*models.Subscription, error) {
	return s.subRepo.ListRefundRequests(ctx)
}

func (s *subscriptionService) CreateCheckout(ctx context.Context, userID, email string, plan models.Plan) (*payment.CheckoutSession, error) {
	if !s.provider.Configured() {
		return nil, fmt.Errorf("payment provider %w", ErrNotConfigured)
	}

	productID := s.productIDFor(plan)
	if productID == "" {
		return nil, fmt.Errorf("no product configured for plan %s", plan)
	}

	successURL := s.siteURL + "/subscription/success"
	sess, err := s.provider.CreateCheckout(ctx, productID, userID, email, successURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return sess, nil
}

// ConfirmCheckout records an optimistic subscription row after a successful
// checkout redirect, ahead of the asynchronous webhook confirmation.
func (s *subscriptionService) ConfirmCheckout(ctx context.Context, userID, email string, plan models.Plan, creemSubID string) (*models.Subscription, error) {
	now := s.now()
	periodEnd := now.Add(30 * 24 * time.Hour)

	interval := models.IntervalMonth
	if plan == models.PlanAnnual {
		interval = models.IntervalYear
		periodEnd = now.Add(365 * 24 * time.Hour)
	}

	sub := &models.Subscription{
		UserID:           userID,
		UserEmail:        email,
		Status:           models.StatusActive,
		Plan:             plan,
		Interval:         interval,
		CurrentPeriodEnd: &periodEnd,
		RefundStatus:     models.RefundNone,
	}

	if creemSubID != "" {
		sub.CreemSubscriptionID = &creemSubID
		if err := s.subRepo.UpsertByCreemID(ctx, sub); err != nil {
			return nil, err
		}
	} else {
		if err := s.subRepo.Create(ctx, sub); err != nil {
			return nil, err
		}
	}

	if err := s.subRepo.LinkSuperseded(ctx, userID, sub.ID); err != nil {
		s.logError("failed to link superseded subscriptions", err, "user_id", userID)
	}

	return sub, nil
}

func (s *subscriptionService) PortalLink(ctx context.Context, userID string) (string, error) {
	if !s.provider.Configured() {
		return "", fmt.Errorf("payment provider %w", ErrNotConfigured)
	}

	sub, err := s.subRepo.GetCurrent(ctx, userID, s.now())
	if err != nil {
		return "", fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil || sub.CreemCustomerID == nil {
		return "", ErrSubscriptionNotFound
	}

	return s.provider.CustomerPortalLink(ctx, *sub.CreemCustomerID)
}

func (s *subscriptionService) logError(msg string, err error, args ...interface{}) {
	if s.logger != nil {
		allArgs := append([]interface{}{"error", err}, args...)
		s.logger.Error(msg, allArgs...)
	}
}
