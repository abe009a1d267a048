package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
	"github.com/duncan1987/askzeninsight-sub000/internal/interfaces/http/middleware"
)

type SubscriptionHandler struct {
	subs  services.SubscriptionService
	tiers services.TierService
}

func NewSubscriptionHandler(subs services.SubscriptionService, tiers services.TierService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subs:  subs,
		tiers: tiers,
	}
}

type subscriptionView struct {
	ID                string              `json:"id"`
	Status            string              `json:"status"`
	Plan              models.Plan         `json:"plan"`
	Interval          string              `json:"interval"`
	CurrentPeriodEnd  *time.Time          `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool                `json:"cancel_at_period_end"`
	RefundStatus      models.RefundStatus `json:"refund_status"`
	Tier              models.Tier         `json:"tier"`
}

// Get returns the caller's current subscription with the tier it grants.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)

	sub, err := h.tiers.CurrentSubscription(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	ent := h.tiers.Resolve(c.Request.Context(), userID)
	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"subscription": nil, "tier": ent.Tier})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription": subscriptionView{
			ID:                sub.ID.String(),
			Status:            string(sub.Status),
			Plan:              sub.Plan,
			Interval:          string(sub.Interval),
			CurrentPeriodEnd:  sub.CurrentPeriodEnd,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			RefundStatus:      sub.RefundStatus,
			Tier:              ent.Tier,
		},
		"tier": ent.Tier,
	})
}

type cancelBody struct {
	Reason string `json:"reason"`
}

// Cancel ends the caller's subscription and reports refund eligibility.
// The body is optional and may carry a free-form reason.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	var body cancelBody
	_ = c.ShouldBindJSON(&body)

	result, err := h.subs.Cancel(c.Request.Context(), middleware.UserID(c), body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"refundInfo": result.RefundInfo,
	})
}

type changePlanBody struct {
	Plan string `json:"plan" binding:"required"`
}

// ChangePlan closes the current subscription and hands back the product the
// client should purchase for the new one.
func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	var body changePlanBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan is required"})
		return
	}

	plan := models.Plan(body.Plan)
	if plan != models.PlanPro && plan != models.PlanAnnual {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	result, err := h.subs.ChangePlan(c.Request.Context(), middleware.UserID(c), plan)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type checkoutBody struct {
	Plan string `json:"plan" binding:"required"`
}

// CreateCheckout opens a hosted payment session for the requested plan.
func (h *SubscriptionHandler) CreateCheckout(c *gin.Context) {
	var body checkoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan is required"})
		return
	}

	plan := models.Plan(body.Plan)
	if plan != models.PlanPro && plan != models.PlanAnnual {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	session, err := h.subs.CreateCheckout(c.Request.Context(), middleware.UserID(c), middleware.UserEmail(c), plan)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checkout_id":  session.ID,
		"checkout_url": session.CheckoutURL,
	})
}

type confirmCheckoutBody struct {
	Plan           string `json:"plan" binding:"required"`
	SubscriptionID string `json:"subscription_id"`
}

// ConfirmCheckout records an optimistic subscription row after the client
// returns from a successful hosted checkout. The webhook remains the source
// of truth and reconciles the row when it lands.
func (h *SubscriptionHandler) ConfirmCheckout(c *gin.Context) {
	var body confirmCheckoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan is required"})
		return
	}

	plan := models.Plan(body.Plan)
	if plan != models.PlanPro && plan != models.PlanAnnual {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	sub, err := h.subs.ConfirmCheckout(c.Request.Context(), middleware.UserID(c), middleware.UserEmail(c), plan, body.SubscriptionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"subscription_id": sub.ID.String(),
	})
}

// PortalLink returns the provider's customer portal URL for self-service
// billing management.
func (h *SubscriptionHandler) PortalLink(c *gin.Context) {
	url, err := h.subs.PortalLink(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
