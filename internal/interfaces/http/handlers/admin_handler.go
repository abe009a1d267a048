package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/cache"
)

type AdminHandler struct {
	subs       services.SubscriptionService
	webhookLog *cache.WebhookLog
}

func NewAdminHandler(subs services.SubscriptionService, webhookLog *cache.WebhookLog) *AdminHandler {
	return &AdminHandler{
		subs:       subs,
		webhookLog: webhookLog,
	}
}

// ListRefundRequests returns subscriptions awaiting a refund decision.
func (h *AdminHandler) ListRefundRequests(c *gin.Context) {
	subs, err := h.subs.ListRefundRequests(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"requests": subs,
		"count":    len(subs),
	})
}

type refundReviewBody struct {
	SubscriptionID string `json:"subscription_id" binding:"required"`
	Decision       string `json:"decision" binding:"required"`
	Reviewer       string `json:"reviewer"`
}

// ReviewRefund applies an operator's approve or reject decision.
func (h *AdminHandler) ReviewRefund(c *gin.Context) {
	var body refundReviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscription_id and decision are required"})
		return
	}

	subID, err := uuid.Parse(body.SubscriptionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription id"})
		return
	}

	decision := services.RefundDecision(body.Decision)
	if decision != services.RefundApprove && decision != services.RefundReject {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be approve or reject"})
		return
	}

	reviewer := body.Reviewer
	if reviewer == "" {
		reviewer = "admin"
	}

	sub, err := h.subs.ReviewRefund(c.Request.Context(), subID, decision, reviewer)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"subscription": sub,
	})
}

// WebhookDeliveries exposes the recent webhook diagnostic ring.
func (h *AdminHandler) WebhookDeliveries(c *gin.Context) {
	entries, err := h.webhookLog.Recent(c.Request.Context(), 50)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": entries})
}
