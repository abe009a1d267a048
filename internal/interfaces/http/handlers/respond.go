package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
)

// respondError maps domain sentinels onto HTTP statuses. Unknown errors
// become a generic 500 so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
	case errors.Is(err, services.ErrNoActiveSubscription):
		c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription"})
	case errors.Is(err, services.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
	case errors.Is(err, services.ErrCancellationExpired):
		c.JSON(http.StatusForbidden, gin.H{"error": "Cancellation period expired"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, services.ErrQuotaExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Daily message limit reached"})
	case errors.Is(err, services.ErrMessageTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message too long"})
	case errors.Is(err, services.ErrSamePlan):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already on that plan"})
	case errors.Is(err, services.ErrRefundNotReviewable):
		c.JSON(http.StatusConflict, gin.H{"error": "Refund request is not pending review"})
	case errors.Is(err, services.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Service is not configured"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
