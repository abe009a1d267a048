package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/cache"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/payment"
)

type WebhookHandler struct {
	webhooks services.WebhookService
	log      *cache.WebhookLog
	secret   string
	logger   *slog.Logger
}

func NewWebhookHandler(webhooks services.WebhookService, log *cache.WebhookLog, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhooks: webhooks,
		log:      log,
		secret:   secret,
		logger:   logger,
	}
}

// Handle ingests one provider event. The signature is checked over the raw
// body before anything is parsed; rejected deliveries are logged to the
// diagnostic ring alongside accepted ones.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to read body"})
		return
	}

	signature := c.GetHeader("creem-signature")
	if signature == "" {
		signature = c.GetHeader("x-creem-signature")
	}
	if !payment.VerifySignature(body, signature, h.secret) {
		h.record(c, cache.WebhookLogEntry{
			Accepted: false,
			Detail:   "invalid signature",
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	event, err := h.webhooks.Process(c.Request.Context(), body)
	if err != nil {
		entry := cache.WebhookLogEntry{Accepted: false, Detail: err.Error()}
		if event != nil {
			entry.EventType = event.EventType
			entry.EventID = event.ID
		}
		h.record(c, entry)
		// Malformed payloads are rejected the same way signature
		// mismatches are.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Webhook not processed"})
		return
	}

	h.record(c, cache.WebhookLogEntry{
		EventType: event.EventType,
		EventID:   event.ID,
		Accepted:  true,
	})
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) record(c *gin.Context, entry cache.WebhookLogEntry) {
	entry.ReceivedAt = time.Now().UTC()
	if err := h.log.Append(c.Request.Context(), entry); err != nil {
		h.logger.Error("failed to record webhook delivery", "error", err)
	}
}
