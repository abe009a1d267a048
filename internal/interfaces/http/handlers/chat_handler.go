package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
	"github.com/duncan1987/askzeninsight-sub000/internal/interfaces/http/middleware"
)

type ChatHandler struct {
	chat   services.ChatService
	usage  services.UsageService
	tiers  services.TierService
	logger *slog.Logger
}

func NewChatHandler(chat services.ChatService, usage services.UsageService, tiers services.TierService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		usage:  usage,
		tiers:  tiers,
		logger: logger,
	}
}

// clientKey identifies an anonymous caller for quota purposes. A device id
// header wins when the client sends one; otherwise the IP is hashed so the
// raw address never lands in the ledger.
func clientKey(c *gin.Context) string {
	if device := c.GetHeader("x-device-id"); device != "" {
		return device
	}
	sum := sha256.Sum256([]byte(c.ClientIP()))
	return hex.EncodeToString(sum[:16])
}

type chatRequestBody struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

// Stream handles one chat turn. The assistant reply streams to the client
// as plain chunked text; turn metadata rides in response headers because
// the body is already committed when the turn outcome is known.
func (h *ChatHandler) Stream(c *gin.Context) {
	var body chatRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	req := services.ChatRequest{
		UserID:    middleware.UserID(c),
		UserEmail: middleware.UserEmail(c),
		ClientID:  clientKey(c),
		Message:   body.Message,
	}
	if body.ConversationID != "" {
		id, err := uuid.Parse(body.ConversationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
			return
		}
		req.ConversationID = &id
	}

	// Metadata headers go out with the first chunk, so they must be set
	// before the stream commits the response.
	req.OnTurnStart = func(outcome services.ChatOutcome) {
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		if outcome.ConversationID != nil {
			c.Header("X-Conversation-Id", outcome.ConversationID.String())
		}
		if outcome.Model != "" {
			c.Header("X-Model", outcome.Model)
		}
		if outcome.Downgraded {
			c.Header("X-Model-Downgraded", "true")
		}
	}

	if _, err := h.chat.StreamChat(c.Request.Context(), req, c.Writer); err != nil {
		// Errors raised before the first chunk can still produce a JSON
		// status.
		if !c.Writer.Written() {
			respondError(c, err)
			return
		}
		h.logger.Error("chat stream aborted mid-turn", "error", err)
	}
}

// CheckUsage reports the caller's remaining quota in the rolling window.
func (h *ChatHandler) CheckUsage(c *gin.Context) {
	status, err := h.usage.CheckUsageLimit(c.Request.Context(), middleware.UserID(c), clientKey(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Tier returns the caller's resolved entitlement.
func (h *ChatHandler) Tier(c *gin.Context) {
	ent := h.tiers.Resolve(c.Request.Context(), middleware.UserID(c))
	c.JSON(http.StatusOK, ent)
}
