package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
	"github.com/duncan1987/askzeninsight-sub000/internal/interfaces/http/middleware"
)

type ConversationHandler struct {
	convs         services.ConversationService
	notifications repositories.NotificationRepository
}

func NewConversationHandler(convs services.ConversationService, notifications repositories.NotificationRepository) *ConversationHandler {
	return &ConversationHandler{
		convs:         convs,
		notifications: notifications,
	}
}

func (h *ConversationHandler) List(c *gin.Context) {
	convs, err := h.convs.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return
	}

	conv, msgs, err := h.convs.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation": conv,
		"messages":     msgs,
	})
}

type renameBody struct {
	Title string `json:"title" binding:"required"`
}

func (h *ConversationHandler) Rename(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return
	}

	var body renameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	if err := h.convs.Rename(c.Request.Context(), middleware.UserID(c), id, body.Title); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return
	}

	if err := h.convs.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type feedbackBody struct {
	Feedback string `json:"feedback" binding:"required"`
}

// SetFeedback records a thumbs up or down on an assistant message.
func (h *ConversationHandler) SetFeedback(c *gin.Context) {
	msgID, err := uuid.Parse(c.Param("messageId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message id"})
		return
	}

	var body feedbackBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Feedback is required"})
		return
	}

	if err := h.convs.SetFeedback(c.Request.Context(), middleware.UserID(c), msgID, models.Feedback(body.Feedback)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type shareBody struct {
	Quote string `json:"quote" binding:"required"`
}

// CreateShareCard mints a public token for a quote the user wants to share.
func (h *ConversationHandler) CreateShareCard(c *gin.Context) {
	var body shareBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quote is required"})
		return
	}

	card, err := h.convs.CreateShareCard(c.Request.Context(), middleware.UserID(c), body.Quote)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": card.Token})
}

// GetShareCard serves a shared quote. Public, no auth.
func (h *ConversationHandler) GetShareCard(c *gin.Context) {
	card, err := h.convs.GetShareCard(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Share card not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quote":      card.Quote,
		"created_at": card.CreatedAt,
	})
}

// Notifications returns currently active announcement banners.
func (h *ConversationHandler) Notifications(c *gin.Context) {
	items, err := h.notifications.ListActive(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}
