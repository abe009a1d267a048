package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
)

type CronHandler struct {
	reminders    services.ReminderService
	reminderDays int
}

func NewCronHandler(reminders services.ReminderService, reminderDays int) *CronHandler {
	return &CronHandler{
		reminders:    reminders,
		reminderDays: reminderDays,
	}
}

// SendReminders sweeps subscriptions nearing their period end and emails
// each holder once. Invoked by an external scheduler.
func (h *CronHandler) SendReminders(c *gin.Context) {
	result, err := h.reminders.SendExpiryReminders(c.Request.Context(), h.reminderDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
