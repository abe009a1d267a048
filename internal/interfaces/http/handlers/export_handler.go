package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/queue"
	"github.com/duncan1987/askzeninsight-sub000/internal/interfaces/http/middleware"
)

type ExportHandler struct {
	exports services.ExportService
}

func NewExportHandler(exports services.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

type exportBody struct {
	Format string `json:"format"`
}

// Create enqueues an export of the caller's conversation history.
func (h *ExportHandler) Create(c *gin.Context) {
	var body exportBody
	_ = c.ShouldBindJSON(&body)
	if body.Format == "" {
		body.Format = "json"
	}

	job, err := h.exports.CreateJob(c.Request.Context(), middleware.UserID(c), body.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID.String(),
		"status": job.Status,
	})
}

// Get polls an export job. A finished job's payload downloads inline.
func (h *ExportHandler) Get(c *gin.Context) {
	job, err := h.exports.GetJob(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Export job not found"})
			return
		}
		respondError(c, err)
		return
	}

	if job.Status == models.ExportDone && c.Query("download") == "true" {
		contentType := "application/json"
		filename := "conversations.json"
		if job.Format == "markdown" {
			contentType = "text/markdown; charset=utf-8"
			filename = "conversations.md"
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, contentType, []byte(job.Result))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":       job.ID.String(),
		"status":       job.Status,
		"error":        job.Error,
		"created_at":   job.CreatedAt,
		"completed_at": job.CompletedAt,
	})
}
