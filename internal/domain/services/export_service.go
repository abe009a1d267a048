package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/queue"
)

type ExportService interface {
	CreateJob(ctx context.Context, userID, format string) (*models.ExportJob, error)
	GetJob(ctx context.Context, userID, jobID string) (*models.ExportJob, error)
	// RunWorker consumes jobs until ctx is cancelled. Started once from main.
	RunWorker(ctx context.Context)
}

type exportService struct {
	jobs     *queue.ExportQueue
	convRepo repositories.ConversationRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewExportService(jobs *queue.ExportQueue, convRepo repositories.ConversationRepository, logger *slog.Logger) ExportService {
	return &exportService{
		jobs:     jobs,
		convRepo: convRepo,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *exportService) CreateJob(ctx context.Context, userID, format string) (*models.ExportJob, error) {
	switch format {
	case "json", "markdown":
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}

	job := &models.ExportJob{
		ID:        uuid.New(),
		UserID:    userID,
		Format:    format,
		Status:    models.ExportPending,
		CreatedAt: s.now(),
	}

	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue export job: %w", err)
	}

	return job, nil
}

func (s *exportService) GetJob(ctx context.Context, userID, jobID string) (*models.ExportJob, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrForbidden
	}
	return job, nil
}

func (s *exportService) RunWorker(ctx context.Context) {
	for {
		job, err := s.jobs.Dequeue(ctx, 30*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("export dequeue failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		s.process(ctx, job)
	}
}

func (s *exportService) process(ctx context.Context, job *models.ExportJob) {
	job.Status = models.ExportRunning
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		s.logger.Error("failed to mark export running", "error", err, "job_id", job.ID)
	}

	result, err := s.render(ctx, job.UserID, job.Format)
	done := s.now()
	job.CompletedAt = &done
	if err != nil {
		job.Status = models.ExportFailed
		job.Error = err.Error()
	} else {
		job.Status = models.ExportDone
		job.Result = result
	}

	if err := s.jobs.SaveJob(ctx, job); err != nil {
		s.logger.Error("failed to save export result", "error", err, "job_id", job.ID)
	}
}

func (s *exportService) render(ctx context.Context, userID, format string) (string, error) {
	convs, err := s.convRepo.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to list conversations: %w", err)
	}

	type exportedConversation struct {
		Title    string                `json:"title"`
		Created  time.Time             `json:"created_at"`
		Messages []*models.ChatMessage `json:"messages"`
	}

	exported := make([]exportedConversation, 0, len(convs))
	for _, conv := range convs {
		msgs, err := s.convRepo.ListMessages(ctx, conv.ID)
		if err != nil {
			return "", fmt.Errorf("failed to list messages: %w", err)
		}
		exported = append(exported, exportedConversation{
			Title:    conv.Title,
			Created:  conv.CreatedAt,
			Messages: msgs,
		})
	}

	if format == "json" {
		data, err := json.MarshalIndent(exported, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var sb strings.Builder
	for _, conv := range exported {
		sb.WriteString("# " + conv.Title + "\n\n")
		for _, msg := range conv.Messages {
			sb.WriteString("**" + msg.Role + "**: " + msg.Content + "\n\n")
		}
	}
	return sb.String(), nil
}
