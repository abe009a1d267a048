package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
)

type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Conversation, error)
	Rename(ctx context.Context, id uuid.UUID, userID, title string) error
	// SoftDelete marks the conversation deleted; rows stay for export/audit.
	SoftDelete(ctx context.Context, id uuid.UUID, userID string) error

	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.ChatMessage, error)
	SetFeedback(ctx context.Context, messageID uuid.UUID, userID string, fb models.Feedback) error
}

type NotificationRepository interface {
	ListActive(ctx context.Context, now time.Time) ([]*models.Notification, error)
}

type ShareRepository interface {
	Create(ctx context.Context, card *models.ShareCard) error
	GetByToken(ctx context.Context, token string) (*models.ShareCard, error)
}
