package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
)

// ConversationService wraps the repository with ownership checks so handlers
// never pass a user-controlled id straight to storage.
type ConversationService interface {
	List(ctx context.Context, userID string) ([]*models.Conversation, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*models.Conversation, []*models.ChatMessage, error)
	Rename(ctx context.Context, userID string, id uuid.UUID, title string) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	SetFeedback(ctx context.Context, userID string, messageID uuid.UUID, fb models.Feedback) error
	CreateShareCard(ctx context.Context, userID, quote string) (*models.ShareCard, error)
	GetShareCard(ctx context.Context, token string) (*models.ShareCard, error)
}

type conversationService struct {
	convRepo  repositories.ConversationRepository
	shareRepo repositories.ShareRepository
}

func NewConversationService(convRepo repositories.ConversationRepository, shareRepo repositories.ShareRepository) ConversationService {
	return &conversationService{
		convRepo:  convRepo,
		shareRepo: shareRepo,
	}
}

func (s *conversationService) List(ctx context.Context, userID string) ([]*models.Conversation, error) {
	return s.convRepo.ListByUser(ctx, userID)
}

func (s *conversationService) Get(ctx context.Context, userID string, id uuid.UUID) (*models.Conversation, []*models.ChatMessage, error) {
	conv, err := s.convRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if conv == nil || conv.UserID != userID {
		return nil, nil, ErrConversationNotFound
	}

	msgs, err := s.convRepo.ListMessages(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return conv, msgs, nil
}

func (s *conversationService) Rename(ctx context.Context, userID string, id uuid.UUID, title string) error {
	if title == "" {
		return fmt.Errorf("title is required")
	}
	return s.convRepo.Rename(ctx, id, userID, title)
}

func (s *conversationService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return s.convRepo.SoftDelete(ctx, id, userID)
}

func (s *conversationService) SetFeedback(ctx context.Context, userID string, messageID uuid.UUID, fb models.Feedback) error {
	switch fb {
	case models.FeedbackUp, models.FeedbackDown, models.FeedbackNone:
	default:
		return fmt.Errorf("invalid feedback value: %s", fb)
	}
	return s.convRepo.SetFeedback(ctx, messageID, userID, fb)
}

func (s *conversationService) CreateShareCard(ctx context.Context, userID, quote string) (*models.ShareCard, error) {
	if quote == "" {
		return nil, fmt.Errorf("quote is required")
	}
	if len(quote) > 500 {
		return nil, fmt.Errorf("quote too long")
	}

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate share token: %w", err)
	}

	card := &models.ShareCard{
		Token:  hex.EncodeToString(buf),
		UserID: userID,
		Quote:  quote,
	}
	if err := s.shareRepo.Create(ctx, card); err != nil {
		return nil, err
	}

	return card, nil
}

func (s *conversationService) GetShareCard(ctx context.Context, token string) (*models.ShareCard, error) {
	card, err := s.shareRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("share card not found")
	}
	return card, nil
}
