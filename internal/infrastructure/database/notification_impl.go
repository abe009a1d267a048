package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) repositories.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) ListActive(ctx context.Context, now time.Time) ([]*models.Notification, error) {
	var items []*models.Notification
	query := `
		SELECT id, title, content, type, is_active, created_at, expires_at
		FROM notifications
		WHERE is_active = TRUE
		  AND (expires_at IS NULL OR expires_at > $1)
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &items, query, now); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return items, nil
}

type shareRepository struct {
	db *sqlx.DB
}

func NewShareRepository(db *sqlx.DB) repositories.ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) Create(ctx context.Context, card *models.ShareCard) error {
	query := `
		INSERT INTO share_cards (token, user_id, quote)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, card.Token, card.UserID, card.Quote).
		Scan(&card.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create share card: %w", err)
	}

	return nil
}

func (r *shareRepository) GetByToken(ctx context.Context, token string) (*models.ShareCard, error) {
	var card models.ShareCard
	query := `SELECT token, user_id, quote, created_at FROM share_cards WHERE token = $1`

	err := r.db.GetContext(ctx, &card, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get share card: %w", err)
	}

	return &card, nil
}
