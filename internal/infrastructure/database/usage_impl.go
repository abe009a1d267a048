package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
)

type usageRepository struct {
	db *sqlx.DB
}

func NewUsageRepository(db *sqlx.DB) repositories.UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Record(ctx context.Context, rec *models.UsageRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	query := `
		INSERT INTO usage_records (id, user_id, client_id, subscription_id, message_type, user_tier)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, rec.ID, rec.UserID, rec.ClientID,
		rec.SubscriptionID, rec.MessageType, rec.UserTier).Scan(&rec.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	return nil
}

func (r *usageRepository) CountSince(ctx context.Context, userID, clientID string, tier models.Tier, since time.Time) (int, error) {
	var count int
	var err error

	if userID == "" {
		// Anonymous rows have user_id NULL and are keyed by the caller's
		// client id so no two devices share a window.
		query := `
			SELECT COUNT(*) FROM usage_records
			WHERE user_id IS NULL
			  AND client_id = $1
			  AND message_type = 'user'
			  AND user_tier = $2
			  AND created_at >= $3`
		err = r.db.GetContext(ctx, &count, query, clientID, tier, since)
	} else {
		query := `
			SELECT COUNT(*) FROM usage_records
			WHERE user_id = $1
			  AND message_type = 'user'
			  AND user_tier = $2
			  AND created_at >= $3`
		err = r.db.GetContext(ctx, &count, query, userID, tier, since)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to count usage: %w", err)
	}

	return count, nil
}

func (r *usageRepository) CountForSubscription(ctx context.Context, subID uuid.UUID, since time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM usage_records
		WHERE subscription_id = $1
		  AND message_type = 'user'
		  AND user_tier = 'pro'
		  AND created_at >= $2`

	if err := r.db.GetContext(ctx, &count, query, subID, since); err != nil {
		return 0, fmt.Errorf("failed to count subscription usage: %w", err)
	}

	return count, nil
}
