package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/repositories"
)

const subscriptionColumns = `id, user_id, user_email, creem_subscription_id, creem_customer_id, status, plan, "interval",
	       current_period_end, cancel_at_period_end, refund_status, refund_percentage,
	       refund_estimated_at, refund_reviewed_at, refund_reviewed_by,
	       reminder_sent_at, superseded_by, created_at, updated_at`

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) repositories.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetCurrent(ctx context.Context, userID string, now time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
		  AND status IN ('active', 'cancelled', 'canceled')
		  AND current_period_end >= $2
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &sub, query, userID, now)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get current subscription: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	err := r.db.GetContext(ctx, &sub, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) GetByCreemID(ctx context.Context, creemSubID string) (*models.Subscription, error) {
	var sub models.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE creem_subscription_id = $1`

	err := r.db.GetContext(ctx, &sub, query, creemSubID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription by creem id: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.RefundStatus == "" {
		sub.RefundStatus = models.RefundNone
	}

	query := `
		INSERT INTO subscriptions (id, user_id, user_email, creem_subscription_id, creem_customer_id,
		                           status, plan, "interval", current_period_end,
		                           cancel_at_period_end, refund_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, sub.ID, sub.UserID, sub.UserEmail,
		sub.CreemSubscriptionID, sub.CreemCustomerID, sub.Status, sub.Plan, sub.Interval,
		sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.RefundStatus).Scan(&sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	query := `
		UPDATE subscriptions
		SET user_email = $2, creem_subscription_id = $3, creem_customer_id = $4,
		    status = $5, plan = $6, "interval" = $7,
		    current_period_end = $8, cancel_at_period_end = $9, refund_status = $10,
		    refund_percentage = $11, refund_estimated_at = $12, refund_reviewed_at = $13,
		    refund_reviewed_by = $14, superseded_by = $15,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, sub.ID, sub.UserEmail, sub.CreemSubscriptionID,
		sub.CreemCustomerID, sub.Status, sub.Plan, sub.Interval, sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd, sub.RefundStatus, sub.RefundPercentage, sub.RefundEstimatedAt,
		sub.RefundReviewedAt, sub.RefundReviewedBy, sub.SupersededBy).Scan(&sub.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) UpsertByCreemID(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.RefundStatus == "" {
		sub.RefundStatus = models.RefundNone
	}

	query := `
		INSERT INTO subscriptions (id, user_id, user_email, creem_subscription_id, creem_customer_id,
		                           status, plan, "interval", current_period_end,
		                           cancel_at_period_end, refund_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (creem_subscription_id) DO UPDATE
		SET status = EXCLUDED.status,
		    plan = EXCLUDED.plan,
		    "interval" = EXCLUDED."interval",
		    user_email = EXCLUDED.user_email,
		    creem_customer_id = COALESCE(EXCLUDED.creem_customer_id, subscriptions.creem_customer_id),
		    current_period_end = EXCLUDED.current_period_end,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, sub.ID, sub.UserID, sub.UserEmail,
		sub.CreemSubscriptionID, sub.CreemCustomerID, sub.Status, sub.Plan, sub.Interval,
		sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.RefundStatus).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) LinkSuperseded(ctx context.Context, userID string, newID uuid.UUID) error {
	query := `
		UPDATE subscriptions
		SET superseded_by = $2, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1
		  AND id <> $2
		  AND superseded_by IS NULL
		  AND status IN ('cancelled', 'canceled')
		  AND cancel_at_period_end = TRUE`

	if _, err := r.db.ExecContext(ctx, query, userID, newID); err != nil {
		return fmt.Errorf("failed to link superseded subscriptions: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) ListExpiring(ctx context.Context, now time.Time, within time.Duration) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'active'
		  AND current_period_end BETWEEN $1 AND $2
		  AND (reminder_sent_at IS NULL OR reminder_sent_at < $1 - make_interval(days => 7))
		ORDER BY current_period_end ASC`

	if err := r.db.SelectContext(ctx, &subs, query, now, now.Add(within)); err != nil {
		return nil, fmt.Errorf("failed to list expiring subscriptions: %w", err)
	}

	return subs, nil
}

func (r *subscriptionRepository) SetReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE subscriptions SET reminder_sent_at = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to stamp reminder: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) ListRefundRequests(ctx context.Context) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE refund_status = 'requested'
		ORDER BY updated_at ASC`

	if err := r.db.SelectContext(ctx, &subs, query); err != nil {
		return nil, fmt.Errorf("failed to list refund requests: %w", err)
	}

	return subs, nil
}
