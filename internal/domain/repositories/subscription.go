package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
)

type SubscriptionRepository interface {
	// GetCurrent returns the most recently created row for the user whose
	// status is active/cancelled/canceled and whose period end is still in
	// the future, or nil when the user has no eligible row.
	GetCurrent(ctx context.Context, userID string, now time.Time) (*models.Subscription, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	GetByCreemID(ctx context.Context, creemSubID string) (*models.Subscription, error)
	Create(ctx context.Context, sub *models.Subscription) error
	Update(ctx context.Context, sub *models.Subscription) error
	// UpsertByCreemID creates or refreshes a row keyed by the external
	// subscription id; used by webhook ingestion only.
	UpsertByCreemID(ctx context.Context, sub *models.Subscription) error
	// LinkSuperseded points any earlier closed rows for the user at the
	// replacement subscription, completing the plan-change audit trail.
	LinkSuperseded(ctx context.Context, userID string, newID uuid.UUID) error
	// ListExpiring returns active rows whose period end falls within the
	// window and which have not been reminded since the window opened.
	ListExpiring(ctx context.Context, now time.Time, within time.Duration) ([]*models.Subscription, error)
	SetReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
	ListRefundRequests(ctx context.Context) ([]*models.Subscription, error)
}
