package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
)

type UsageRepository interface {
	// Record appends one ledger row. Rows are never mutated afterwards.
	Record(ctx context.Context, rec *models.UsageRecord) error

	// CountSince counts user-type rows for the caller stamped with the
	// given tier and created at or after since. Signed-in callers are keyed
	// by userID; anonymous callers pass an empty userID and are keyed by
	// clientID so each device has its own window.
	CountSince(ctx context.Context, userID, clientID string, tier models.Tier, since time.Time) (int, error)

	// CountForSubscription counts pro-tier user messages attributed to the
	// subscription since the given time; feeds refund proration.
	CountForSubscription(ctx context.Context, subID uuid.UUID, since time.Time) (int, error)
}
