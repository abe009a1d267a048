package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeUser      MessageType = "user"
	MessageTypeAssistant MessageType = "assistant"
)

// UsageRecord is one row per chat message sent. The ledger is append-only:
// rows are never mutated, only counted over a rolling window. UserTier holds
// the tier that was active when the message was sent, which is what lets a
// tier change reset the effective counter without deleting history.
type UsageRecord struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID *string   `json:"user_id" db:"user_id"`
	// ClientID identifies the device for anonymous rows (user_id NULL) so
	// each visitor gets their own quota window rather than a shared pool.
	ClientID       *string     `json:"client_id" db:"client_id"`
	SubscriptionID *uuid.UUID  `json:"subscription_id" db:"subscription_id"`
	MessageType    MessageType `json:"message_type" db:"message_type"`
	UserTier       Tier        `json:"user_tier" db:"user_tier"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// UsageStatus is the quota gate's verdict for one request.
type UsageStatus struct {
	CanProceed bool `json:"can_proceed"`
	Tier       Tier `json:"tier"`
	Limit      int  `json:"limit"`
	Used       int  `json:"used"`
	Remaining  int  `json:"remaining"`
}
