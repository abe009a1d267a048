package models

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Title     string     `json:"title" db:"title"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

type Feedback string

const (
	FeedbackNone Feedback = "none"
	FeedbackUp   Feedback = "up"
	FeedbackDown Feedback = "down"
)

type ChatMessage struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"`
	Role           string    `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	Feedback       Feedback  `json:"feedback" db:"feedback"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Notification is a system-wide banner, independent of subscription state.
type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Content   string     `json:"content" db:"content"`
	Type      string     `json:"type" db:"type"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt *time.Time `json:"expires_at" db:"expires_at"`
}

// ShareCard is a publicly retrievable quote card created from a conversation.
type ShareCard struct {
	Token     string    `json:"token" db:"token"`
	UserID    string    `json:"user_id" db:"user_id"`
	Quote     string    `json:"quote" db:"quote"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ExportJobStatus string

const (
	ExportPending ExportJobStatus = "pending"
	ExportRunning ExportJobStatus = "running"
	ExportDone    ExportJobStatus = "done"
	ExportFailed  ExportJobStatus = "failed"
)

// ExportJob tracks an async conversation export. Jobs are transient: state
// lives in redis with a TTL, never in Postgres.
type ExportJob struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"user_id"`
	Format      string          `json:"format"`
	Status      ExportJobStatus `json:"status"`
	Result      string          `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
