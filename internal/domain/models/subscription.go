package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	StatusActive SubscriptionStatus = "active"
	// Both spellings exist in historical rows written by earlier webhook
	// versions; every status check must treat them as equivalent.
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusCanceled  SubscriptionStatus = "canceled"
	StatusPastDue   SubscriptionStatus = "past_due"
)

type Plan string

const (
	PlanPro    Plan = "pro"
	PlanAnnual Plan = "annual"
)

type BillingInterval string

const (
	IntervalMonth BillingInterval = "month"
	IntervalYear  BillingInterval = "year"
)

type RefundStatus string

const (
	RefundNone      RefundStatus = "none"
	RefundRequested RefundStatus = "requested"
	RefundApproved  RefundStatus = "approved"
	RefundRejected  RefundStatus = "rejected"
	RefundProcessed RefundStatus = "processed"
)

// Subscription is one row per purchase attempt. Rows are never hard-deleted:
// cancellation soft-cancels, and a plan change closes the old row and links it
// forward through SupersededBy once the replacement purchase lands.
type Subscription struct {
	ID                  uuid.UUID          `json:"id" db:"id"`
	UserID              string             `json:"user_id" db:"user_id"`
	UserEmail           string             `json:"user_email" db:"user_email"`
	CreemSubscriptionID *string            `json:"creem_subscription_id" db:"creem_subscription_id"`
	CreemCustomerID     *string            `json:"creem_customer_id" db:"creem_customer_id"`
	Status              SubscriptionStatus `json:"status" db:"status"`
	Plan                Plan               `json:"plan" db:"plan"`
	Interval            BillingInterval    `json:"interval" db:"interval"`
	CurrentPeriodEnd    *time.Time         `json:"current_period_end" db:"current_period_end"`
	CancelAtPeriodEnd   bool               `json:"cancel_at_period_end" db:"cancel_at_period_end"`
	RefundStatus        RefundStatus       `json:"refund_status" db:"refund_status"`
	RefundPercentage    *float64           `json:"refund_percentage" db:"refund_percentage"`
	RefundEstimatedAt   *time.Time         `json:"refund_estimated_at" db:"refund_estimated_at"`
	RefundReviewedAt    *time.Time         `json:"refund_reviewed_at" db:"refund_reviewed_at"`
	RefundReviewedBy    *string            `json:"refund_reviewed_by" db:"refund_reviewed_by"`
	ReminderSentAt      *time.Time         `json:"reminder_sent_at" db:"reminder_sent_at"`
	SupersededBy        *uuid.UUID         `json:"superseded_by" db:"superseded_by"`
	CreatedAt           time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at" db:"updated_at"`
}

// IsCancelledStatus reports whether the status is either spelling of cancelled.
func IsCancelledStatus(s SubscriptionStatus) bool {
	return s == StatusCancelled || s == StatusCanceled
}

// PlanDays returns the billing period length in days used for refund proration.
func PlanDays(interval BillingInterval) int {
	if interval == IntervalYear {
		return 365
	}
	return 30
}

// RefundInfo summarizes refund eligibility computed at cancellation time.
type RefundInfo struct {
	Eligible        bool       `json:"eligible"`
	FullyRefundable bool       `json:"fullyRefundable"`
	Percentage      float64    `json:"percentage"`
	UsageCount      int        `json:"usageCount"`
	EstimatedAt     *time.Time `json:"estimatedAt,omitempty"`
}
