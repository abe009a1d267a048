package services

import "errors"

var (
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrCancellationExpired   = errors.New("cancellation period expired")
	ErrQuotaExceeded         = errors.New("daily message limit reached")
	ErrMessageTooLong        = errors.New("message too long")
	ErrSamePlan              = errors.New("already on the requested plan")
	ErrNoActiveSubscription  = errors.New("no active subscription to change")
	ErrRefundNotReviewable   = errors.New("refund is not pending review")
	ErrNotConfigured         = errors.New("not configured")
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrForbidden             = errors.New("access denied")
)
