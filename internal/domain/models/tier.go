package models

import (
	"time"
)

type Tier string

const (
	TierAnonymous Tier = "anonymous"
	TierFree      Tier = "free"
	TierPro       Tier = "pro"
)

// RefundSuppressesEntitlement controls whether an in-flight refund strips pro
// entitlement before the review completes. A user who has asked for their
// money back should not keep consuming the premium model, so requested,
// approved and processed all downgrade immediately; a rejected request
// restores normal entitlement.
const RefundSuppressesEntitlement = true

// Entitlement is the fully resolved access level for a request: which tier is
// active, which model serves it, and whether conversation history persists.
type Entitlement struct {
	Tier        Tier   `json:"tier"`
	Plan        Plan   `json:"plan,omitempty"`
	Model       string `json:"model"`
	MaxTokens   int    `json:"max_tokens"`
	SaveHistory bool   `json:"save_history"`
}

// DeriveEffectiveTier maps a subscription row to the tier it grants at the
// given instant. This is the single source of truth for entitlement: the
// resolver, admin views and tests all call it, so the refund-status rule
// cannot drift between consumers.
func DeriveEffectiveTier(sub *Subscription, now time.Time) Tier {
	if sub == nil {
		return TierFree
	}
	if sub.CurrentPeriodEnd == nil || sub.CurrentPeriodEnd.Before(now) {
		return TierFree
	}
	switch {
	case sub.Status == StatusActive, IsCancelledStatus(sub.Status):
	default:
		return TierFree
	}
	if RefundSuppressesEntitlement {
		switch sub.RefundStatus {
		case RefundRequested, RefundApproved, RefundProcessed:
			return TierFree
		}
	}
	return TierPro
}
