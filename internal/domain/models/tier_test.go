package models

import (
	"testing"
	"time"
)

func TestDeriveEffectiveTier(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(20 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		sub  *Subscription
		want Tier
	}{
		{
			name: "no subscription",
			sub:  nil,
			want: TierFree,
		},
		{
			name: "active within period",
			sub:  &Subscription{Status: StatusActive, CurrentPeriodEnd: &future},
			want: TierPro,
		},
		{
			name: "cancelled but period not over",
			sub:  &Subscription{Status: StatusCancelled, CancelAtPeriodEnd: true, CurrentPeriodEnd: &future},
			want: TierPro,
		},
		{
			name: "american spelling of cancelled",
			sub:  &Subscription{Status: StatusCanceled, CurrentPeriodEnd: &future},
			want: TierPro,
		},
		{
			name: "period expired",
			sub:  &Subscription{Status: StatusActive, CurrentPeriodEnd: &past},
			want: TierFree,
		},
		{
			name: "missing period end",
			sub:  &Subscription{Status: StatusActive},
			want: TierFree,
		},
		{
			name: "past due",
			sub:  &Subscription{Status: StatusPastDue, CurrentPeriodEnd: &future},
			want: TierFree,
		},
		{
			name: "refund requested suppresses entitlement",
			sub:  &Subscription{Status: StatusActive, CurrentPeriodEnd: &future, RefundStatus: RefundRequested},
			want: TierFree,
		},
		{
			name: "refund approved suppresses entitlement",
			sub:  &Subscription{Status: StatusCancelled, CurrentPeriodEnd: &future, RefundStatus: RefundApproved},
			want: TierFree,
		},
		{
			name: "refund processed suppresses entitlement",
			sub:  &Subscription{Status: StatusCancelled, CurrentPeriodEnd: &future, RefundStatus: RefundProcessed},
			want: TierFree,
		},
		{
			name: "refund rejected restores entitlement",
			sub:  &Subscription{Status: StatusActive, CurrentPeriodEnd: &future, RefundStatus: RefundRejected},
			want: TierPro,
		},
		{
			name: "period end exactly now still counts",
			sub:  &Subscription{Status: StatusActive, CurrentPeriodEnd: &now},
			want: TierPro,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveEffectiveTier(tt.sub, now); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDeriveEffectiveTierIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	sub := &Subscription{Status: StatusActive, CurrentPeriodEnd: &future}

	first := DeriveEffectiveTier(sub, now)
	for i := 0; i < 5; i++ {
		if got := DeriveEffectiveTier(sub, now); got != first {
			t.Fatalf("resolution changed between calls: %s then %s", first, got)
		}
	}
}

func TestPlanDays(t *testing.T) {
	if got := PlanDays(IntervalYear); got != 365 {
		t.Fatalf("expected 365 for yearly, got %d", got)
	}
	if got := PlanDays(IntervalMonth); got != 30 {
		t.Fatalf("expected 30 for monthly, got %d", got)
	}
	if got := PlanDays(""); got != 30 {
		t.Fatalf("expected 30 for unknown interval, got %d", got)
	}
}
