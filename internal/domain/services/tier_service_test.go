package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/duncan1987/askzeninsight-sub000/internal/config"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
)

var testAI = config.AIConfig{
	BasicModel:       "glm-4-flash",
	PremiumModel:     "glm-4-plus",
	BasicMaxTokens:   1024,
	PremiumMaxTokens: 4096,
}

func newTierSvc(subRepo *fakeSubscriptionRepo, now time.Time) *tierService {
	svc := NewTierService(subRepo, testAI, testLogger()).(*tierService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestResolveAnonymous(t *testing.T) {
	svc := newTierSvc(&fakeSubscriptionRepo{}, time.Now())

	ent := svc.Resolve(context.Background(), "")
	if ent.Tier != models.TierAnonymous {
		t.Fatalf("expected anonymous, got %s", ent.Tier)
	}
	if ent.Model != "glm-4-flash" || ent.SaveHistory {
		t.Fatalf("anonymous should get the basic model and no history: %+v", ent)
	}
}

func TestResolveFreeWithoutSubscription(t *testing.T) {
	svc := newTierSvc(&fakeSubscriptionRepo{}, time.Now())

	ent := svc.Resolve(context.Background(), "u1")
	if ent.Tier != models.TierFree {
		t.Fatalf("expected free, got %s", ent.Tier)
	}
	if ent.Model != "glm-4-flash" {
		t.Fatalf("free should get the basic model, got %s", ent.Model)
	}
}

func TestResolvePro(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	sub := proSubscription("u1", now.Add(-24*time.Hour), now.Add(29*24*time.Hour))
	svc := newTierSvc(&fakeSubscriptionRepo{subs: []*models.Subscription{sub}}, now)

	ent := svc.Resolve(context.Background(), "u1")
	if ent.Tier != models.TierPro {
		t.Fatalf("expected pro, got %s", ent.Tier)
	}
	if ent.Model != "glm-4-plus" || !ent.SaveHistory {
		t.Fatalf("pro should get the premium model with history: %+v", ent)
	}
	if ent.Plan != models.PlanPro {
		t.Fatalf("expected pro plan, got %s", ent.Plan)
	}
}

func TestResolveRefundRequestedDowngrades(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	sub := proSubscription("u1", now.Add(-24*time.Hour), now.Add(29*24*time.Hour))
	sub.RefundStatus = models.RefundRequested
	svc := newTierSvc(&fakeSubscriptionRepo{subs: []*models.Subscription{sub}}, now)

	if ent := svc.Resolve(context.Background(), "u1"); ent.Tier != models.TierFree {
		t.Fatalf("a pending refund must downgrade to free, got %s", ent.Tier)
	}
}

func TestResolveFailsClosedOnStoreError(t *testing.T) {
	svc := newTierSvc(&fakeSubscriptionRepo{err: errors.New("connection refused")}, time.Now())

	ent := svc.Resolve(context.Background(), "u1")
	if ent.Tier != models.TierFree {
		t.Fatalf("store errors must degrade to free, got %s", ent.Tier)
	}
}
