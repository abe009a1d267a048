package services

import (
	"context"
	"testing"
	"time"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
)

func TestSendExpiryReminders(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	expiring := proSubscription("u1", now.Add(-28*24*time.Hour), now.Add(2*24*time.Hour))
	farOut := proSubscription("u2", now.Add(-2*24*time.Hour), now.Add(28*24*time.Hour))
	subRepo := &fakeSubscriptionRepo{subs: []*models.Subscription{expiring, farOut}}
	mailer := &fakeMailer{}

	svc := NewReminderService(subRepo, mailer, testLogger()).(*reminderService)
	svc.now = func() time.Time { return now }

	result, err := svc.SendExpiryReminders(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Checked != 1 || result.Sent != 1 || result.Failed != 0 {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].to != "u1@example.com" {
		t.Fatalf("unexpected mail: %+v", mailer.sent)
	}
	if expiring.ReminderSentAt == nil {
		t.Fatalf("reminder not marked as sent")
	}

	// A second sweep finds nothing new.
	result, err = svc.SendExpiryReminders(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sent != 0 {
		t.Fatalf("reminder sent twice: %+v", result)
	}
}
