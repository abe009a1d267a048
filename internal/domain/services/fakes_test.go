package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/payment"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSubscriptionRepo keeps rows in a slice and records mutations so tests
// can assert write ordering.
type fakeSubscriptionRepo struct {
	subs    []*models.Subscription
	updates []models.Subscription
	linked  []uuid.UUID
	err     error
}

func (f *fakeSubscriptionRepo) GetCurrent(_ context.Context, userID string, now time.Time) (*models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	var best *models.Subscription
	for _, sub := range f.subs {
		if sub.UserID != userID {
			continue
		}
		if sub.Status != models.StatusActive && !models.IsCancelledStatus(sub.Status) {
			continue
		}
		if sub.CurrentPeriodEnd == nil || sub.CurrentPeriodEnd.Before(now) {
			continue
		}
		if best == nil || sub.CreatedAt.After(best.CreatedAt) {
			best = sub
		}
	}
	return best, nil
}

func (f *fakeSubscriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, sub := range f.subs {
		if sub.ID == id {
			return sub, nil
		}
	}
	return nil, nil
}

func (f *fakeSubscriptionRepo) GetByCreemID(_ context.Context, creemID string) (*models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, sub := range f.subs {
		if sub.CreemSubscriptionID != nil && *sub.CreemSubscriptionID == creemID {
			return sub, nil
		}
	}
	return nil, nil
}

func (f *fakeSubscriptionRepo) Create(_ context.Context, sub *models.Subscription) error {
	if f.err != nil {
		return f.err
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	f.subs = append(f.subs, sub)
	return nil
}

func (f *fakeSubscriptionRepo) Update(_ context.Context, sub *models.Subscription) error {
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, *sub)
	return nil
}

func (f *fakeSubscriptionRepo) UpsertByCreemID(_ context.Context, sub *models.Subscription) error {
	if f.err != nil {
		return f.err
	}
	for i, existing := range f.subs {
		if existing.CreemSubscriptionID != nil && sub.CreemSubscriptionID != nil &&
			*existing.CreemSubscriptionID == *sub.CreemSubscriptionID {
			sub.ID = existing.ID
			f.subs[i] = sub
			f.updates = append(f.updates, *sub)
			return nil
		}
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	f.subs = append(f.subs, sub)
	return nil
}

func (f *fakeSubscriptionRepo) LinkSuperseded(_ context.Context, _ string, newID uuid.UUID) error {
	f.linked = append(f.linked, newID)
	return nil
}

func (f *fakeSubscriptionRepo) ListExpiring(_ context.Context, now time.Time, within time.Duration) ([]*models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Subscription
	cutoff := now.Add(within)
	for _, sub := range f.subs {
		if sub.Status != models.StatusActive || sub.CurrentPeriodEnd == nil {
			continue
		}
		if sub.ReminderSentAt != nil {
			continue
		}
		if sub.CurrentPeriodEnd.After(now) && sub.CurrentPeriodEnd.Before(cutoff) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) SetReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, sub := range f.subs {
		if sub.ID == id {
			stamp := at
			sub.ReminderSentAt = &stamp
		}
	}
	return nil
}

func (f *fakeSubscriptionRepo) ListRefundRequests(_ context.Context) ([]*models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Subscription
	for _, sub := range f.subs {
		if sub.RefundStatus == models.RefundRequested {
			out = append(out, sub)
		}
	}
	return out, nil
}

// fakeUsageRepo counts user-type rows per user and tier.
type fakeUsageRepo struct {
	records  []*models.UsageRecord
	countErr error
}

func (f *fakeUsageRepo) Record(_ context.Context, rec *models.UsageRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeUsageRepo) CountSince(_ context.Context, userID, clientID string, tier models.Tier, since time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	count := 0
	for _, rec := range f.records {
		if rec.MessageType != models.MessageTypeUser || rec.UserTier != tier {
			continue
		}
		if rec.CreatedAt.Before(since) {
			continue
		}
		if userID == "" {
			if rec.UserID == nil && rec.ClientID != nil && *rec.ClientID == clientID {
				count++
			}
		} else if rec.UserID != nil && *rec.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeUsageRepo) CountForSubscription(_ context.Context, subID uuid.UUID, since time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	count := 0
	for _, rec := range f.records {
		if rec.SubscriptionID == nil || *rec.SubscriptionID != subID {
			continue
		}
		if rec.MessageType != models.MessageTypeUser || rec.UserTier != models.TierPro {
			continue
		}
		if rec.CreatedAt.Before(since) {
			continue
		}
		count++
	}
	return count, nil
}

// fakeConversationRepo captures created conversations and appended messages.
type fakeConversationRepo struct {
	convs    []*models.Conversation
	messages []*models.ChatMessage
}

func (f *fakeConversationRepo) Create(_ context.Context, conv *models.Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	f.convs = append(f.convs, conv)
	return nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	for _, conv := range f.convs {
		if conv.ID == id {
			return conv, nil
		}
	}
	return nil, nil
}

func (f *fakeConversationRepo) ListByUser(_ context.Context, userID string) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, conv := range f.convs {
		if conv.UserID == userID {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) Rename(_ context.Context, id uuid.UUID, userID, title string) error {
	for _, conv := range f.convs {
		if conv.ID == id && conv.UserID == userID {
			conv.Title = title
		}
	}
	return nil
}

func (f *fakeConversationRepo) SoftDelete(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

func (f *fakeConversationRepo) AppendMessage(_ context.Context, msg *models.ChatMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeConversationRepo) ListMessages(_ context.Context, conversationID uuid.UUID) ([]*models.ChatMessage, error) {
	var out []*models.ChatMessage
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) SetFeedback(_ context.Context, _ uuid.UUID, _ string, _ models.Feedback) error {
	return nil
}

type cancelCall struct {
	subscriptionID string
	mode           payment.CancelMode
}

type fakeProvider struct {
	configured bool
	cancelErr  error
	cancels    []cancelCall
}

func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) CreateCheckout(_ context.Context, productID, userID, email, successURL string) (*payment.CheckoutSession, error) {
	return &payment.CheckoutSession{ID: "chk_test", CheckoutURL: "https://checkout.test/" + productID}, nil
}

func (f *fakeProvider) CancelSubscription(_ context.Context, subscriptionID string, mode payment.CancelMode) error {
	f.cancels = append(f.cancels, cancelCall{subscriptionID: subscriptionID, mode: mode})
	return f.cancelErr
}

func (f *fakeProvider) CustomerPortalLink(_ context.Context, customerID string) (string, error) {
	return "https://portal.test/" + customerID, nil
}

type sentMail struct {
	kind string
	to   string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendCancellation(_ context.Context, to string, _ models.RefundInfo) error {
	f.sent = append(f.sent, sentMail{kind: "cancellation", to: to})
	return f.err
}

func (f *fakeMailer) SendRefundOutcome(_ context.Context, to string, _, _ bool) error {
	f.sent = append(f.sent, sentMail{kind: "refund_outcome", to: to})
	return f.err
}

func (f *fakeMailer) SendExpiryReminder(_ context.Context, to string, _ time.Time) error {
	f.sent = append(f.sent, sentMail{kind: "expiry_reminder", to: to})
	return f.err
}
