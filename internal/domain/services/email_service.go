package services

import (
	"context"
	"fmt"
	"time"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/models"
)

// EmailSender is the transport; the Resend client implements it.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
	Configured() bool
}

type emailService struct {
	sender EmailSender
}

func NewEmailService(sender EmailSender) Mailer {
	return &emailService{sender: sender}
}

func (s *emailService) SendCancellation(ctx context.Context, to string, refund models.RefundInfo) error {
	if !s.sender.Configured() {
		return fmt.Errorf("email %w", ErrNotConfigured)
	}

	body := `<p>Your AskZenInsight subscription has been cancelled.</p>`
	if refund.Eligible {
		if refund.FullyRefundable {
			body += `<p>Your payment qualifies for a full refund. Our team will review your request`
		} else {
			body += fmt.Sprintf(`<p>Your payment qualifies for a partial refund of %.0f%%. Our team will review your request`, refund.Percentage)
		}
		if refund.EstimatedAt != nil {
			body += fmt.Sprintf(` by %s`, refund.EstimatedAt.Format("January 2, 2006"))
		}
		body += `.</p>`
	} else {
		body += `<p>This cancellation falls outside the refund window, so no refund applies. You keep access until the end of your paid period.</p>`
	}
	body += `<p>We are sorry to see you go. Your conversations remain available for export.</p>`

	return s.sender.Send(ctx, to, "Your subscription has been cancelled", body)
}

func (s *emailService) SendRefundOutcome(ctx context.Context, to string, approved, pendingManual bool) error {
	if !s.sender.Configured() {
		return fmt.Errorf("email %w", ErrNotConfigured)
	}

	var subject, body string
	if approved {
		subject = "Your refund has been approved"
		body = `<p>Good news: your refund request has been approved.</p>`
		if pendingManual {
			body += `<p>The subscription cancellation with our payment provider is pending manual processing; your refund is not delayed by this.</p>`
		}
		body += `<p>The refund will arrive on your original payment method within 5-10 business days.</p>`
	} else {
		subject = "Your refund request"
		body = `<p>After review, your refund request could not be approved. Your subscription remains active until the end of the paid period.</p>
<p>If you believe this is a mistake, reply to this email and a human will take another look.</p>`
	}

	return s.sender.Send(ctx, to, subject, body)
}

func (s *emailService) SendExpiryReminder(ctx context.Context, to string, endsAt time.Time) error {
	if !s.sender.Configured() {
		return fmt.Errorf("email %w", ErrNotConfigured)
	}

	body := fmt.Sprintf(`<p>Your AskZenInsight subscription ends on %s.</p>
<p>Renew any time to keep unlimited access to your guide and your saved conversations.</p>`,
		endsAt.Format("January 2, 2006"))

	return s.sender.Send(ctx, to, "Your subscription is ending soon", body)
}
