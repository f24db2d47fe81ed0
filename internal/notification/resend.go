package notification

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/samber/lo"

	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/logger"
)

// ResendSender delivers email through Resend. Resend has no SMS product, so
// SMS is reported as not delivered.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *logger.Logger
}

func NewResendSender(cfg *config.Configuration, log *logger.Logger) *ResendSender {
	from := cfg.Notification.SenderEmail
	if cfg.Notification.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.Notification.SenderName, cfg.Notification.SenderEmail)
	}
	return &ResendSender{
		client: resend.NewClient(cfg.Notification.Resend.APIKey),
		from:   from,
		logger: log,
	}
}

func (s *ResendSender) SendEmail(ctx context.Context, email *Email) Result {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      lo.Map(email.To, func(r Recipient, _ int) string { return r.Email }),
		Subject: email.Subject,
		Html:    email.HTML,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return failed(err.Error())
	}
	return Result{Success: true, MessageID: sent.Id}
}

func (s *ResendSender) SendSMS(ctx context.Context, sms *SMS) Result {
	return failed("sms not supported by resend")
}
