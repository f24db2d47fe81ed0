package notification

import (
	"context"
	"strings"

	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/types"
)

// Dispatcher renders templates and hands messages to the configured Sender
type Dispatcher struct {
	sender     Sender
	senderName string
	logger     *logger.Logger
}

func NewDispatcher(sender Sender, cfg *config.Configuration, log *logger.Logger) Notifier {
	return &Dispatcher{
		sender:     sender,
		senderName: cfg.Notification.SenderName,
		logger:     log,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, tmpl TemplateName, to Recipient, data map[string]any) Result {
	log := d.logger.WithContext(ctx)

	if strings.TrimSpace(to.Email) == "" {
		log.Warnw("skipping email without recipient", "template", tmpl)
		return failed("missing recipient email")
	}

	payload := make(map[string]any, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["sender_name"] = d.senderName

	subject, html, err := Render(tmpl, payload)
	if err != nil {
		log.Errorw("failed to render email template", "template", tmpl, "error", err)
		return failed(err.Error())
	}

	res := d.sender.SendEmail(ctx, &Email{
		To:      []Recipient{to},
		Subject: subject,
		HTML:    html,
	})
	if !res.Success {
		log.Warnw("email not delivered", "template", tmpl, "to", to.Email, "reason", res.Reason)
		return res
	}
	log.Infow("email sent", "template", tmpl, "to", to.Email, "message_id", res.MessageID)
	return res
}

func (d *Dispatcher) NotifySMS(ctx context.Context, phone, content string) Result {
	log := d.logger.WithContext(ctx)

	to := types.NormalizePhoneE164(phone)
	if to == "" {
		log.Warnw("skipping sms to unusable phone number", "phone", phone)
		return failed("invalid phone number")
	}

	res := d.sender.SendSMS(ctx, &SMS{To: to, Content: content})
	if !res.Success {
		log.Warnw("sms not delivered", "to", to, "reason", res.Reason)
		return res
	}
	log.Infow("sms sent", "to", to, "message_id", res.MessageID)
	return res
}
