package notification

import (
	"context"

	"github.com/samber/lo"

	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/types"
)

// ConsoleSender logs messages instead of sending them, for local runs
type ConsoleSender struct {
	logger *logger.Logger
}

func NewConsoleSender(log *logger.Logger) *ConsoleSender {
	return &ConsoleSender{logger: log}
}

func (s *ConsoleSender) SendEmail(ctx context.Context, email *Email) Result {
	s.logger.Infow("console email",
		"to", lo.Map(email.To, func(r Recipient, _ int) string { return r.Email }),
		"subject", email.Subject,
		"html", email.HTML,
	)
	return Result{Success: true, MessageID: types.GenerateUUID()}
}

func (s *ConsoleSender) SendSMS(ctx context.Context, sms *SMS) Result {
	s.logger.Infow("console sms", "to", sms.To, "content", sms.Content)
	return Result{Success: true, MessageID: types.GenerateUUID()}
}
