package notification

import (
	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/httpclient"
	"github.com/tutordesk/tutordesk/internal/logger"
)

// NewSender picks the backend named by notification.provider
func NewSender(cfg *config.Configuration, client *httpclient.Client, log *logger.Logger) Sender {
	switch cfg.Notification.Provider {
	case "brevo":
		return NewBrevoSender(cfg, client, log)
	case "resend":
		return NewResendSender(cfg, log)
	default:
		return NewConsoleSender(log)
	}
}
