package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/httpclient"
	"github.com/tutordesk/tutordesk/internal/logger"
)

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoEmailRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type brevoSMSRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	Type      string `json:"type"`
}

type brevoResponse struct {
	MessageID json.RawMessage `json:"messageId"`
	Message   string          `json:"message"`
}

// BrevoSender talks to the Brevo transactional API
type BrevoSender struct {
	http      *httpclient.Client
	baseURL   string
	apiKey    string
	sender    brevoContact
	smsSender string
	logger    *logger.Logger
}

func NewBrevoSender(cfg *config.Configuration, client *httpclient.Client, log *logger.Logger) *BrevoSender {
	return &BrevoSender{
		http:    client,
		baseURL: strings.TrimRight(cfg.Notification.Brevo.BaseURL, "/"),
		apiKey:  cfg.Notification.Brevo.APIKey,
		sender: brevoContact{
			Name:  cfg.Notification.SenderName,
			Email: cfg.Notification.SenderEmail,
		},
		smsSender: cfg.Notification.SMSSender,
		logger:    log,
	}
}

func (b *BrevoSender) SendEmail(ctx context.Context, email *Email) Result {
	req := brevoEmailRequest{
		Sender:      b.sender,
		Subject:     email.Subject,
		HTMLContent: email.HTML,
	}
	for _, r := range email.To {
		req.To = append(req.To, brevoContact{Name: r.Name, Email: r.Email})
	}
	return b.post(ctx, "/smtp/email", req)
}

func (b *BrevoSender) SendSMS(ctx context.Context, sms *SMS) Result {
	return b.post(ctx, "/transactionalSMS/sms", brevoSMSRequest{
		Sender:    b.smsSender,
		Recipient: strings.TrimPrefix(sms.To, "+"),
		Content:   sms.Content,
		Type:      "transactional",
	})
}

func (b *BrevoSender) post(ctx context.Context, path string, payload any) Result {
	if b.apiKey == "" {
		return failed("brevo api key not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return failed(err.Error())
	}

	header := http.Header{}
	header.Set("api-key", b.apiKey)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	resp, err := b.http.Do(ctx, http.MethodPost, b.baseURL+path, header, body)
	if err != nil {
		return failed(err.Error())
	}

	var out brevoResponse
	_ = json.Unmarshal(resp.Body, &out)

	if !resp.IsSuccess() {
		reason := out.Message
		if reason == "" {
			reason = fmt.Sprintf("brevo responded %d", resp.StatusCode)
		}
		return failed(reason)
	}

	return Result{Success: true, MessageID: strings.Trim(string(out.MessageID), `"`)}
}
