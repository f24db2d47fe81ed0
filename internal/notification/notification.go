package notification

import (
	"context"
)

// Result reports the outcome of a send. Delivery failures are carried here
// instead of an error so callers cannot mistake them for a workflow failure.
type Result struct {
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

func failed(reason string) Result {
	return Result{Success: false, Reason: reason}
}

type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Email is a rendered message ready for a provider
type Email struct {
	To      []Recipient
	Subject string
	HTML    string
}

// SMS is a transactional text message. To is in E.164 form.
type SMS struct {
	To      string
	Content string
}

// Sender is a provider backend
type Sender interface {
	SendEmail(ctx context.Context, email *Email) Result
	SendSMS(ctx context.Context, sms *SMS) Result
}

// Notifier renders a named template and sends it
type Notifier interface {
	Notify(ctx context.Context, tmpl TemplateName, to Recipient, data map[string]any) Result
	NotifySMS(ctx context.Context, phone, content string) Result
}
