package types

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"
	HeaderWebhookSecret = "X-Webhook-Secret"
)
