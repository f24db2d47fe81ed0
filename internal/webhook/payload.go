package webhook

import "time"

// EventType names an outbound automation event
type EventType string

const (
	EventDocumentRequest EventType = "document_request"
)

// Event is the envelope posted to the automation receiver
type Event struct {
	Event      EventType      `json:"event"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

// NewDocumentRequestEvent carries what the automation needs to email the upload link
func NewDocumentRequestEvent(procedureID, clientID, clientName, email, uploadURL string, expiresAt, now time.Time) *Event {
	return &Event{
		Event:      EventDocumentRequest,
		OccurredAt: now.UTC(),
		Data: map[string]any{
			"procedure_id": procedureID,
			"client_id":    clientID,
			"client_name":  clientName,
			"email":        email,
			"upload_url":   uploadURL,
			"expires_at":   expiresAt.UTC(),
		},
	}
}
